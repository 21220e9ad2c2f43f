package postgres

import (
	"context"
	"database/sql"
	"strings"

	"health-record-access/internal/domain/permissions"
	"health-record-access/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) Create(ctx context.Context, hr records.HealthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_records (id, patient_id, record_type, details, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, hr.ID, hr.PatientID, string(hr.Type), hr.Details, hr.CreatedAt, hr.UpdatedAt)
	return err
}

func (r *RecordsRepo) CreateAll(ctx context.Context, hrs []records.HealthRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, hr := range hrs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO health_records (id, patient_id, record_type, details, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, hr.ID, hr.PatientID, string(hr.Type), hr.Details, hr.CreatedAt, hr.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *RecordsRepo) Update(ctx context.Context, hr records.HealthRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_records
		SET details = $2, updated_at = $3
		WHERE id = $1
	`, hr.ID, hr.Details, hr.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.HealthRecord{}, records.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, patient_id, record_type, details, created_at, updated_at
		FROM health_records
		WHERE id = $1
	`, id)

	var hr records.HealthRecord
	var recordType string
	if err := row.Scan(&hr.ID, &hr.PatientID, &recordType, &hr.Details, &hr.CreatedAt, &hr.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return records.HealthRecord{}, records.ErrNotFound
		}
		return records.HealthRecord{}, err
	}
	hr.Type = permissions.RecordType(recordType)
	return hr, nil
}

func (r *RecordsRepo) ListByPatient(ctx context.Context, patientID string) ([]records.HealthRecord, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, patient_id, record_type, details, created_at, updated_at
		FROM health_records
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.HealthRecord, 0)
	for rows.Next() {
		var hr records.HealthRecord
		var recordType string
		if err := rows.Scan(&hr.ID, &hr.PatientID, &recordType, &hr.Details, &hr.CreatedAt, &hr.UpdatedAt); err != nil {
			return nil, err
		}
		hr.Type = permissions.RecordType(recordType)
		out = append(out, hr)
	}
	return out, rows.Err()
}
