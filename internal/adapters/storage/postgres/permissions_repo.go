package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"health-record-access/internal/domain/permissions"
)

type RequestsRepo struct {
	db *sql.DB
}

func NewRequestsRepo(db *sql.DB) *RequestsRepo {
	return &RequestsRepo{db: db}
}

func (r *RequestsRepo) Create(ctx context.Context, pr permissions.PermissionRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permission_requests (
			id, professional_id,
			record_types, write_access, patient_id, expires_at,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		pr.ID,
		pr.ProfessionalID,
		recordTypesToText(pr.Permission.RecordTypes),
		pr.Permission.WriteAccess,
		pr.Permission.PatientID,
		toNullTime(pr.Permission.ExpiresAt),
		string(pr.Status),
		pr.CreatedAt,
		pr.UpdatedAt,
	)
	return err
}

func (r *RequestsRepo) CreateAll(ctx context.Context, prs []permissions.PermissionRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, pr := range prs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO permission_requests (
				id, professional_id,
				record_types, write_access, patient_id, expires_at,
				status, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			pr.ID,
			pr.ProfessionalID,
			recordTypesToText(pr.Permission.RecordTypes),
			pr.Permission.WriteAccess,
			pr.Permission.PatientID,
			toNullTime(pr.Permission.ExpiresAt),
			string(pr.Status),
			pr.CreatedAt,
			pr.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *RequestsRepo) Update(ctx context.Context, pr permissions.PermissionRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE permission_requests
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, pr.ID, string(pr.Status), pr.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return permissions.ErrNotFound
	}
	return nil
}

func (r *RequestsRepo) GetByID(ctx context.Context, id string) (permissions.PermissionRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return permissions.PermissionRequest{}, permissions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, professional_id,
			record_types, write_access, patient_id, expires_at,
			status, created_at, updated_at
		FROM permission_requests
		WHERE id = $1
	`, id)

	return scanRequest(row)
}

func (r *RequestsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]permissions.PermissionRequest, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, professional_id,
			record_types, write_access, patient_id, expires_at,
			status, created_at, updated_at
		FROM permission_requests
		WHERE professional_id = $1
		ORDER BY created_at ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]permissions.PermissionRequest, 0)
	for rows.Next() {
		pr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (permissions.PermissionRequest, error) {
	var pr permissions.PermissionRequest
	var recordTypes string
	var status string
	var expiresAt sql.NullTime

	if err := row.Scan(
		&pr.ID,
		&pr.ProfessionalID,
		&recordTypes,
		&pr.Permission.WriteAccess,
		&pr.Permission.PatientID,
		&expiresAt,
		&status,
		&pr.CreatedAt,
		&pr.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return permissions.PermissionRequest{}, permissions.ErrNotFound
		}
		return permissions.PermissionRequest{}, err
	}

	pr.Status = permissions.Status(status)
	pr.Permission.RecordTypes = textToRecordTypes(recordTypes)
	if expiresAt.Valid {
		t := expiresAt.Time
		pr.Permission.ExpiresAt = &t
	}
	return pr, nil
}

// GrantsRepo persiste el set de grants de cada profesional.
// La PK (professional_id, permission_request_id) respalda a nivel de
// schema el invariante de no-duplicados que el service ya garantiza.
type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

func (r *GrantsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]permissions.GrantedPermission, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			permission_request_id,
			record_types, write_access, patient_id, expires_at,
			granted_at
		FROM granted_permissions
		WHERE professional_id = $1
		ORDER BY granted_at ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]permissions.GrantedPermission, 0)
	for rows.Next() {
		var g permissions.GrantedPermission
		var recordTypes string
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&g.PermissionRequestID,
			&recordTypes,
			&g.Permission.WriteAccess,
			&g.Permission.PatientID,
			&expiresAt,
			&g.GrantedAt,
		); err != nil {
			return nil, err
		}

		g.Permission.RecordTypes = textToRecordTypes(recordTypes)
		if expiresAt.Valid {
			t := expiresAt.Time
			g.Permission.ExpiresAt = &t
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Replace reemplaza el set completo dentro de una transacción
// (load-mutate-save del agregado, un solo writer por profesional).
func (r *GrantsRepo) Replace(ctx context.Context, professionalID string, grants []permissions.GrantedPermission) error {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return permissions.ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM granted_permissions WHERE professional_id = $1
	`, professionalID); err != nil {
		return err
	}

	for _, g := range grants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO granted_permissions (
				professional_id, permission_request_id,
				record_types, write_access, patient_id, expires_at,
				granted_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			professionalID,
			g.PermissionRequestID,
			recordTypesToText(g.Permission.RecordTypes),
			g.Permission.WriteAccess,
			g.Permission.PatientID,
			toNullTime(g.Permission.ExpiresAt),
			g.GrantedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// helpers
func recordTypesToText(in []permissions.RecordType) string {
	if len(in) == 0 {
		return ""
	}
	out := make([]string, 0, len(in))
	for _, rt := range in {
		out = append(out, string(rt))
	}
	return strings.Join(out, ",")
}

func textToRecordTypes(in string) []permissions.RecordType {
	in = strings.TrimSpace(in)
	if in == "" {
		return []permissions.RecordType{}
	}
	parts := strings.Split(in, ",")
	out := make([]permissions.RecordType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, permissions.RecordType(p))
	}
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
