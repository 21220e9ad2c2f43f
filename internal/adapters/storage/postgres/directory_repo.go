package postgres

import (
	"context"
	"database/sql"
	"strings"

	"health-record-access/internal/domain/directory"
)

type OrganizationsRepo struct {
	db *sql.DB
}

func NewOrganizationsRepo(db *sql.DB) *OrganizationsRepo {
	return &OrganizationsRepo{db: db}
}

func (r *OrganizationsRepo) Create(ctx context.Context, o directory.Organization) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, created_at)
		VALUES ($1,$2,$3)
	`, o.ID, o.Name, o.CreatedAt)
	return err
}

func (r *OrganizationsRepo) CreateAll(ctx context.Context, orgs []directory.Organization) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range orgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (id, name, created_at)
			VALUES ($1,$2,$3)
		`, o.ID, o.Name, o.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrganizationsRepo) GetByID(ctx context.Context, id string) (directory.Organization, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return directory.Organization{}, directory.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM organizations
		WHERE id = $1
	`, id)

	var o directory.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return directory.Organization{}, directory.ErrNotFound
		}
		return directory.Organization{}, err
	}
	return o, nil
}

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Create(ctx context.Context, p directory.Patient) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (id, name, organization_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, p.ID, p.Name, p.OrganizationID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PatientsRepo) CreateAll(ctx context.Context, patients []directory.Patient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range patients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, name, organization_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5)
		`, p.ID, p.Name, p.OrganizationID, p.CreatedAt, p.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PatientsRepo) Update(ctx context.Context, p directory.Patient) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET name = $2, organization_id = $3, updated_at = $4
		WHERE id = $1
	`, p.ID, p.Name, p.OrganizationID, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (directory.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return directory.Patient{}, directory.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, organization_id, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)

	var p directory.Patient
	if err := row.Scan(&p.ID, &p.Name, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return directory.Patient{}, directory.ErrNotFound
		}
		return directory.Patient{}, err
	}
	return p, nil
}

type ProfessionalsRepo struct {
	db *sql.DB
}

func NewProfessionalsRepo(db *sql.DB) *ProfessionalsRepo {
	return &ProfessionalsRepo{db: db}
}

func (r *ProfessionalsRepo) Create(ctx context.Context, p directory.Professional) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO professionals (id, name, organization_id, created_at)
		VALUES ($1,$2,$3,$4)
	`, p.ID, p.Name, p.OrganizationID, p.CreatedAt)
	return err
}

func (r *ProfessionalsRepo) CreateAll(ctx context.Context, professionals []directory.Professional) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range professionals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO professionals (id, name, organization_id, created_at)
			VALUES ($1,$2,$3,$4)
		`, p.ID, p.Name, p.OrganizationID, p.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ProfessionalsRepo) GetByID(ctx context.Context, id string) (directory.Professional, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return directory.Professional{}, directory.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, organization_id, created_at
		FROM professionals
		WHERE id = $1
	`, id)

	var p directory.Professional
	if err := row.Scan(&p.ID, &p.Name, &p.OrganizationID, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return directory.Professional{}, directory.ErrNotFound
		}
		return directory.Professional{}, err
	}
	return p, nil
}
