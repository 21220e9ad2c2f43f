package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"health-record-access/internal/domain/permissions"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// PatientLookup evita importar el paquete directory.
type PatientLookup interface {
	PatientExists(ctx context.Context, patientID string) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	now      func() time.Time
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		now:      time.Now,
	}
}

type CreateInput struct {
	PatientID string
	Type      permissions.RecordType
	Details   string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (HealthRecord, error) {
	patientID := strings.TrimSpace(in.PatientID)
	if patientID == "" || !permissions.ValidType(in.Type) {
		return HealthRecord{}, ErrInvalidInput
	}

	ok, err := s.patients.PatientExists(ctx, patientID)
	if err != nil {
		return HealthRecord{}, err
	}
	if !ok {
		return HealthRecord{}, ErrNotFound
	}

	now := s.now()
	hr := HealthRecord{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Type:      in.Type,
		Details:   in.Details,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, hr); err != nil {
		return HealthRecord{}, err
	}
	return hr, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return HealthRecord{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]HealthRecord, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// UpdateDetails reemplaza el payload opaco del registro.
func (s *Service) UpdateDetails(ctx context.Context, id, details string) (HealthRecord, error) {
	hr, err := s.GetByID(ctx, id)
	if err != nil {
		return HealthRecord{}, err
	}

	hr.Details = details
	hr.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, hr); err != nil {
		return HealthRecord{}, err
	}
	return hr, nil
}

// RecordInfo implementa permissions.RecordLookup.
func (s *Service) RecordInfo(ctx context.Context, recordID string) (permissions.RecordType, string, error) {
	hr, err := s.GetByID(ctx, recordID)
	if err != nil {
		return "", "", err
	}
	return hr.Type, hr.PatientID, nil
}
