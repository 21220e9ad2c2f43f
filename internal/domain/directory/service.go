package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	orgs          OrganizationRepository
	patients      PatientRepository
	professionals ProfessionalRepository
	now           func() time.Time
}

func NewService(orgs OrganizationRepository, patients PatientRepository, professionals ProfessionalRepository) *Service {
	return &Service{
		orgs:          orgs,
		patients:      patients,
		professionals: professionals,
		now:           time.Now,
	}
}

func (s *Service) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, ErrInvalidInput
	}

	o := Organization{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.orgs.Create(ctx, o); err != nil {
		return Organization{}, err
	}
	return o, nil
}

func (s *Service) CreatePatient(ctx context.Context, name, organizationID string) (Patient, error) {
	name = strings.TrimSpace(name)
	organizationID = strings.TrimSpace(organizationID)
	if name == "" || organizationID == "" {
		return Patient{}, ErrInvalidInput
	}

	// err ya es ErrNotFound cuando la organización no existe
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		return Patient{}, err
	}

	now := s.now()
	p := Patient{
		ID:             uuid.NewString(),
		Name:           name,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) CreateProfessional(ctx context.Context, name, organizationID string) (Professional, error) {
	name = strings.TrimSpace(name)
	organizationID = strings.TrimSpace(organizationID)
	if name == "" || organizationID == "" {
		return Professional{}, ErrInvalidInput
	}

	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		return Professional{}, err
	}

	p := Professional{
		ID:             uuid.NewString(),
		Name:           name,
		OrganizationID: organizationID,
		CreatedAt:      s.now(),
	}
	if err := s.professionals.Create(ctx, p); err != nil {
		return Professional{}, err
	}
	return p, nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) GetPatient(ctx context.Context, id string) (Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetProfessional(ctx context.Context, id string) (Professional, error) {
	return s.professionals.GetByID(ctx, id)
}

// Transfer reasigna al paciente a otra organización. Es el único campo
// mutable del paciente; sus registros y los grants existentes no cambian.
func (s *Service) Transfer(ctx context.Context, patientID, organizationID string) (Patient, error) {
	patientID = strings.TrimSpace(patientID)
	organizationID = strings.TrimSpace(organizationID)
	if patientID == "" || organizationID == "" {
		return Patient{}, ErrInvalidInput
	}

	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return Patient{}, err
	}
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		return Patient{}, err
	}

	p.OrganizationID = organizationID
	p.UpdatedAt = s.now()

	if err := s.patients.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}
