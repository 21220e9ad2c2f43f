package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"health-record-access/internal/domain/directory"
)

type organizationRepo struct {
	mu   sync.RWMutex
	byID map[string]directory.Organization
}

func NewOrganizationRepo() directory.OrganizationRepository {
	return &organizationRepo{
		byID: make(map[string]directory.Organization),
	}
}

func (r *organizationRepo) Create(ctx context.Context, o directory.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(o)
}

func (r *organizationRepo) CreateAll(ctx context.Context, orgs []directory.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range orgs {
		if err := r.createLocked(o); err != nil {
			return err
		}
	}
	return nil
}

func (r *organizationRepo) createLocked(o directory.Organization) error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("organization id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return errors.New("organization already exists")
	}
	r.byID[o.ID] = o
	return nil
}

func (r *organizationRepo) GetByID(ctx context.Context, id string) (directory.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return directory.Organization{}, directory.ErrNotFound
	}
	return o, nil
}

type patientRepo struct {
	mu   sync.RWMutex
	byID map[string]directory.Patient
}

func NewPatientRepo() directory.PatientRepository {
	return &patientRepo{
		byID: make(map[string]directory.Patient),
	}
}

func (r *patientRepo) Create(ctx context.Context, p directory.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(p)
}

func (r *patientRepo) CreateAll(ctx context.Context, patients []directory.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range patients {
		if err := r.createLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *patientRepo) createLocked(p directory.Patient) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("patient id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("patient already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *patientRepo) Update(ctx context.Context, p directory.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("patient id required")
	}
	if _, exists := r.byID[p.ID]; !exists {
		return directory.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *patientRepo) GetByID(ctx context.Context, id string) (directory.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return directory.Patient{}, directory.ErrNotFound
	}
	return p, nil
}

type professionalRepo struct {
	mu   sync.RWMutex
	byID map[string]directory.Professional
}

func NewProfessionalRepo() directory.ProfessionalRepository {
	return &professionalRepo{
		byID: make(map[string]directory.Professional),
	}
}

func (r *professionalRepo) Create(ctx context.Context, p directory.Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(p)
}

func (r *professionalRepo) CreateAll(ctx context.Context, professionals []directory.Professional) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range professionals {
		if err := r.createLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *professionalRepo) createLocked(p directory.Professional) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("professional id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("professional already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *professionalRepo) GetByID(ctx context.Context, id string) (directory.Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return directory.Professional{}, directory.ErrNotFound
	}
	return p, nil
}
