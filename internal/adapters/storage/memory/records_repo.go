package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"health-record-access/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.HealthRecord
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.HealthRecord),
	}
}

func (r *recordRepo) Create(ctx context.Context, hr records.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(hr)
}

func (r *recordRepo) CreateAll(ctx context.Context, hrs []records.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, hr := range hrs {
		if err := r.createLocked(hr); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordRepo) createLocked(hr records.HealthRecord) error {
	if strings.TrimSpace(hr.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[hr.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[hr.ID] = hr
	return nil
}

func (r *recordRepo) Update(ctx context.Context, hr records.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(hr.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[hr.ID]; !exists {
		return records.ErrNotFound
	}
	r.byID[hr.ID] = hr
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hr, ok := r.byID[id]
	if !ok {
		return records.HealthRecord{}, records.ErrNotFound
	}
	return hr, nil
}

func (r *recordRepo) ListByPatient(ctx context.Context, patientID string) ([]records.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.HealthRecord, 0)
	for _, hr := range r.byID {
		if hr.PatientID == patientID {
			out = append(out, hr)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
