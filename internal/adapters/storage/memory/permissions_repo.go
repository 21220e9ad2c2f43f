package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"health-record-access/internal/domain/permissions"
)

type requestRepo struct {
	mu   sync.RWMutex
	byID map[string]permissions.PermissionRequest
}

func NewRequestRepo() permissions.RequestRepository {
	return &requestRepo{
		byID: make(map[string]permissions.PermissionRequest),
	}
}

func (r *requestRepo) Create(ctx context.Context, pr permissions.PermissionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(pr)
}

func (r *requestRepo) CreateAll(ctx context.Context, prs []permissions.PermissionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pr := range prs {
		if err := r.createLocked(pr); err != nil {
			return err
		}
	}
	return nil
}

func (r *requestRepo) createLocked(pr permissions.PermissionRequest) error {
	if strings.TrimSpace(pr.ID) == "" {
		return errors.New("permission request id required")
	}
	if _, exists := r.byID[pr.ID]; exists {
		return errors.New("permission request already exists")
	}
	r.byID[pr.ID] = pr
	return nil
}

func (r *requestRepo) Update(ctx context.Context, pr permissions.PermissionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(pr.ID) == "" {
		return errors.New("permission request id required")
	}
	if _, exists := r.byID[pr.ID]; !exists {
		return permissions.ErrNotFound
	}
	r.byID[pr.ID] = pr
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (permissions.PermissionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pr, ok := r.byID[id]
	if !ok {
		return permissions.PermissionRequest{}, permissions.ErrNotFound
	}
	return pr, nil
}

func (r *requestRepo) ListByProfessional(ctx context.Context, professionalID string) ([]permissions.PermissionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]permissions.PermissionRequest, 0)
	for _, pr := range r.byID {
		if pr.ProfessionalID == professionalID {
			out = append(out, pr)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// grantRepo guarda el set de grants por profesional. Replace reemplaza
// el set completo; el service ya serializa por profesional.
type grantRepo struct {
	mu             sync.RWMutex
	byProfessional map[string][]permissions.GrantedPermission
}

func NewGrantRepo() permissions.GrantRepository {
	return &grantRepo{
		byProfessional: make(map[string][]permissions.GrantedPermission),
	}
}

func (r *grantRepo) ListByProfessional(ctx context.Context, professionalID string) ([]permissions.GrantedPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grants := r.byProfessional[professionalID]
	out := make([]permissions.GrantedPermission, len(grants))
	copy(out, grants)
	return out, nil
}

func (r *grantRepo) Replace(ctx context.Context, professionalID string, grants []permissions.GrantedPermission) error {
	if strings.TrimSpace(professionalID) == "" {
		return errors.New("professional id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]permissions.GrantedPermission, len(grants))
	copy(stored, grants)
	r.byProfessional[professionalID] = stored
	return nil
}
