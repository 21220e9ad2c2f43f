package permissions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrBadState      = errors.New("invalid state")
	ErrInvalidStatus = errors.New("invalid status")
)

// GrantOutcome es el resultado de aplicar un grant/revoke.
// AlreadyGranted es benigno (idempotencia), no un error.
type GrantOutcome string

const (
	OutcomeApplied        GrantOutcome = "applied"
	OutcomeAlreadyGranted GrantOutcome = "already_granted"
)

type Service struct {
	requests      RequestRepository
	grants        GrantRepository
	professionals ProfessionalLookup
	records       RecordLookup
	now           func() time.Time

	// Serializa load-mutate-save del set de grants por profesional.
	// Operaciones sobre profesionales distintos corren en paralelo.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(requests RequestRepository, grants GrantRepository, professionals ProfessionalLookup, records RecordLookup) *Service {
	return &Service{
		requests:      requests,
		grants:        grants,
		professionals: professionals,
		records:       records,
		now:           time.Now,
		locks:         make(map[string]*sync.Mutex),
	}
}

func (s *Service) professionalLock(professionalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[professionalID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[professionalID] = l
	}
	return l
}

type SubmitInput struct {
	ProfessionalID string
	RecordTypes    []RecordType
	WriteAccess    bool
	PatientID      string
	ExpiresAt      *time.Time
}

// Submit crea la solicitud en PENDING y la persiste. Sin más efectos:
// el grant recién ocurre cuando alguien decide el status.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (PermissionRequest, error) {
	professionalID := strings.TrimSpace(in.ProfessionalID)
	patientID := strings.TrimSpace(in.PatientID)

	if professionalID == "" || patientID == "" {
		return PermissionRequest{}, ErrInvalidInput
	}

	recordTypes, err := normalizeRecordTypesStrict(in.RecordTypes)
	if err != nil {
		return PermissionRequest{}, err
	}
	// recordTypes nunca vacío (invariante del modelo)
	if len(recordTypes) == 0 {
		return PermissionRequest{}, ErrInvalidInput
	}

	ok, err := s.professionals.ProfessionalExists(ctx, professionalID)
	if err != nil {
		return PermissionRequest{}, err
	}
	if !ok {
		return PermissionRequest{}, ErrNotFound
	}

	now := s.now()
	pr := PermissionRequest{
		ID:             uuid.NewString(),
		ProfessionalID: professionalID,
		Permission: Permission{
			RecordTypes: recordTypes,
			WriteAccess: in.WriteAccess,
			PatientID:   patientID,
			ExpiresAt:   in.ExpiresAt,
		},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.requests.Create(ctx, pr); err != nil {
		return PermissionRequest{}, err
	}
	return pr, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (PermissionRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return PermissionRequest{}, ErrInvalidInput
	}
	return s.requests.GetByID(ctx, requestID)
}

func (s *Service) ListByProfessional(ctx context.Context, professionalID string) ([]PermissionRequest, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrInvalidInput
	}
	return s.requests.ListByProfessional(ctx, professionalID)
}

// SetStatus actualiza solo el campo status del agregado (idempotente).
func (s *Service) SetStatus(ctx context.Context, requestID string, status Status) (PermissionRequest, error) {
	pr, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return PermissionRequest{}, err
	}

	pr.Status = status
	pr.UpdatedAt = s.now()

	if err := s.requests.Update(ctx, pr); err != nil {
		return PermissionRequest{}, err
	}
	return pr, nil
}

// ChangeStatus orquesta la decisión sobre una solicitud:
// despacha al grant manager y después persiste el status.
//
// Transiciones legales:
//
//	PENDING -> GRANTED | REVOKED
//	GRANTED -> REVOKED
//	re-aplicar el status actual es no-op idempotente
//	REVOKED -> GRANTED se rechaza; un re-grant requiere solicitud nueva
func (s *Service) ChangeStatus(ctx context.Context, requestID string, status Status) (PermissionRequest, GrantOutcome, error) {
	if status != StatusGranted && status != StatusRevoked {
		return PermissionRequest{}, "", ErrInvalidStatus
	}

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return PermissionRequest{}, "", ErrInvalidInput
	}

	pr, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return PermissionRequest{}, "", err
	}

	if pr.Status == StatusRevoked && status == StatusGranted {
		return PermissionRequest{}, "", ErrBadState
	}

	var outcome GrantOutcome
	switch status {
	case StatusGranted:
		outcome, err = s.Grant(ctx, pr)
	case StatusRevoked:
		outcome, err = s.Revoke(ctx, pr)
	}
	if err != nil {
		return PermissionRequest{}, "", err
	}

	updated, err := s.SetStatus(ctx, requestID, status)
	if err != nil {
		return PermissionRequest{}, "", err
	}
	return updated, outcome, nil
}

// Grant agrega al set del profesional una copia del permission de la
// solicitud. Si ya existe una entrada con el mismo request id no muta
// nada y reporta AlreadyGranted.
func (s *Service) Grant(ctx context.Context, pr PermissionRequest) (GrantOutcome, error) {
	lock := s.professionalLock(pr.ProfessionalID)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.professionals.ProfessionalExists(ctx, pr.ProfessionalID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}

	grants, err := s.grants.ListByProfessional(ctx, pr.ProfessionalID)
	if err != nil {
		return "", err
	}

	for _, g := range grants {
		if g.PermissionRequestID == pr.ID {
			return OutcomeAlreadyGranted, nil
		}
	}

	grants = append(grants, GrantedPermission{
		PermissionRequestID: pr.ID,
		Permission:          copyPermission(pr.Permission),
		GrantedAt:           s.now(),
	})

	if err := s.grants.Replace(ctx, pr.ProfessionalID, grants); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

// Revoke remueve toda entrada con el request id (filtro, no first-match).
// Revocar algo nunca otorgado es no-op: siempre Applied.
func (s *Service) Revoke(ctx context.Context, pr PermissionRequest) (GrantOutcome, error) {
	lock := s.professionalLock(pr.ProfessionalID)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.professionals.ProfessionalExists(ctx, pr.ProfessionalID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}

	grants, err := s.grants.ListByProfessional(ctx, pr.ProfessionalID)
	if err != nil {
		return "", err
	}

	kept := make([]GrantedPermission, 0, len(grants))
	for _, g := range grants {
		if g.PermissionRequestID == pr.ID {
			continue
		}
		kept = append(kept, g)
	}

	if err := s.grants.Replace(ctx, pr.ProfessionalID, kept); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

// GrantsOf devuelve el set actual (incluye grants vencidos: son inertes
// pero no se podan).
func (s *Service) GrantsOf(ctx context.Context, professionalID string) ([]GrantedPermission, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrInvalidInput
	}

	ok, err := s.professionals.ProfessionalExists(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	return s.grants.ListByProfessional(ctx, professionalID)
}

func (s *Service) CanRead(ctx context.Context, professionalID, recordID string) (bool, error) {
	rt, patientID, err := s.records.RecordInfo(ctx, recordID)
	if err != nil {
		return false, err
	}
	return s.CanReadType(ctx, professionalID, rt, patientID)
}

func (s *Service) CanWrite(ctx context.Context, professionalID, recordID string) (bool, error) {
	rt, patientID, err := s.records.RecordInfo(ctx, recordID)
	if err != nil {
		return false, err
	}
	return s.CanWriteType(ctx, professionalID, rt, patientID)
}

// CanReadType evalúa acceso de lectura sin registro concreto (se usa al
// crear registros y para filtrar listados por paciente).
func (s *Service) CanReadType(ctx context.Context, professionalID string, recordType RecordType, patientID string) (bool, error) {
	grants, err := s.GrantsOf(ctx, professionalID)
	if err != nil {
		return false, err
	}
	return CanRead(grants, recordType, patientID, s.now()), nil
}

func (s *Service) CanWriteType(ctx context.Context, professionalID string, recordType RecordType, patientID string) (bool, error) {
	grants, err := s.GrantsOf(ctx, professionalID)
	if err != nil {
		return false, err
	}
	return CanWrite(grants, recordType, patientID, s.now()), nil
}

// AccessSet es una foto del set de grants de un profesional tomada en un
// instante. Permite evaluar muchos registros con una sola carga del set
// (p.ej. al filtrar el listado de registros de un paciente).
type AccessSet struct {
	grants []GrantedPermission
	now    time.Time
}

func (a AccessSet) CanRead(recordType RecordType, patientID string) bool {
	return CanRead(a.grants, recordType, patientID, a.now)
}

func (a AccessSet) CanWrite(recordType RecordType, patientID string) bool {
	return CanWrite(a.grants, recordType, patientID, a.now)
}

func (s *Service) AccessSetOf(ctx context.Context, professionalID string) (AccessSet, error) {
	grants, err := s.GrantsOf(ctx, professionalID)
	if err != nil {
		return AccessSet{}, err
	}
	return AccessSet{grants: grants, now: s.now()}, nil
}

func copyPermission(p Permission) Permission {
	out := p
	out.RecordTypes = append([]RecordType(nil), p.RecordTypes...)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

func normalizeRecordTypesStrict(in []RecordType) ([]RecordType, error) {
	seen := map[RecordType]struct{}{}
	out := make([]RecordType, 0, len(in))

	for _, raw := range in {
		rt := RecordType(strings.TrimSpace(string(raw)))
		if rt == "" {
			continue
		}
		if !ValidType(rt) {
			return nil, ErrInvalidInput
		}
		if _, ok := seen[rt]; ok {
			continue
		}
		seen[rt] = struct{}{}
		out = append(out, rt)
	}

	return out, nil
}
