package permissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testRequestRepo struct {
	byID map[string]PermissionRequest
}

func newTestRequestRepo() *testRequestRepo {
	return &testRequestRepo{byID: map[string]PermissionRequest{}}
}

func (r *testRequestRepo) Create(ctx context.Context, pr PermissionRequest) error {
	if pr.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[pr.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[pr.ID] = pr
	return nil
}

func (r *testRequestRepo) CreateAll(ctx context.Context, prs []PermissionRequest) error {
	for _, pr := range prs {
		if err := r.Create(ctx, pr); err != nil {
			return err
		}
	}
	return nil
}

func (r *testRequestRepo) Update(ctx context.Context, pr PermissionRequest) error {
	if _, ok := r.byID[pr.ID]; !ok {
		return ErrNotFound
	}
	r.byID[pr.ID] = pr
	return nil
}

func (r *testRequestRepo) GetByID(ctx context.Context, id string) (PermissionRequest, error) {
	pr, ok := r.byID[id]
	if !ok {
		return PermissionRequest{}, ErrNotFound
	}
	return pr, nil
}

func (r *testRequestRepo) ListByProfessional(ctx context.Context, professionalID string) ([]PermissionRequest, error) {
	out := make([]PermissionRequest, 0)
	for _, pr := range r.byID {
		if pr.ProfessionalID == professionalID {
			out = append(out, pr)
		}
	}
	return out, nil
}

type testGrantRepo struct {
	mu             sync.Mutex
	byProfessional map[string][]GrantedPermission
}

func newTestGrantRepo() *testGrantRepo {
	return &testGrantRepo{byProfessional: map[string][]GrantedPermission{}}
}

func (r *testGrantRepo) ListByProfessional(ctx context.Context, professionalID string) ([]GrantedPermission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants := r.byProfessional[professionalID]
	out := make([]GrantedPermission, len(grants))
	copy(out, grants)
	return out, nil
}

func (r *testGrantRepo) Replace(ctx context.Context, professionalID string, grants []GrantedPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]GrantedPermission, len(grants))
	copy(stored, grants)
	r.byProfessional[professionalID] = stored
	return nil
}

type testProfessionals struct {
	ids map[string]bool
}

func (l *testProfessionals) ProfessionalExists(ctx context.Context, professionalID string) (bool, error) {
	return l.ids[professionalID], nil
}

type testRecordInfo struct {
	recordType RecordType
	patientID  string
}

type testRecords struct {
	byID map[string]testRecordInfo
}

func (l *testRecords) RecordInfo(ctx context.Context, recordID string) (RecordType, string, error) {
	info, ok := l.byID[recordID]
	if !ok {
		return "", "", ErrNotFound
	}
	return info.recordType, info.patientID, nil
}

func newTestService() (*Service, *testRequestRepo, *testGrantRepo, *testRecords) {
	requests := newTestRequestRepo()
	grants := newTestGrantRepo()
	professionals := &testProfessionals{ids: map[string]bool{"dr-1": true, "dr-2": true}}
	recordsLookup := &testRecords{byID: map[string]testRecordInfo{
		"rec-identity-p1": {recordType: RecordTypeIdentity, patientID: "patient-1"},
		"rec-vitals-p1":   {recordType: RecordTypeVitals, patientID: "patient-1"},
		"rec-identity-p2": {recordType: RecordTypeIdentity, patientID: "patient-2"},
	}}

	svc := NewService(requests, grants, professionals, recordsLookup)
	return svc, requests, grants, recordsLookup
}

// -------------------------
// Tests
// -------------------------

func TestService_Submit_CreatesPending(t *testing.T) {
	svc, requests, _, _ := newTestService()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	pr, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity, RecordTypeIdentity, RecordTypeVitals},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if pr.ID == "" {
		t.Fatalf("expected generated id")
	}
	if pr.Status != StatusPending {
		t.Fatalf("expected status PENDING, got %s", pr.Status)
	}
	if pr.CreatedAt != now || pr.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
	// tipos deduplicados
	if len(pr.Permission.RecordTypes) != 2 {
		t.Fatalf("expected deduped record types, got %#v", pr.Permission.RecordTypes)
	}
	if _, err := requests.GetByID(context.Background(), pr.ID); err != nil {
		t.Fatalf("expected request persisted: %v", err)
	}
}

func TestService_Submit_RejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity, RecordType("DNA")},
		PatientID:      "patient-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Submit_RejectsEmptyTypes(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    nil,
		PatientID:      "patient-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty record types, got %v", err)
	}
}

func TestService_Submit_UnknownProfessional(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-ghost",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		PatientID:      "patient-1",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Grant_DedupSecondCall(t *testing.T) {
	svc, _, grants, _ := newTestService()

	pr, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	out1, err := svc.Grant(context.Background(), pr)
	if err != nil {
		t.Fatalf("Grant #1 error: %v", err)
	}
	if out1 != OutcomeApplied {
		t.Fatalf("expected applied, got %s", out1)
	}

	out2, err := svc.Grant(context.Background(), pr)
	if err != nil {
		t.Fatalf("Grant #2 error: %v", err)
	}
	if out2 != OutcomeAlreadyGranted {
		t.Fatalf("expected already_granted, got %s", out2)
	}

	set, _ := grants.ListByProfessional(context.Background(), "dr-1")
	count := 0
	for _, g := range set {
		if g.PermissionRequestID == pr.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 grant for request, got %d", count)
	}
}

func TestService_Grant_UnknownProfessional(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Grant(context.Background(), PermissionRequest{
		ID:             "req-x",
		ProfessionalID: "dr-ghost",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Revoke_IdempotentAndTotal(t *testing.T) {
	svc, _, grants, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		PatientID:      "patient-1",
	})

	// Revocar algo nunca otorgado no falla y no toca el set
	out, err := svc.Revoke(context.Background(), pr)
	if err != nil {
		t.Fatalf("Revoke on ungranted error: %v", err)
	}
	if out != OutcomeApplied {
		t.Fatalf("expected applied, got %s", out)
	}

	if _, err := svc.Grant(context.Background(), pr); err != nil {
		t.Fatalf("Grant error: %v", err)
	}

	if _, err := svc.Revoke(context.Background(), pr); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	set, _ := grants.ListByProfessional(context.Background(), "dr-1")
	if len(set) != 0 {
		t.Fatalf("expected empty grant set after revoke, got %d", len(set))
	}

	// segunda revocación tampoco falla
	if _, err := svc.Revoke(context.Background(), pr); err != nil {
		t.Fatalf("Revoke #2 error: %v", err)
	}
}

func TestService_ChangeStatus_TransitionRules(t *testing.T) {
	svc, _, _, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})

	// status fuera de {GRANTED, REVOKED} se rechaza
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusPending); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for PENDING target, got %v", err)
	}
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, Status("APPROVED")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for unknown target, got %v", err)
	}

	// PENDING -> GRANTED
	updated, outcome, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted)
	if err != nil {
		t.Fatalf("grant decision error: %v", err)
	}
	if updated.Status != StatusGranted || outcome != OutcomeApplied {
		t.Fatalf("expected GRANTED/applied, got %s/%s", updated.Status, outcome)
	}

	// re-aplicar GRANTED es idempotente: already_granted, sin duplicar
	_, outcome, err = svc.ChangeStatus(context.Background(), pr.ID, StatusGranted)
	if err != nil {
		t.Fatalf("regrant error: %v", err)
	}
	if outcome != OutcomeAlreadyGranted {
		t.Fatalf("expected already_granted on regrant, got %s", outcome)
	}

	// GRANTED -> REVOKED
	updated, _, err = svc.ChangeStatus(context.Background(), pr.ID, StatusRevoked)
	if err != nil {
		t.Fatalf("revoke decision error: %v", err)
	}
	if updated.Status != StatusRevoked {
		t.Fatalf("expected REVOKED, got %s", updated.Status)
	}

	// REVOKED -> GRANTED se rechaza: requiere solicitud nueva
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState for regrant after revoke, got %v", err)
	}

	// REVOKED -> REVOKED sigue siendo idempotente
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusRevoked); err != nil {
		t.Fatalf("rerevoke error: %v", err)
	}
}

func TestService_ChangeStatus_UnknownRequest(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, _, err := svc.ChangeStatus(context.Background(), "nope", StatusGranted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GrantThenAuthorize_Scenario(t *testing.T) {
	// Escenario: Dr1 pide IDENTITY+write sin expiración para patient-1;
	// se otorga; puede escribir el registro IDENTITY de patient-1 pero
	// no leer el VITALS (tipo no cubierto).
	svc, _, _, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	canWrite, err := svc.CanWrite(context.Background(), "dr-1", "rec-identity-p1")
	if err != nil {
		t.Fatalf("CanWrite error: %v", err)
	}
	if !canWrite {
		t.Fatalf("expected CanWrite true for granted identity record")
	}

	canRead, err := svc.CanRead(context.Background(), "dr-1", "rec-vitals-p1")
	if err != nil {
		t.Fatalf("CanRead error: %v", err)
	}
	if canRead {
		t.Fatalf("expected CanRead false for uncovered record type")
	}

	// scoping por paciente: mismo tipo, otro paciente
	canRead, err = svc.CanRead(context.Background(), "dr-1", "rec-identity-p2")
	if err != nil {
		t.Fatalf("CanRead error: %v", err)
	}
	if canRead {
		t.Fatalf("expected CanRead false for another patient's record")
	}
}

func TestService_GrantThenRevoke_AccessLost(t *testing.T) {
	svc, _, _, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})

	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}
	if ok, _ := svc.CanRead(context.Background(), "dr-1", "rec-identity-p1"); !ok {
		t.Fatalf("expected CanRead true after grant")
	}

	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusRevoked); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	if ok, _ := svc.CanRead(context.Background(), "dr-1", "rec-identity-p1"); ok {
		t.Fatalf("expected CanRead false after revoke")
	}
}

func TestService_ExpiredGrant_NeverAuthorizes(t *testing.T) {
	svc, _, _, _ := newTestService()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	expired := now.Add(-time.Hour)
	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
		ExpiresAt:      &expired,
	})
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	if ok, _ := svc.CanRead(context.Background(), "dr-1", "rec-identity-p1"); ok {
		t.Fatalf("expected CanRead false for expired grant")
	}
	if ok, _ := svc.CanWrite(context.Background(), "dr-1", "rec-identity-p1"); ok {
		t.Fatalf("expected CanWrite false for expired grant")
	}

	// el grant vencido queda en el set (no hay poda)
	set, err := svc.GrantsOf(context.Background(), "dr-1")
	if err != nil {
		t.Fatalf("GrantsOf error: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected expired grant kept in set, got %d entries", len(set))
	}
}

func TestService_WriteImpliesRead(t *testing.T) {
	svc, _, _, _ := newTestService()

	// grant de solo lectura
	prRead, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeVitals},
		WriteAccess:    false,
		PatientID:      "patient-1",
	})
	if _, _, err := svc.ChangeStatus(context.Background(), prRead.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	if ok, _ := svc.CanRead(context.Background(), "dr-1", "rec-vitals-p1"); !ok {
		t.Fatalf("expected CanRead true for read-only grant")
	}
	if ok, _ := svc.CanWrite(context.Background(), "dr-1", "rec-vitals-p1"); ok {
		t.Fatalf("expected CanWrite false for read-only grant")
	}

	// grant con escritura: write => read
	prWrite, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-2",
		RecordTypes:    []RecordType{RecordTypeVitals},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})
	if _, _, err := svc.ChangeStatus(context.Background(), prWrite.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	canWrite, _ := svc.CanWrite(context.Background(), "dr-2", "rec-vitals-p1")
	canRead, _ := svc.CanRead(context.Background(), "dr-2", "rec-vitals-p1")
	if canWrite && !canRead {
		t.Fatalf("CanWrite true must imply CanRead true")
	}
	if !canWrite {
		t.Fatalf("expected CanWrite true for write grant")
	}
}

func TestService_ConcurrentGrants_SingleEntry(t *testing.T) {
	svc, _, grants, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		PatientID:      "patient-1",
	})

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = svc.Grant(context.Background(), pr)
		}()
	}
	wg.Wait()

	set, _ := grants.ListByProfessional(context.Background(), "dr-1")
	count := 0
	for _, g := range set {
		if g.PermissionRequestID == pr.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 grant after concurrent grants, got %d", count)
	}
}

func TestService_GrantCopiesPermission(t *testing.T) {
	// La Permission del grant es una copia al momento del grant,
	// no un link vivo a la solicitud.
	svc, _, _, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    true,
		PatientID:      "patient-1",
	})
	if _, err := svc.Grant(context.Background(), pr); err != nil {
		t.Fatalf("Grant error: %v", err)
	}

	// mutar el slice original no debe afectar al grant almacenado
	pr.Permission.RecordTypes[0] = RecordTypeVitals

	set, _ := svc.GrantsOf(context.Background(), "dr-1")
	if len(set) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(set))
	}
	if set[0].Permission.RecordTypes[0] != RecordTypeIdentity {
		t.Fatalf("expected stored grant to keep copied record types, got %#v", set[0].Permission.RecordTypes)
	}
}

// failingProfessionals simula una falla del directorio (store caído).
type failingProfessionals struct {
	err error
}

func (l *failingProfessionals) ProfessionalExists(ctx context.Context, professionalID string) (bool, error) {
	return false, l.err
}

func TestService_StoreFailureIsNotNotFound(t *testing.T) {
	dbDown := errors.New("db down: connection refused")

	requests := newTestRequestRepo()
	grants := newTestGrantRepo()
	svc := NewService(requests, grants, &failingProfessionals{err: dbDown}, &testRecords{byID: map[string]testRecordInfo{}})

	_, err := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		PatientID:      "patient-1",
	})
	if !errors.Is(err, dbDown) {
		t.Fatalf("expected store error to propagate from Submit, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure must not masquerade as ErrNotFound")
	}

	if _, err := svc.GrantsOf(context.Background(), "dr-1"); !errors.Is(err, dbDown) {
		t.Fatalf("expected store error to propagate from GrantsOf, got %v", err)
	}
}

func TestService_AccessSetOf(t *testing.T) {
	svc, _, _, _ := newTestService()

	pr, _ := svc.Submit(context.Background(), SubmitInput{
		ProfessionalID: "dr-1",
		RecordTypes:    []RecordType{RecordTypeIdentity},
		WriteAccess:    false,
		PatientID:      "patient-1",
	})
	if _, _, err := svc.ChangeStatus(context.Background(), pr.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	// una sola carga del set sirve para evaluar varios registros
	access, err := svc.AccessSetOf(context.Background(), "dr-1")
	if err != nil {
		t.Fatalf("AccessSetOf error: %v", err)
	}
	if !access.CanRead(RecordTypeIdentity, "patient-1") {
		t.Fatalf("expected CanRead true for covered type")
	}
	if access.CanRead(RecordTypeVitals, "patient-1") {
		t.Fatalf("expected CanRead false for uncovered type")
	}
	if access.CanRead(RecordTypeIdentity, "patient-2") {
		t.Fatalf("expected CanRead false for another patient")
	}
	if access.CanWrite(RecordTypeIdentity, "patient-1") {
		t.Fatalf("expected CanWrite false for read-only grant")
	}

	if _, err := svc.AccessSetOf(context.Background(), "dr-ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown professional, got %v", err)
	}
}
