package permissions

import "context"

// Los repos devuelven ErrNotFound cuando el agregado no existe; cualquier
// otro error es una falla del store y se propaga sin traducir.

type RequestRepository interface {
	Create(ctx context.Context, pr PermissionRequest) error
	CreateAll(ctx context.Context, prs []PermissionRequest) error
	Update(ctx context.Context, pr PermissionRequest) error
	GetByID(ctx context.Context, id string) (PermissionRequest, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]PermissionRequest, error)
}

// GrantRepository persiste el set de grants de cada profesional.
// Replace reemplaza el set completo: el service hace load-mutate-save
// serializado por profesional, así que el repo no necesita lógica de merge.
type GrantRepository interface {
	ListByProfessional(ctx context.Context, professionalID string) ([]GrantedPermission, error)
	Replace(ctx context.Context, professionalID string, grants []GrantedPermission) error
}

// ProfessionalLookup evita importar el paquete directory (rompe ciclos).
type ProfessionalLookup interface {
	ProfessionalExists(ctx context.Context, professionalID string) (bool, error)
}

// RecordLookup expone lo mínimo que el motor de autorización necesita
// de un registro de salud sin importar el paquete records.
type RecordLookup interface {
	RecordInfo(ctx context.Context, recordID string) (recordType RecordType, patientID string, err error)
}
