package directory

import "context"

// Los repos devuelven ErrNotFound cuando la entidad no existe; cualquier
// otro error es una falla del store y se propaga sin traducir.

type OrganizationRepository interface {
	Create(ctx context.Context, o Organization) error
	CreateAll(ctx context.Context, orgs []Organization) error
	GetByID(ctx context.Context, id string) (Organization, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p Patient) error
	CreateAll(ctx context.Context, patients []Patient) error
	Update(ctx context.Context, p Patient) error
	GetByID(ctx context.Context, id string) (Patient, error)
}

type ProfessionalRepository interface {
	Create(ctx context.Context, p Professional) error
	CreateAll(ctx context.Context, professionals []Professional) error
	GetByID(ctx context.Context, id string) (Professional, error)
}
