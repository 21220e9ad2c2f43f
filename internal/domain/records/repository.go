package records

import "context"

// El repo devuelve ErrNotFound cuando el registro no existe; cualquier
// otro error es una falla del store y se propaga sin traducir.

type Repository interface {
	Create(ctx context.Context, hr HealthRecord) error
	CreateAll(ctx context.Context, hrs []HealthRecord) error
	Update(ctx context.Context, hr HealthRecord) error
	GetByID(ctx context.Context, id string) (HealthRecord, error)
	ListByPatient(ctx context.Context, patientID string) ([]HealthRecord, error)
}
