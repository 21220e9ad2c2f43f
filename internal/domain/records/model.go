package records

import (
	"time"

	"health-record-access/internal/domain/permissions"
)

// HealthRecord es un registro clínico de un paciente. Details es un
// payload opaco: el sistema no interpreta su contenido, solo lo guarda.
type HealthRecord struct {
	ID        string
	PatientID string

	Type    permissions.RecordType
	Details string

	CreatedAt time.Time
	UpdatedAt time.Time
}
