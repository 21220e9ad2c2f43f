package permissions

import "time"

// RecordType clasifica el contenido de un registro de salud.
// @Enum IDENTITY, VITALS, MEDICATION, ALLERGY, LAB_RESULT
type RecordType string

const (
	RecordTypeIdentity   RecordType = "IDENTITY"
	RecordTypeVitals     RecordType = "VITALS"
	RecordTypeMedication RecordType = "MEDICATION"
	RecordTypeAllergy    RecordType = "ALLERGY"
	RecordTypeLabResult  RecordType = "LAB_RESULT"
)

// Status es el estado de una solicitud de permiso.
// @Enum PENDING, GRANTED, REVOKED
type Status string

const (
	StatusPending Status = "PENDING"
	StatusGranted Status = "GRANTED"
	StatusRevoked Status = "REVOKED"
)

// ValidType reporta si rt pertenece al set cerrado de tipos.
func ValidType(rt RecordType) bool {
	switch rt {
	case RecordTypeIdentity, RecordTypeVitals, RecordTypeMedication, RecordTypeAllergy, RecordTypeLabResult:
		return true
	}
	return false
}

// ValidStatus reporta si s pertenece al set cerrado de estados.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusGranted, StatusRevoked:
		return true
	}
	return false
}

// Permission es un value object: qué tipos de registro, de qué paciente,
// con o sin escritura, y hasta cuándo.
type Permission struct {
	RecordTypes []RecordType
	WriteAccess bool
	PatientID   string
	ExpiresAt   *time.Time
}

// PermissionRequest es el agregado direccionable por ID.
// Nunca se borra; solo cambia de status.
type PermissionRequest struct {
	ID             string
	ProfessionalID string

	Permission Permission
	Status     Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GrantedPermission vive dentro del set de un único profesional.
// Permission es una copia tomada al momento del grant (no un link vivo);
// PermissionRequestID solo sirve para identidad/dedup.
type GrantedPermission struct {
	PermissionRequestID string
	Permission          Permission
	GrantedAt           time.Time
}
