package permissions

import "time"

// Motor de autorización: predicados puros sobre el set de grants de un
// profesional. Se evalúan en cada llamada contra el reloj que se les pase;
// no hay caché ni limpieza de grants vencidos (expiry perezoso).

// Allows reporta si el grant cubre lectura del tipo/paciente dados en now.
func (g GrantedPermission) Allows(recordType RecordType, patientID string, now time.Time) bool {
	p := g.Permission
	if p.PatientID != patientID {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	for _, rt := range p.RecordTypes {
		if rt == recordType {
			return true
		}
	}
	return false
}

// AllowsWrite es Allows más la condición de escritura.
func (g GrantedPermission) AllowsWrite(recordType RecordType, patientID string, now time.Time) bool {
	return g.Permission.WriteAccess && g.Allows(recordType, patientID, now)
}

// CanRead es existencial: basta un grant que cubra el registro.
// Varios grants solapados son válidos.
func CanRead(grants []GrantedPermission, recordType RecordType, patientID string, now time.Time) bool {
	for _, g := range grants {
		if g.Allows(recordType, patientID, now) {
			return true
		}
	}
	return false
}

// CanWrite implica CanRead (escritura ⊆ lectura), nunca al revés.
func CanWrite(grants []GrantedPermission, recordType RecordType, patientID string, now time.Time) bool {
	for _, g := range grants {
		if g.AllowsWrite(recordType, patientID, now) {
			return true
		}
	}
	return false
}
