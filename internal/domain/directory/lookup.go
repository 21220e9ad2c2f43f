package directory

import (
	"context"
	"errors"
)

// ProfessionalExists implementa el lookup que necesita el módulo
// permissions. Se usa para evitar ciclos de imports entre módulos
// (directory <-> permissions). Solo la ausencia es (false, nil); una
// falla del store se propaga tal cual.
func (s *Service) ProfessionalExists(ctx context.Context, professionalID string) (bool, error) {
	_, err := s.professionals.GetByID(ctx, professionalID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// PatientExists cumple el mismo rol para el módulo records.
func (s *Service) PatientExists(ctx context.Context, patientID string) (bool, error) {
	_, err := s.patients.GetByID(ctx, patientID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
