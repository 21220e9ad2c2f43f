// Package demo carga datos de demostración: diez organizaciones,
// pacientes, profesionales, registros IDENTITY y solicitudes PENDING,
// con IDs deterministas "1".."10" para poder probar a mano.
package demo

import (
	"context"
	"fmt"
	"time"

	"health-record-access/internal/domain/directory"
	"health-record-access/internal/domain/permissions"
	"health-record-access/internal/domain/records"
	"health-record-access/internal/platform/logger"
)

const total = 10

type Seeder struct {
	orgs          directory.OrganizationRepository
	patients      directory.PatientRepository
	professionals directory.ProfessionalRepository
	records       records.Repository
	requests      permissions.RequestRepository

	log logger.Logger
	now func() time.Time
}

func NewSeeder(
	orgs directory.OrganizationRepository,
	patients directory.PatientRepository,
	professionals directory.ProfessionalRepository,
	recordsRepo records.Repository,
	requests permissions.RequestRepository,
	log logger.Logger,
) *Seeder {
	return &Seeder{
		orgs:          orgs,
		patients:      patients,
		professionals: professionals,
		records:       recordsRepo,
		requests:      requests,
		log:           log,
		now:           time.Now,
	}
}

// Seed usa los bulk-adds de cada repo. Falla si ya se sembró (los IDs
// chocan), lo cual está bien: es una operación de dev, no idempotente.
func (s *Seeder) Seed(ctx context.Context) error {
	now := s.now()

	orgs := make([]directory.Organization, 0, total)
	for i := 1; i <= total; i++ {
		orgs = append(orgs, directory.Organization{
			ID:        fmt.Sprintf("%d", i),
			Name:      fmt.Sprintf("Org %d", i),
			CreatedAt: now,
		})
	}
	if err := s.orgs.CreateAll(ctx, orgs); err != nil {
		return fmt.Errorf("seed organizations: %w", err)
	}

	patients := make([]directory.Patient, 0, total)
	for i := 1; i <= total; i++ {
		patients = append(patients, directory.Patient{
			ID:             fmt.Sprintf("%d", i),
			Name:           fmt.Sprintf("Patient %d", i),
			OrganizationID: fmt.Sprintf("%d", i),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := s.patients.CreateAll(ctx, patients); err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	professionals := make([]directory.Professional, 0, total)
	for i := 1; i <= total; i++ {
		professionals = append(professionals, directory.Professional{
			ID:             fmt.Sprintf("%d", i),
			Name:           fmt.Sprintf("Dr %d", i),
			OrganizationID: fmt.Sprintf("%d", i),
			CreatedAt:      now,
		})
	}
	if err := s.professionals.CreateAll(ctx, professionals); err != nil {
		return fmt.Errorf("seed professionals: %w", err)
	}

	hrs := make([]records.HealthRecord, 0, total)
	for i := 1; i <= total; i++ {
		hrs = append(hrs, records.HealthRecord{
			ID:        fmt.Sprintf("%d", i),
			PatientID: fmt.Sprintf("%d", i),
			Type:      permissions.RecordTypeIdentity,
			Details:   fmt.Sprintf("{sin: '%d'}", i),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.records.CreateAll(ctx, hrs); err != nil {
		return fmt.Errorf("seed health records: %w", err)
	}

	requests := make([]permissions.PermissionRequest, 0, total)
	for i := 1; i <= total; i++ {
		requests = append(requests, permissions.PermissionRequest{
			ID:             fmt.Sprintf("%d", i),
			ProfessionalID: fmt.Sprintf("%d", i),
			Permission: permissions.Permission{
				RecordTypes: []permissions.RecordType{permissions.RecordTypeIdentity},
				WriteAccess: true,
				PatientID:   fmt.Sprintf("%d", i),
			},
			Status:    permissions.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.requests.CreateAll(ctx, requests); err != nil {
		return fmt.Errorf("seed permission requests: %w", err)
	}

	if s.log != nil {
		s.log.Info("demo data seeded", map[string]any{"count": total})
	}
	return nil
}
