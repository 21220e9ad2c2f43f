package directory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"health-record-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/organizations", func(or chi.Router) {
		or.Post("/", createOrganizationHandler(svc))
		or.Get("/{organizationID}", getOrganizationHandler(svc))
	})

	r.Route("/patients", func(pr chi.Router) {
		pr.Post("/", createPatientHandler(svc))
		pr.Get("/{patientID}", getPatientHandler(svc))
		pr.Post("/{patientID}/transfer", transferPatientHandler(svc))
	})

	r.Route("/professionals", func(pr chi.Router) {
		pr.Post("/", createProfessionalHandler(svc))
		pr.Get("/{professionalID}", getProfessionalHandler(svc))
	})
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type createPersonRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
}

type transferRequest struct {
	OrganizationID string `json:"organization_id"`
}

type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type patientResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type professionalResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func createOrganizationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrganizationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		o, err := svc.CreateOrganization(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrganizationResponse(o))
	}
}

func getOrganizationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.GetOrganization(r.Context(), chi.URLParam(r, "organizationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrganizationResponse(o))
	}
}

func createPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPersonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.CreatePatient(r.Context(), req.Name, req.OrganizationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPatient(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// transferPatientHandler godoc
// @Summary Transferir paciente a otra organización
// @Description Actualiza únicamente la organización del paciente. Los registros del paciente y los grants vigentes no se tocan.
// @Tags directory
// @Accept json
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Param payload body transferRequest true "Organización destino"
// @Success 200 {object} patientResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "patient / organization not found"
// @Router /patients/{patientID}/transfer [post]
func transferPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Transfer(r.Context(), chi.URLParam(r, "patientID"), req.OrganizationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func createProfessionalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPersonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.CreateProfessional(r.Context(), req.Name, req.OrganizationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProfessionalResponse(p))
	}
}

func getProfessionalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetProfessional(r.Context(), chi.URLParam(r, "professionalID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfessionalResponse(p))
	}
}

func toOrganizationResponse(o Organization) organizationResponse {
	return organizationResponse{ID: o.ID, Name: o.Name, CreatedAt: o.CreatedAt}
}

func toPatientResponse(p Patient) patientResponse {
	return patientResponse{
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toProfessionalResponse(p Professional) professionalResponse {
	return professionalResponse{
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		CreatedAt:      p.CreatedAt,
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
