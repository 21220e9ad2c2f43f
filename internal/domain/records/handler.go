package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"health-record-access/internal/domain/permissions"
	"health-record-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, permsSvc *permissions.Service) {
	r.Route("/patients/{patientID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc, permsSvc))
		rr.Get("/", listRecordsHandler(svc, permsSvc))
	})

	r.Route("/records/{recordID}", func(rr chi.Router) {
		rr.Get("/", getRecordHandler(svc, permsSvc))
		rr.Patch("/", updateRecordHandler(svc, permsSvc))
		rr.Get("/access", recordAccessHandler(permsSvc))
	})
}

type createRecordRequest struct {
	Type    permissions.RecordType `json:"type" enums:"IDENTITY,VITALS,MEDICATION,ALLERGY,LAB_RESULT"`
	Details string                 `json:"details"`
}

type updateRecordRequest struct {
	Details string `json:"details"`
}

type recordResponse struct {
	ID        string                 `json:"id"`
	PatientID string                 `json:"patient_id"`
	Type      permissions.RecordType `json:"type"`
	Details   string                 `json:"details"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type accessResponse struct {
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}

// createRecordHandler godoc
// @Summary Crear registro de salud
// @Description Crea un registro clínico para el paciente. El profesional necesita un grant vigente con escritura que cubra el tipo de registro y al paciente.
// @Tags records
// @Accept json
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Param payload body createRecordRequest true "Tipo y payload opaco"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / tipo inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID}/records [post]
func createRecordHandler(svc *Service, permsSvc *permissions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !permissions.ValidType(req.Type) {
			http.Error(w, "unknown record type", http.StatusBadRequest)
			return
		}

		allowed, err := permsSvc.CanWriteType(r.Context(), claims.ProfessionalID, req.Type, patientID)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		hr, err := svc.Create(r.Context(), CreateInput{
			PatientID: patientID,
			Type:      req.Type,
			Details:   req.Details,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "patient not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(hr))
	}
}

// listRecordsHandler devuelve solo los registros del paciente cuyo tipo
// el profesional puede leer ahora mismo. El set de grants se carga una
// sola vez por request, no una vez por registro.
func listRecordsHandler(svc *Service, permsSvc *permissions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		patientID := chi.URLParam(r, "patientID")

		items, err := svc.ListByPatient(r.Context(), patientID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		access, err := permsSvc.AccessSetOf(r.Context(), claims.ProfessionalID)
		if err != nil {
			writeLookupError(w, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, hr := range items {
			if access.CanRead(hr.Type, hr.PatientID) {
				out = append(out, toRecordResponse(hr))
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getRecordHandler(svc *Service, permsSvc *permissions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		recordID := chi.URLParam(r, "recordID")

		allowed, err := permsSvc.CanRead(r.Context(), claims.ProfessionalID, recordID)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		hr, err := svc.GetByID(r.Context(), recordID)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(hr))
	}
}

func updateRecordHandler(svc *Service, permsSvc *permissions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		recordID := chi.URLParam(r, "recordID")

		allowed, err := permsSvc.CanWrite(r.Context(), claims.ProfessionalID, recordID)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		hr, err := svc.UpdateDetails(r.Context(), recordID, req.Details)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(hr))
	}
}

func recordAccessHandler(permsSvc *permissions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		recordID := chi.URLParam(r, "recordID")

		canRead, err := permsSvc.CanRead(r.Context(), claims.ProfessionalID, recordID)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		canWrite, err := permsSvc.CanWrite(r.Context(), claims.ProfessionalID, recordID)
		if err != nil {
			writeLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, accessResponse{CanRead: canRead, CanWrite: canWrite})
	}
}

func toRecordResponse(hr HealthRecord) recordResponse {
	return recordResponse{
		ID:        hr.ID,
		PatientID: hr.PatientID,
		Type:      hr.Type,
		Details:   hr.Details,
		CreatedAt: hr.CreatedAt,
		UpdatedAt: hr.UpdatedAt,
	}
}

// writeLookupError mapea errores de los checks de acceso: registro o
// profesional ausente => 404; una falla del store no se disfraza de 404.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, permissions.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
