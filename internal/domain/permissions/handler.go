package permissions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"health-record-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/permission-requests", func(pr chi.Router) {
		pr.Post("/", submitRequestHandler(svc))
		pr.Get("/{requestID}", getRequestHandler(svc))
		pr.Post("/{requestID}/status", changeStatusHandler(svc))
	})

	// Profesional: ver sus propias solicitudes
	r.Route("/me/permission-requests", func(mr chi.Router) {
		mr.Get("/", listMyRequestsHandler(svc))
	})

	r.Get("/professionals/{professionalID}/grants", listGrantsHandler(svc))
}

// submitRequest es el cuerpo para pedir acceso a registros de un paciente.
type submitRequest struct {
	RecordTypes []RecordType `json:"record_types" enums:"IDENTITY,VITALS,MEDICATION,ALLERGY,LAB_RESULT"`
	WriteAccess bool         `json:"write_access"`
	PatientID   string       `json:"patient_id"`
	ExpiresAt   string       `json:"expires_at,omitempty"` // RFC3339, opcional
}

type changeStatusRequest struct {
	Status Status `json:"status" enums:"GRANTED,REVOKED"`
}

type permissionResponse struct {
	RecordTypes []RecordType `json:"record_types"`
	WriteAccess bool         `json:"write_access"`
	PatientID   string       `json:"patient_id"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

type requestResponse struct {
	ID             string             `json:"id"`
	ProfessionalID string             `json:"professional_id"`
	Permission     permissionResponse `json:"permission"`
	Status         Status             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type statusChangeResponse struct {
	Request requestResponse `json:"request"`
	Outcome GrantOutcome    `json:"outcome"`
}

type grantResponse struct {
	PermissionRequestID string             `json:"permission_request_id"`
	Permission          permissionResponse `json:"permission"`
	GrantedAt           time.Time          `json:"granted_at"`
}

// submitRequestHandler godoc
// @Summary Solicitar permiso sobre registros de un paciente
// @Description Crea una solicitud en PENDING a nombre del profesional autenticado. El acceso recién se habilita cuando la solicitud pasa a GRANTED. Autenticación: `X-Debug-Professional-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags permissions
// @Accept json
// @Produce json
// @Param payload body submitRequest true "Tipos de registro, paciente, escritura y expiración opcional (RFC3339)"
// @Success 201 {object} requestResponse
// @Failure 400 {string} string "invalid json / record_types inválidos / expires_at inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "professional not found"
// @Router /permission-requests [post]
func submitRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var expiresAt *time.Time
		if strings.TrimSpace(req.ExpiresAt) != "" {
			t, err := time.Parse(time.RFC3339, req.ExpiresAt)
			if err != nil {
				http.Error(w, "expires_at must be RFC3339", http.StatusBadRequest)
				return
			}
			expiresAt = &t
		}

		pr, err := svc.Submit(r.Context(), SubmitInput{
			ProfessionalID: claims.ProfessionalID,
			RecordTypes:    req.RecordTypes,
			WriteAccess:    req.WriteAccess,
			PatientID:      req.PatientID,
			ExpiresAt:      expiresAt,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "professional not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(pr))
	}
}

func getRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		pr, err := svc.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
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

		writeJSON(w, http.StatusOK, toRequestResponse(pr))
	}
}

// changeStatusHandler godoc
// @Summary Decidir una solicitud de permiso
// @Description Aplica GRANTED o REVOKED: muta el set de grants del profesional y después persiste el status. GRANTED sobre una solicitud ya otorgada responde outcome `already_granted` sin duplicar el grant. REVOKED es idempotente. Re-otorgar una solicitud revocada se rechaza con 409.
// @Tags permissions
// @Accept json
// @Produce json
// @Param requestID path string true "ID de la solicitud"
// @Param payload body changeStatusRequest true "Nuevo status: GRANTED o REVOKED"
// @Success 200 {object} statusChangeResponse
// @Failure 400 {string} string "invalid json / status fuera de {GRANTED, REVOKED}"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid state"
// @Router /permission-requests/{requestID}/status [post]
func changeStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		pr, outcome, err := svc.ChangeStatus(r.Context(), chi.URLParam(r, "requestID"), req.Status)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, ErrBadState):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, statusChangeResponse{
			Request: toRequestResponse(pr),
			Outcome: outcome,
		})
	}
}

func listMyRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// status=PENDING,GRANTED (CSV opcional)
		allowed, err := parseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByProfessional(r.Context(), claims.ProfessionalID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if len(allowed) > 0 {
			filtered := make([]PermissionRequest, 0, len(items))
			for _, pr := range items {
				if _, ok := allowed[pr.Status]; ok {
					filtered = append(filtered, pr)
				}
			}
			items = filtered
		}

		out := make([]requestResponse, 0, len(items))
		for _, pr := range items {
			out = append(out, toRequestResponse(pr))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.ProfessionalID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grants, err := svc.GrantsOf(r.Context(), chi.URLParam(r, "professionalID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "professional not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]grantResponse, 0, len(grants))
		for _, g := range grants {
			out = append(out, grantResponse{
				PermissionRequestID: g.PermissionRequestID,
				Permission:          toPermissionResponse(g.Permission),
				GrantedAt:           g.GrantedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toRequestResponse(pr PermissionRequest) requestResponse {
	return requestResponse{
		ID:             pr.ID,
		ProfessionalID: pr.ProfessionalID,
		Permission:     toPermissionResponse(pr.Permission),
		Status:         pr.Status,
		CreatedAt:      pr.CreatedAt,
		UpdatedAt:      pr.UpdatedAt,
	}
}

func toPermissionResponse(p Permission) permissionResponse {
	return permissionResponse{
		RecordTypes: p.RecordTypes,
		WriteAccess: p.WriteAccess,
		PatientID:   p.PatientID,
		ExpiresAt:   p.ExpiresAt,
	}
}

// parseStatusFilter es estricto, igual que la normalización de record
// types: un status fuera del set cerrado es 400, no un filtro que
// silenciosamente no matchea nada.
func parseStatusFilter(raw string) (map[Status]struct{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := map[Status]struct{}{}
	for _, p := range parts {
		s := Status(strings.ToUpper(strings.TrimSpace(p)))
		if s == "" {
			continue
		}
		if !ValidStatus(s) {
			return nil, fmt.Errorf("unknown status %q", s)
		}
		out[s] = struct{}{}
	}
	return out, nil
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
