// Package handler exposes the public registry endpoints and the driver
// self-service surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"roadguard/internal/driver/models"
	"roadguard/internal/driver/service"
	"roadguard/internal/platform/middleware"
	"roadguard/internal/transport/shared"
	dErrors "roadguard/pkg/domain-errors"
)

type Handler struct {
	drivers *service.Service
	logger  *slog.Logger
}

func New(drivers *service.Service, logger *slog.Logger) *Handler {
	return &Handler{drivers: drivers, logger: logger}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/drivers", h.register)
	r.Get("/emergency/{id}", h.resolve)
	r.Post("/incidents", h.reportIncident)
}

// RegisterDriver mounts the driver self-service routes. The caller gates the
// subtree with RequireAuth and RequireRole(driver).
func (h *Handler) RegisterDriver(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/my-qr", h.myQR)
	r.Get("/vehicle", h.vehicle)
	r.Put("/vehicle", h.updateVehicle)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	res, err := h.drivers.Register(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	res, err := h.drivers.Resolve(
		r.Context(),
		chi.URLParam(r, "id"),
		r.UserAgent(),
		clientIP(r),
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) reportIncident(w http.ResponseWriter, r *http.Request) {
	var req models.IncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	inc, err := h.drivers.ReportIncident(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":     inc.ID.String(),
		"status": inc.Status,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Identity(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	res, err := h.drivers.Me(r.Context(), claims.Subject)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) myQR(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Identity(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	res, err := h.drivers.MyQR(r.Context(), claims.Subject)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) vehicle(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Identity(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	v, err := h.drivers.Vehicle(r.Context(), claims.Subject)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]*models.VehicleSummary{"vehicle": v})
}

func (h *Handler) updateVehicle(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.Identity(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	var req models.VehicleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	v, err := h.drivers.UpsertVehicle(r.Context(), claims.Subject, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]*models.VehicleSummary{"vehicle": v})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
