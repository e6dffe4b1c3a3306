// Package handler exposes the admin read endpoints. The caller gates the
// subtree with RequireAuth and RequireRole(admin).
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"roadguard/internal/admin/service"
	"roadguard/internal/driver/models"
	"roadguard/internal/transport/shared"
)

type Handler struct {
	admin  *service.Service
	logger *slog.Logger
}

func New(admin *service.Service, logger *slog.Logger) *Handler {
	return &Handler{admin: admin, logger: logger}
}

// Register mounts the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/drivers", h.drivers)
	r.Get("/incidents", h.incidents)
}

func (h *Handler) drivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.DriverFilter{
		Query:    q.Get("q"),
		Make:     q.Get("make"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Page:     cast.ToInt(q.Get("page")),
		PageSize: cast.ToInt(q.Get("pageSize")),
	}
	page, err := h.admin.Drivers(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) incidents(w http.ResponseWriter, r *http.Request) {
	rows, err := h.admin.Incidents(r.Context(), cast.ToInt(r.URL.Query().Get("limit")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"incidents": rows})
}
