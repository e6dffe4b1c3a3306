// Package handler exposes the two login endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roadguard/internal/auth/service"
	"roadguard/internal/transport/shared"
	dErrors "roadguard/pkg/domain-errors"
)

type Handler struct {
	auth   *service.Service
	logger *slog.Logger
}

func New(auth *service.Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts the login routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/login", h.adminLogin)
	r.Post("/driver/login", h.driverLogin)
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.AdminLogin)
}

func (h *Handler) driverLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.DriverLogin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, req *service.LoginRequest) (*service.LoginResult, error)) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	res, err := fn(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, res)
}
