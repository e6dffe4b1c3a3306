package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/internal/auth/credentials"
	"roadguard/internal/auth/service"
	"roadguard/internal/auth/token"
	"roadguard/internal/driver/store"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		store.NewMemory(),
		credentials.NewManager(logger),
		token.NewService("test-key", time.Hour),
		nil,
		service.AdminIdentity{Email: "ops@roadguard.example", Password: "operator-secret"},
		nil,
		logger,
	)
	r := chi.NewRouter()
	r.Route("/api", New(svc, logger).Register)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminLoginEndpoint(t *testing.T) {
	r := newRouter(t)
	rec := postJSON(t, r, "/api/login", map[string]string{
		"email":    "ops@roadguard.example",
		"password": "operator-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res service.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "admin", res.Role)
	assert.NotEmpty(t, res.Token)
}

func TestAdminLoginEndpointRejectsBadPassword(t *testing.T) {
	r := newRouter(t)
	rec := postJSON(t, r, "/api/login", map[string]string{
		"email":    "ops@roadguard.example",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDriverLoginEndpointUnknownDriver(t *testing.T) {
	r := newRouter(t)
	rec := postJSON(t, r, "/api/driver/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginEndpointBadBody(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("nope"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
