package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/internal/auth/credentials"
	"roadguard/internal/driver/models"
	"roadguard/internal/driver/service"
	"roadguard/internal/driver/store"
	"roadguard/internal/platform/metrics"
	"roadguard/internal/platform/middleware"
)

type fixture struct {
	router *chi.Mux
	store  *store.MemoryStore
}

type stubRenderer struct{}

func (stubRenderer) Render(string) (string, error) { return "data:image/png;base64,stub", nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	svc := service.New(
		mem,
		mem,
		credentials.NewManager(logger),
		stubRenderer{},
		nil,
		metrics.NewWith(prometheus.NewRegistry()),
		logger,
		"https://roadguard.example",
	)
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Route("/api/public", h.RegisterPublic)
	r.Route("/api/driver", h.RegisterDriver)
	return &fixture{router: r, store: mem}
}

func (f *fixture) do(t *testing.T, method, path string, body any, identity *middleware.TokenClaims) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func registerDriver(t *testing.T, f *fixture) models.RegistrationResult {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/public/drivers", map[string]any{
		"fullName":   "Ana Morales",
		"nationalId": "40212345678",
		"email":      "ana@example.com",
		"password":   "s3cret",
		"emergencyContacts": []map[string]string{
			{"name": "Luis", "phone": "809-555-0101"},
		},
		"plate": "a123456",
		"make":  "Toyota",
		"model": "Corolla",
		"year":  "2019",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res models.RegistrationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func driverIdentity(id string) *middleware.TokenClaims {
	return &middleware.TokenClaims{Subject: id, Email: "ana@example.com", Role: "driver"}
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)
	res := registerDriver(t, f)

	assert.Equal(t, "ana@example.com", res.Driver.Email)
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "A123456", res.Vehicle.Plate)
	assert.NotEmpty(t, res.QRImage)
}

func TestRegisterEndpointConflict(t *testing.T) {
	f := newFixture(t)
	registerDriver(t, f)

	rec := f.do(t, http.MethodPost, "/api/public/drivers", map[string]any{
		"fullName":   "Other",
		"nationalId": "40212345678",
		"email":      "other@example.com",
		"password":   "pw",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpointBadBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/public/drivers", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmergencyEndpoint(t *testing.T) {
	f := newFixture(t)
	reg := registerDriver(t, f)

	rec := f.do(t, http.MethodGet, "/api/public/emergency/"+reg.Driver.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Ana Morales", res.Driver.FullName)
	require.NotNil(t, res.Contact)
	assert.Equal(t, 1, res.Contact.Priority)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestEmergencyEndpointNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/public/emergency/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIncidentEndpoint(t *testing.T) {
	f := newFixture(t)
	reg := registerDriver(t, f)

	rec := f.do(t, http.MethodPost, "/api/public/incidents", map[string]string{
		"driverId": reg.Driver.ID,
		"type":     "accident",
		"location": "Av. Churchill",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "pending", res["status"])
	assert.NotEmpty(t, res["id"])
}

func TestMeEndpoint(t *testing.T) {
	f := newFixture(t)
	reg := registerDriver(t, f)

	rec := f.do(t, http.MethodGet, "/api/driver/me", nil, driverIdentity(reg.Driver.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.MeProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, reg.Driver.ID, res.ID)
	assert.NotEmpty(t, res.QRPayload)
}

func TestMeEndpointWithoutIdentity(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/driver/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyQREndpoint(t *testing.T) {
	f := newFixture(t)
	reg := registerDriver(t, f)

	rec := f.do(t, http.MethodGet, "/api/driver/my-qr", nil, driverIdentity(reg.Driver.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.MyQRResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "https://roadguard.example/emergency/"+reg.Driver.ID, res.URL)
	assert.NotEmpty(t, res.QRImage)
}

func TestVehicleRoundTrip(t *testing.T) {
	f := newFixture(t)
	reg := registerDriver(t, f)
	identity := driverIdentity(reg.Driver.ID)

	rec := f.do(t, http.MethodPut, "/api/driver/vehicle", map[string]any{
		"plate": "z999999",
		"make":  "Kia",
		"model": "Rio",
		"year":  2021,
	}, identity)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/driver/vehicle", nil, identity)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Vehicle *models.VehicleSummary `json:"vehicle"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "Z999999", res.Vehicle.Plate)
	assert.Equal(t, 2021, res.Vehicle.Year)
}

// Exercised here so a scan append failure surfacing through the HTTP layer
// would be caught.
func TestEmergencyEndpointWithScanRecorder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	svc := service.New(
		mem,
		mem,
		credentials.NewManager(logger),
		stubRenderer{},
		inlineRecorder{store: mem},
		metrics.NewWith(prometheus.NewRegistry()),
		logger,
		"https://roadguard.example",
	)
	h := New(svc, logger)
	r := chi.NewRouter()
	r.Route("/api/public", h.RegisterPublic)
	f := &fixture{router: r, store: mem}

	reg := registerDriver(t, f)
	req := httptest.NewRequest(http.MethodGet, "/api/public/emergency/"+reg.Driver.ID, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, mem.ScanCount())
}

type inlineRecorder struct{ store *store.MemoryStore }

func (r inlineRecorder) Record(driverID uuid.UUID, userAgent, ip string) {
	_ = r.store.AppendScan(context.Background(), &models.ScanEvent{
		ID:        uuid.New(),
		DriverID:  driverID,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	})
}
