package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"roadguard/internal/auth/credentials"
	"roadguard/internal/driver/models"
	"roadguard/internal/driver/store"
	"roadguard/internal/platform/metrics"
)

const testBaseURL = "https://roadguard.example"

// fakeRenderer stands in for the QR encoder; Err makes rendering fail so
// transactional rollback can be exercised.
type fakeRenderer struct {
	Err  error
	URLs []string
}

func (f *fakeRenderer) Render(url string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.URLs = append(f.URLs, url)
	return "data:image/png;base64,fake", nil
}

// syncRecorder appends scans inline so tests observe them deterministically.
type syncRecorder struct {
	mu    sync.Mutex
	store store.Store
}

func (r *syncRecorder) Record(driverID uuid.UUID, userAgent, ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.store.AppendScan(context.Background(), &models.ScanEvent{
		ID:        uuid.New(),
		DriverID:  driverID,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	})
}

type testEnv struct {
	svc      *Service
	store    *store.MemoryStore
	renderer *fakeRenderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer := &fakeRenderer{}
	svc := New(
		mem,
		mem,
		credentials.NewManager(logger),
		renderer,
		&syncRecorder{store: mem},
		metrics.NewWith(prometheus.NewRegistry()),
		logger,
		testBaseURL+"/",
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return &testEnv{svc: svc, store: mem, renderer: renderer}
}

func validRegistration() *models.RegistrationRequest {
	return &models.RegistrationRequest{
		FullName:   "Ana Morales",
		NationalID: "40212345678",
		Email:      "  Ana@Example.COM ",
		Password:   "s3cret",
		EmergencyContacts: []models.EmergencyContactInput{
			{Name: "Luis Morales", Phone: "809-555-0101"},
			{Name: "Rosa Morales", Phone: "809-555-0102"},
		},
		Plate: "a123456",
		Make:  "Toyota",
		Model: "Corolla",
		Year:  "2019",
	}
}

func mustRegister(t *testing.T, env *testEnv) *models.RegistrationResult {
	t.Helper()
	res, err := env.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	return res
}

var errRenderBoom = errors.New("encoder unavailable")
