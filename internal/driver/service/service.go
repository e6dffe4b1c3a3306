// Package service holds the driver-registry business logic: the registration
// workflow, the public resolver, driver self-service, and public incident
// intake.
package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roadguard/internal/driver/store"
	"roadguard/internal/platform/metrics"
	"roadguard/internal/qr"
)

// ScanRecorder accepts best-effort scan events; it must never block.
type ScanRecorder interface {
	Record(driverID uuid.UUID, userAgent, ip string)
}

// CredentialHasher is the slice of the credential manager registration needs.
type CredentialHasher interface {
	Hash(password string) (string, error)
}

// Service orchestrates driver operations on top of the store. All
// multi-write operations go through the transaction runner, never the shared
// autocommit handle.
type Service struct {
	store   store.Store
	tx      store.TxRunner
	creds   CredentialHasher
	qr      qr.Renderer
	scans   ScanRecorder
	metrics *metrics.Metrics
	logger  *slog.Logger
	baseURL string
	now     func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	st store.Store,
	tx store.TxRunner,
	creds CredentialHasher,
	renderer qr.Renderer,
	scans ScanRecorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	baseURL string,
	opts ...Option,
) *Service {
	svc := &Service{
		store:   st,
		tx:      tx,
		creds:   creds,
		qr:      renderer,
		scans:   scans,
		metrics: m,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// resolutionURL builds the public emergency link embedded in the QR code.
func (s *Service) resolutionURL(id uuid.UUID) string {
	return s.baseURL + "/emergency/" + id.String()
}
