// Package lockout throttles credential guessing: repeated failed logins for
// the same identifier trigger a temporary hard lock.
package lockout

import (
	"context"
	"log/slog"
	"time"

	dErrors "roadguard/pkg/domain-errors"
)

// Record tracks failures for one identifier within the current window.
type Record struct {
	Failures    int       `json:"failures"`
	WindowStart time.Time `json:"windowStart"`
	LockedUntil time.Time `json:"lockedUntil"`
}

// IsLockedAt reports whether the record is hard-locked at the given instant.
func (r *Record) IsLockedAt(now time.Time) bool {
	return r != nil && now.Before(r.LockedUntil)
}

// Store persists lockout records. Get returns nil (no error) for unknown
// identifiers.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, key string, rec *Record, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Config bounds the failure window and the lock.
type Config struct {
	MaxFailures int
	Window      time.Duration
	Duration    time.Duration
}

func DefaultConfig() Config {
	return Config{MaxFailures: 5, Window: 10 * time.Minute, Duration: 15 * time.Minute}
}

// Service applies the lockout policy. Store failures degrade open: a login
// must never be blocked because the lockout backend is down.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store Store, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.MaxFailures <= 0 {
		cfg = DefaultConfig()
	}
	svc := &Service{store: store, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Check fails with an unauthorized error while the identifier is locked.
func (s *Service) Check(ctx context.Context, identifier string) error {
	rec, err := s.store.Get(ctx, identifier)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check degraded open", "error", err)
		return nil
	}
	if rec.IsLockedAt(s.now()) {
		return dErrors.New(dErrors.CodeUnauthorized, "too many failed logins, try again later")
	}
	return nil
}

// RecordFailure counts a failed login and hard-locks once the window budget
// is exhausted.
func (s *Service) RecordFailure(ctx context.Context, identifier string) {
	now := s.now()
	rec, err := s.store.Get(ctx, identifier)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout record degraded", "error", err)
		return
	}
	if rec == nil || now.Sub(rec.WindowStart) > s.cfg.Window {
		rec = &Record{WindowStart: now}
	}
	rec.Failures++
	if rec.Failures >= s.cfg.MaxFailures {
		rec.LockedUntil = now.Add(s.cfg.Duration)
		s.logger.InfoContext(ctx, "login lockout triggered",
			"identifier", identifier,
			"locked_until", rec.LockedUntil,
		)
	}
	ttl := s.cfg.Window
	if s.cfg.Duration > ttl {
		ttl = s.cfg.Duration
	}
	if err := s.store.Put(ctx, identifier, rec, ttl); err != nil {
		s.logger.WarnContext(ctx, "lockout persist failed", "error", err)
	}
}

// RecordSuccess clears the failure budget after a successful login.
func (s *Service) RecordSuccess(ctx context.Context, identifier string) {
	if err := s.store.Clear(ctx, identifier); err != nil {
		s.logger.WarnContext(ctx, "lockout clear failed", "error", err)
	}
}
