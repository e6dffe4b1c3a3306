// Package service implements the two login flows: the configured operator
// identity and driver credential logins with transparent hash upgrades.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"roadguard/internal/auth/credentials"
	"roadguard/internal/auth/token"
	"roadguard/internal/driver/models"
	"roadguard/internal/platform/metrics"
	dErrors "roadguard/pkg/domain-errors"
	"roadguard/pkg/platform/sentinel"
)

// badCredentials is returned for every authentication failure. The message is
// identity-agnostic: an unknown email and a wrong password are
// indistinguishable to the caller.
var badCredentials = dErrors.New(dErrors.CodeBadCredentials, "invalid email or password")

// DriverLookup is the slice of the driver store logins need: lookup plus the
// hash-upgrade write.
type DriverLookup interface {
	FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error)
	UpdateDriverPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Generate(subject, email, role string) (string, error)
}

// Verifier checks a password against a stored credential, upgrading legacy
// values through persist.
type Verifier interface {
	Verify(ctx context.Context, password, stored string, persist credentials.PersistFunc) (bool, error)
}

// Limiter throttles repeated failures per identifier.
type Limiter interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string)
	RecordSuccess(ctx context.Context, identifier string)
}

// AdminIdentity is the single configured operator account.
type AdminIdentity struct {
	Email    string
	Password string
}

// LoginRequest carries either login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// LoginResult is the issued session.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
	ID    string `json:"id,omitempty"`
}

// Service authenticates admins and drivers.
type Service struct {
	drivers DriverLookup
	creds   Verifier
	tokens  TokenIssuer
	limiter Limiter
	admin   AdminIdentity
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(
	drivers DriverLookup,
	creds Verifier,
	tokens TokenIssuer,
	limiter Limiter,
	admin AdminIdentity,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		drivers: drivers,
		creds:   creds,
		tokens:  tokens,
		limiter: limiter,
		admin: AdminIdentity{
			Email:    strings.ToLower(strings.TrimSpace(admin.Email)),
			Password: admin.Password,
		},
		metrics: m,
		logger:  logger,
	}
}

// AdminLogin authenticates the configured operator identity.
func (s *Service) AdminLogin(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.normalize()
	if req.Email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	if s.admin.Email == "" || s.admin.Password == "" {
		s.logger.WarnContext(ctx, "admin login attempted with no operator identity configured")
		s.countLogin(token.RoleAdmin, "failure")
		return nil, badCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.admin.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.admin.Password)) == 1
	if !emailOK || !passOK {
		s.countLogin(token.RoleAdmin, "failure")
		return nil, badCredentials
	}

	signed, err := s.tokens.Generate("admin", s.admin.Email, token.RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}
	s.countLogin(token.RoleAdmin, "success")
	s.logger.InfoContext(ctx, "admin logged in", "email", s.admin.Email)
	return &LoginResult{Token: signed, Role: token.RoleAdmin, Email: s.admin.Email}, nil
}

// DriverLogin authenticates a driver by email and password. Legacy plaintext
// credentials verify and are upgraded in place; the lockout budget is checked
// before any credential work.
func (s *Service) DriverLogin(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.normalize()
	if req.Email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	key := "driver:" + req.Email
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, key); err != nil {
			s.countLogin(token.RoleDriver, "locked")
			return nil, err
		}
	}

	driver, err := s.drivers.FindDriverByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.failDriverLogin(ctx, key)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}

	ok, err := s.creds.Verify(ctx, req.Password, driver.PasswordHash, func(ctx context.Context, hash string) error {
		return s.drivers.UpdateDriverPasswordHash(ctx, driver.ID, hash)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "credential verification failed")
	}
	if !ok {
		return nil, s.failDriverLogin(ctx, key)
	}

	signed, err := s.tokens.Generate(driver.ID.String(), driver.Email, token.RoleDriver)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}

	if s.limiter != nil {
		s.limiter.RecordSuccess(ctx, key)
	}
	s.countLogin(token.RoleDriver, "success")
	s.logger.InfoContext(ctx, "driver logged in", "driver_id", driver.ID.String())
	return &LoginResult{
		Token: signed,
		Role:  token.RoleDriver,
		Email: driver.Email,
		ID:    driver.ID.String(),
	}, nil
}

func (s *Service) failDriverLogin(ctx context.Context, key string) error {
	if s.limiter != nil {
		s.limiter.RecordFailure(ctx, key)
	}
	s.countLogin(token.RoleDriver, "failure")
	return badCredentials
}

func (s *Service) countLogin(role, outcome string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(role, outcome).Inc()
	}
}
