// Package credentials hashes, verifies, and transparently upgrades stored
// driver credentials.
package credentials

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "roadguard/pkg/domain-errors"
)

// Stored bcrypt hashes start with a version prefix and are never shorter than
// this. Anything else in the credential column is a legacy plaintext value.
const minHashLength = 50

// PersistFunc saves an upgraded hash for the driver being authenticated.
type PersistFunc func(ctx context.Context, hash string) error

// Manager implements the dual-scheme credential contract: bcrypt for current
// records, byte comparison plus best-effort re-hash for legacy plaintext.
type Manager struct {
	cost   int
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{cost: bcrypt.DefaultCost, logger: logger}
}

// Hash derives a salted slow hash of the password.
func (m *Manager) Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches stored. When stored is a legacy
// plaintext value and the comparison succeeds, the credential is re-hashed
// and persisted; a failed persist is logged and does not fail verification,
// so the upgrade retries on the next login.
func (m *Manager) Verify(ctx context.Context, password, stored string, persist PersistFunc) (bool, error) {
	if stored == "" {
		return false, nil
	}

	if isHashed(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		if err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return false, nil
			}
			return false, fmt.Errorf("compare password: %w", err)
		}
		return true, nil
	}

	// Legacy plaintext row.
	if subtle.ConstantTimeCompare([]byte(password), []byte(stored)) != 1 {
		return false, nil
	}

	upgraded, err := m.Hash(password)
	if err != nil {
		m.logger.WarnContext(ctx, "credential upgrade hash failed", "error", err)
		return true, nil
	}
	if persist != nil {
		if err := persist(ctx, upgraded); err != nil {
			m.logger.WarnContext(ctx, "credential upgrade persist failed", "error", err)
		}
	}
	return true, nil
}

// isHashed recognizes the bcrypt format by prefix and minimum length.
func isHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2") && len(stored) >= minHashLength
}
