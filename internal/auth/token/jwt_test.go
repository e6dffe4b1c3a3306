package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "roadguard/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", 8*time.Hour)

	signed, err := svc.Generate("driver-1", "ana@ex.com", RoleDriver)
	require.NoError(t, err)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "driver-1", claims.Subject)
	assert.Equal(t, "ana@ex.com", claims.Email)
	assert.Equal(t, RoleDriver, claims.Role)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	clock := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	svc := NewService("test-secret", 8*time.Hour, WithClock(func() time.Time { return clock }))

	signed, err := svc.Generate("driver-1", "ana@ex.com", RoleDriver)
	require.NoError(t, err)

	clock = clock.Add(8*time.Hour + time.Minute)
	_, err = svc.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	signed, err := issuer.Generate("admin-1", "ops@ex.com", RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewService("test-secret", time.Hour).Validate("not.a.token")
	assert.Error(t, err)
}
