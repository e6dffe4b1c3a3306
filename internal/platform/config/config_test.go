package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, "drivers", cfg.Tables.Drivers)
	assert.Equal(t, "qr_scans", cfg.Tables.Scans)
	assert.Equal(t, 5, cfg.LockoutMaxFailures)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ROADGUARD_ADDR", ":9999")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("DRIVERS_TABLE", "conductores")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "conductores", cfg.Tables.Drivers)
	assert.Equal(t, "ops@example.com", cfg.AdminEmail)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresDB:       "roadguard",
		PostgresSSLMode:  "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5433/roadguard?sslmode=disable", cfg.PostgresDSN())
}
