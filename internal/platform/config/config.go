package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config captures everything the server needs at startup so main stays lean.
type Config struct {
	Addr          string
	PublicBaseURL string

	JWTSigningKey string
	TokenTTL      time.Duration

	// Operator identity for the single administrator. Lives in config, never
	// in the drivers table.
	AdminEmail    string
	AdminPassword string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PoolSize         int
	MigrationsPath   string

	// Optional; empty means the in-memory lockout store is used.
	RedisAddr     string
	RedisPassword string

	LockoutMaxFailures int
	LockoutWindow      time.Duration
	LockoutDuration    time.Duration

	ScanLogBuffer int

	Tables Tables
}

// Tables allows legacy deployments to point at differently named tables.
type Tables struct {
	Drivers   string
	Contacts  string
	Vehicles  string
	Incidents string
	Scans     string
}

// FromEnv builds a Config from environment variables, loading .env first when
// present.
func FromEnv() Config {
	_ = godotenv.Load(".env")

	return Config{
		Addr:          get("ROADGUARD_ADDR", ":8080"),
		PublicBaseURL: get("PUBLIC_BASE_URL", "http://localhost:3000"),

		JWTSigningKey: get("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      cast.ToDuration(get("TOKEN_TTL", "8h")),

		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		PostgresHost:     get("POSTGRES_HOST", "localhost"),
		PostgresPort:     get("POSTGRES_PORT", "5432"),
		PostgresUser:     get("POSTGRES_USER", "postgres"),
		PostgresPassword: get("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       get("POSTGRES_DB", "roadguard"),
		PostgresSSLMode:  get("POSTGRES_SSLMODE", "disable"),
		PoolSize:         cast.ToInt(get("POSTGRES_POOL_SIZE", "10")),
		MigrationsPath:   get("MIGRATIONS_PATH", "migrations"),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		LockoutMaxFailures: cast.ToInt(get("LOCKOUT_MAX_FAILURES", "5")),
		LockoutWindow:      cast.ToDuration(get("LOCKOUT_WINDOW", "10m")),
		LockoutDuration:    cast.ToDuration(get("LOCKOUT_DURATION", "15m")),

		ScanLogBuffer: cast.ToInt(get("SCAN_LOG_BUFFER", "256")),

		Tables: Tables{
			Drivers:   get("DRIVERS_TABLE", "drivers"),
			Contacts:  get("EMERGENCY_CONTACTS_TABLE", "emergency_contacts"),
			Vehicles:  get("VEHICLES_TABLE", "vehicles"),
			Incidents: get("INCIDENTS_TABLE", "incidents"),
			Scans:     get("QR_SCANS_TABLE", "qr_scans"),
		},
	}
}

// PostgresDSN renders the lib/pq connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode)
}

func get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
