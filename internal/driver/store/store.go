// Package store defines persistence contracts for the driver registry and its
// PostgreSQL and in-memory implementations.
package store

import (
	"context"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
)

// Store is the full persistence surface for the driver registry. Methods
// return sentinel errors (pkg/platform/sentinel) for store facts; services
// translate those into domain errors.
type Store interface {
	DriverExists(ctx context.Context, email, nationalID string) (bool, error)
	CreateDriver(ctx context.Context, d *models.Driver) error
	SetDriverQRPayload(ctx context.Context, id uuid.UUID, payload string) error
	FindDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error)
	UpdateDriverPasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	AddEmergencyContact(ctx context.Context, c *models.EmergencyContact) error
	TopEmergencyContact(ctx context.Context, driverID uuid.UUID) (*models.EmergencyContact, error)

	CreateVehicle(ctx context.Context, v *models.Vehicle) error
	LatestVehicle(ctx context.Context, driverID uuid.UUID) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *models.Vehicle) error

	CreateIncident(ctx context.Context, i *models.Incident) error

	AppendScan(ctx context.Context, s *models.ScanEvent) error

	ListDrivers(ctx context.Context, filter models.DriverFilter) (*models.DriverPage, error)
	ListIncidents(ctx context.Context, limit int) ([]models.AdminIncidentRow, error)
}

// TxRunner executes fn against a transaction-scoped Store. fn failing, or the
// commit failing, rolls everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(Store) error) error
}
