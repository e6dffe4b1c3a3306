// Package service implements the admin read side: filtered driver listings
// and recent incident reports.
package service

import (
	"context"
	"log/slog"

	"roadguard/internal/driver/models"
	dErrors "roadguard/pkg/domain-errors"
)

// Lister is the read-only slice of the driver store the admin side needs.
type Lister interface {
	ListDrivers(ctx context.Context, filter models.DriverFilter) (*models.DriverPage, error)
	ListIncidents(ctx context.Context, limit int) ([]models.AdminIncidentRow, error)
}

type Service struct {
	store  Lister
	logger *slog.Logger
}

func New(store Lister, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Drivers returns one page of the driver registry, newest first.
func (s *Service) Drivers(ctx context.Context, filter models.DriverFilter) (*models.DriverPage, error) {
	filter.Clamp()
	page, err := s.store.ListDrivers(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	return page, nil
}

// Incidents returns the most recent incident reports.
func (s *Service) Incidents(ctx context.Context, limit int) ([]models.AdminIncidentRow, error) {
	rows, err := s.store.ListIncidents(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	return rows, nil
}
