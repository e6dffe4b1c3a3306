package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
	dErrors "roadguard/pkg/domain-errors"
	"roadguard/pkg/platform/sentinel"
)

// Resolve serves the unauthenticated emergency page behind the QR code. The
// response never carries credential material or the raw code payload; the
// scan event append is fire-and-forget.
func (s *Service) Resolve(ctx context.Context, id, userAgent, ip string) (*models.Resolution, error) {
	driverID, err := uuid.Parse(id)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid driver id")
	}

	driver, err := s.store.FindDriverByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "driver not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}

	resolution := &models.Resolution{
		Driver: models.PublicProfile{
			ID:         driver.ID.String(),
			FullName:   driver.FullName,
			NationalID: driver.NationalID,
			HomeNumber: driver.HomeNumber,
			FatherName: driver.FatherName,
			MotherName: driver.MotherName,
			Email:      driver.Email,
			CreatedAt:  driver.CreatedAt,
		},
	}

	contact, err := s.store.TopEmergencyContact(ctx, driverID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	if contact != nil {
		resolution.Contact = &models.PublicContact{
			Name:     contact.Name,
			Phone:    contact.Phone,
			Priority: contact.Priority,
		}
	}

	vehicle, err := s.store.LatestVehicle(ctx, driverID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	if vehicle != nil {
		resolution.Vehicle = &models.VehicleSummary{
			Plate: vehicle.Plate,
			Make:  vehicle.Make,
			Model: vehicle.Model,
			Year:  vehicle.Year,
		}
	}

	if s.scans != nil {
		s.scans.Record(driverID, userAgent, ip)
	}
	s.metrics.QRScans.Inc()
	return resolution, nil
}
