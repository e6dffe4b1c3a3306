package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
	"roadguard/internal/driver/store"
	dErrors "roadguard/pkg/domain-errors"
	"roadguard/pkg/platform/sentinel"
)

// Me returns the authenticated driver's own profile.
func (s *Service) Me(ctx context.Context, driverID string) (*models.MeProfile, error) {
	id, err := parseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	driver, err := s.store.FindDriverByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "driver not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	return &models.MeProfile{
		ID:         driver.ID.String(),
		FullName:   driver.FullName,
		NationalID: driver.NationalID,
		HomeNumber: driver.HomeNumber,
		FatherName: driver.FatherName,
		MotherName: driver.MotherName,
		Email:      driver.Email,
		QRPayload:  driver.QRPayload,
		CreatedAt:  driver.CreatedAt,
	}, nil
}

// MyQR re-renders the driver's code image and returns the stored payload
// alongside the public URL.
func (s *Service) MyQR(ctx context.Context, driverID string) (*models.MyQRResult, error) {
	id, err := parseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	driver, err := s.store.FindDriverByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "driver not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}

	url := s.resolutionURL(driver.ID)
	image, err := s.qr.Render(url)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "qr rendering failed")
	}
	return &models.MyQRResult{
		QRImage:   image,
		QRPayload: driver.QRPayload,
		URL:       url,
	}, nil
}

// Vehicle returns the driver's current vehicle, nil when none exists.
func (s *Service) Vehicle(ctx context.Context, driverID string) (*models.VehicleSummary, error) {
	id, err := parseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.store.LatestVehicle(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	return &models.VehicleSummary{
		Plate: vehicle.Plate,
		Make:  vehicle.Make,
		Model: vehicle.Model,
		Year:  vehicle.Year,
	}, nil
}

// UpsertVehicle replaces the driver's current vehicle record, creating one
// when none exists. The read-then-write runs in a transaction so two
// concurrent updates cannot produce two current rows.
func (s *Service) UpsertVehicle(ctx context.Context, driverID string, req *models.VehicleUpdateRequest) (*models.VehicleSummary, error) {
	id, err := parseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()

	var summary models.VehicleSummary
	err = s.tx.RunInTx(ctx, func(st store.Store) error {
		current, err := st.LatestVehicle(ctx, id)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		v := &models.Vehicle{
			DriverID: id,
			Plate:    req.Plate,
			Make:     req.Make,
			Model:    req.Model,
			Year:     req.VehicleYear(),
		}
		if current != nil {
			v.ID = current.ID
			if err := st.UpdateVehicle(ctx, v); err != nil {
				return err
			}
		} else {
			v.ID = uuid.New()
			v.CreatedAt = s.now().UTC()
			if err := st.CreateVehicle(ctx, v); err != nil {
				return err
			}
		}
		summary = models.VehicleSummary{Plate: v.Plate, Make: v.Make, Model: v.Model, Year: v.Year}
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
	return &summary, nil
}

func parseDriverID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid driver id")
	}
	return id, nil
}
