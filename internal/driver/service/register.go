package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
	"roadguard/internal/driver/store"
	dErrors "roadguard/pkg/domain-errors"
	"roadguard/pkg/platform/sentinel"
)

// Register runs the onboarding workflow as one atomic unit: duplicate check,
// driver insert, contacts, optional vehicle, QR issuance. Any failure rolls
// everything back, including a failed rendering call, since its result lands
// in the final update of the same transaction.
func (s *Service) Register(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result models.RegistrationResult
	err := s.tx.RunInTx(ctx, func(st store.Store) error {
		exists, err := st.DriverExists(ctx, req.Email, req.NationalID)
		if err != nil {
			return err
		}
		if exists {
			return sentinel.ErrConflict
		}

		hash, err := s.creds.Hash(req.Password)
		if err != nil {
			return err
		}

		driver := &models.Driver{
			ID:           uuid.New(),
			FullName:     req.FullName,
			NationalID:   req.NationalID,
			HomeNumber:   req.HomeNumber,
			FatherName:   req.FatherName,
			MotherName:   req.MotherName,
			Email:        req.Email,
			PasswordHash: hash,
			CreatedAt:    s.now().UTC(),
		}
		if err := st.CreateDriver(ctx, driver); err != nil {
			return err
		}

		priority := 0
		for _, in := range req.EmergencyContacts {
			if in.Empty() {
				continue
			}
			priority++
			contact := &models.EmergencyContact{
				ID:       uuid.New(),
				DriverID: driver.ID,
				Name:     in.Name,
				Phone:    in.Phone,
				Priority: priority,
			}
			if err := st.AddEmergencyContact(ctx, contact); err != nil {
				return err
			}
		}

		var vehicle *models.VehicleSummary
		if req.HasVehicle() {
			v := &models.Vehicle{
				ID:        uuid.New(),
				DriverID:  driver.ID,
				Plate:     req.Plate,
				Make:      req.Make,
				Model:     req.Model,
				Year:      req.VehicleYear(),
				CreatedAt: s.now().UTC(),
			}
			if err := st.CreateVehicle(ctx, v); err != nil {
				return err
			}
			vehicle = &models.VehicleSummary{Plate: v.Plate, Make: v.Make, Model: v.Model, Year: v.Year}
		}

		url := s.resolutionURL(driver.ID)
		image, err := s.qr.Render(url)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUpstream, "qr rendering failed")
		}

		payload := models.QRPayload{
			Type:       "driver",
			ID:         driver.ID.String(),
			NationalID: driver.NationalID,
			URL:        url,
		}
		serialized, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("serialize qr payload: %w", err)
		}
		if err := st.SetDriverQRPayload(ctx, driver.ID, string(serialized)); err != nil {
			return err
		}

		result = models.RegistrationResult{
			Driver: models.DriverSummary{
				ID:         driver.ID.String(),
				FullName:   driver.FullName,
				NationalID: driver.NationalID,
				Email:      driver.Email,
				CreatedAt:  driver.CreatedAt,
			},
			Vehicle:   vehicle,
			QRImage:   image,
			QRPayload: payload,
		}
		return nil
	})
	if err != nil {
		return nil, s.mapRegistrationErr(ctx, err)
	}

	s.metrics.DriversRegistered.Inc()
	s.logger.InfoContext(ctx, "driver registered",
		"driver_id", result.Driver.ID,
		"has_vehicle", result.Vehicle != nil,
	)
	return &result, nil
}

// mapRegistrationErr translates store facts into domain outcomes. A unique
// constraint rejecting the insert surfaces the same conflict as the
// pre-check, so concurrent duplicate registrations are indistinguishable
// from sequential ones.
func (s *Service) mapRegistrationErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "email or national id already exists")
	case dErrors.HasCode(err, dErrors.CodeUpstream),
		dErrors.HasCode(err, dErrors.CodeValidation):
		return err
	default:
		s.logger.ErrorContext(ctx, "registration failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}
}
