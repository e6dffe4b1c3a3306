package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
	dErrors "roadguard/pkg/domain-errors"
	"roadguard/pkg/platform/sentinel"
)

// ReportIncident accepts an unauthenticated public report against a driver.
func (s *Service) ReportIncident(ctx context.Context, req *models.IncidentRequest) (*models.Incident, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid driver id")
	}

	incident := &models.Incident{
		ID:            uuid.New(),
		DriverID:      driverID,
		Type:          req.Type,
		Description:   req.Description,
		Location:      req.Location,
		ReporterName:  req.ReporterName,
		ReporterPhone: req.ReporterPhone,
		Status:        req.Status,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.CreateIncident(ctx, incident); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "driver not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, err.Error())
	}

	s.metrics.IncidentsReported.Inc()
	s.logger.InfoContext(ctx, "incident reported",
		"incident_id", incident.ID.String(),
		"driver_id", driverID.String(),
		"type", incident.Type,
	)
	return incident, nil
}
