package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/internal/driver/models"
	dErrors "roadguard/pkg/domain-errors"
)

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	reg := mustRegister(t, env)

	me, err := env.svc.Me(context.Background(), reg.Driver.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.Driver.ID, me.ID)
	assert.Equal(t, "ana@example.com", me.Email)
	assert.NotEmpty(t, me.QRPayload)
}

func TestMeUnknownDriver(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Me(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMyQR(t *testing.T) {
	env := newTestEnv(t)
	reg := mustRegister(t, env)

	res, err := env.svc.MyQR(context.Background(), reg.Driver.ID)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,fake", res.QRImage)
	assert.Equal(t, testBaseURL+"/emergency/"+reg.Driver.ID, res.URL)
	assert.NotEmpty(t, res.QRPayload)
}

func TestVehicleNilWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	req := validRegistration()
	req.Plate, req.Make, req.Model, req.Year = "", "", "", nil
	reg, err := env.svc.Register(context.Background(), req)
	require.NoError(t, err)

	v, err := env.svc.Vehicle(context.Background(), reg.Driver.ID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestUpsertVehicleCreatesThenUpdates(t *testing.T) {
	env := newTestEnv(t)
	req := validRegistration()
	req.Plate, req.Make, req.Model, req.Year = "", "", "", nil
	reg, err := env.svc.Register(context.Background(), req)
	require.NoError(t, err)
	driverID := uuid.MustParse(reg.Driver.ID)

	first, err := env.svc.UpsertVehicle(context.Background(), reg.Driver.ID, &models.VehicleUpdateRequest{
		Plate: "b222222", Make: "Honda", Model: "Civic", Year: 2015,
	})
	require.NoError(t, err)
	assert.Equal(t, "B222222", first.Plate)
	assert.Equal(t, 1, env.store.VehicleCount(driverID))

	second, err := env.svc.UpsertVehicle(context.Background(), reg.Driver.ID, &models.VehicleUpdateRequest{
		Plate: "c333333", Make: "Kia", Model: "Rio", Year: "2021",
	})
	require.NoError(t, err)
	assert.Equal(t, "C333333", second.Plate)
	assert.Equal(t, 2021, second.Year)
	assert.Equal(t, 1, env.store.VehicleCount(driverID), "upsert keeps a single current row")

	current, err := env.svc.Vehicle(context.Background(), reg.Driver.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "C333333", current.Plate)
	assert.Equal(t, "Kia", current.Make)
}

func TestReportIncidentDefaultsStatus(t *testing.T) {
	env := newTestEnv(t)
	reg := mustRegister(t, env)

	inc, err := env.svc.ReportIncident(context.Background(), &models.IncidentRequest{
		DriverID: reg.Driver.ID,
		Type:     "accident",
		Location: "Av. 27 de Febrero",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", inc.Status)
	assert.Equal(t, reg.Driver.ID, inc.DriverID.String())
}

func TestReportIncidentUnknownDriver(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ReportIncident(context.Background(), &models.IncidentRequest{
		DriverID: uuid.NewString(),
		Type:     "accident",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestReportIncidentValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ReportIncident(context.Background(), &models.IncidentRequest{Type: "accident"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = env.svc.ReportIncident(context.Background(), &models.IncidentRequest{DriverID: uuid.NewString()})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
