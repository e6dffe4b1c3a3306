package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/internal/driver/models"
	"roadguard/pkg/platform/sentinel"
)

func seedMemDriver(t *testing.T, m *MemoryStore, email string) *models.Driver {
	t.Helper()
	d := &models.Driver{
		ID:         uuid.New(),
		FullName:   "Test Driver",
		NationalID: uuid.NewString(),
		Email:      email,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, m.CreateDriver(context.Background(), d))
	return d
}

func TestMemoryRunInTxCommits(t *testing.T) {
	m := NewMemory()
	err := m.RunInTx(context.Background(), func(st Store) error {
		return st.CreateDriver(context.Background(), &models.Driver{
			ID: uuid.New(), Email: "tx@example.com", NationalID: "n1",
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.DriverCount())
}

func TestMemoryRunInTxRollsBack(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	err := m.RunInTx(context.Background(), func(st Store) error {
		if err := st.CreateDriver(context.Background(), &models.Driver{
			ID: uuid.New(), Email: "tx@example.com", NationalID: "n1",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.DriverCount(), "failed transaction leaves no writes")
}

func TestMemoryTopContactPrefersPriorityThenInsertion(t *testing.T) {
	m := NewMemory()
	d := seedMemDriver(t, m, "c@example.com")
	ctx := context.Background()

	require.NoError(t, m.AddEmergencyContact(ctx, &models.EmergencyContact{
		ID: uuid.New(), DriverID: d.ID, Name: "Late Primary", Priority: 1,
	}))
	require.NoError(t, m.AddEmergencyContact(ctx, &models.EmergencyContact{
		ID: uuid.New(), DriverID: d.ID, Name: "Secondary", Priority: 2,
	}))
	require.NoError(t, m.AddEmergencyContact(ctx, &models.EmergencyContact{
		ID: uuid.New(), DriverID: d.ID, Name: "Duplicate Primary", Priority: 1,
	}))

	top, err := m.TopEmergencyContact(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Late Primary", top.Name, "insertion order breaks priority ties")
}

func TestMemoryLatestVehicle(t *testing.T) {
	m := NewMemory()
	d := seedMemDriver(t, m, "v@example.com")
	ctx := context.Background()

	_, err := m.LatestVehicle(ctx, d.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, m.CreateVehicle(ctx, &models.Vehicle{ID: uuid.New(), DriverID: d.ID, Plate: "P1"}))
	require.NoError(t, m.CreateVehicle(ctx, &models.Vehicle{ID: uuid.New(), DriverID: d.ID, Plate: "P2"}))

	v, err := m.LatestVehicle(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "P2", v.Plate)
}

func TestMemoryDuplicateDriverConflicts(t *testing.T) {
	m := NewMemory()
	seedMemDriver(t, m, "dup@example.com")

	err := m.CreateDriver(context.Background(), &models.Driver{
		ID: uuid.New(), Email: "dup@example.com", NationalID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}
