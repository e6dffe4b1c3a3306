package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"roadguard/internal/driver/models"
	"roadguard/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for unit tests and local development.
// RunInTx applies fn to a copy of the state and swaps it in on success, so a
// failed workflow leaves no partial writes behind.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState

	// ScanErr, when set, fails AppendScan; used to exercise best-effort
	// logging contracts.
	ScanErr error
}

type seqRecord[T any] struct {
	seq int64
	val T
}

type memoryState struct {
	drivers   map[uuid.UUID]models.Driver
	contacts  []seqRecord[models.EmergencyContact]
	vehicles  []seqRecord[models.Vehicle]
	incidents []seqRecord[models.Incident]
	scans     []seqRecord[models.ScanEvent]
	nextSeq   int64
}

func newMemoryState() *memoryState {
	return &memoryState{drivers: map[uuid.UUID]models.Driver{}, nextSeq: 1}
}

func (st *memoryState) clone() *memoryState {
	cp := &memoryState{
		drivers:   make(map[uuid.UUID]models.Driver, len(st.drivers)),
		contacts:  append([]seqRecord[models.EmergencyContact]{}, st.contacts...),
		vehicles:  append([]seqRecord[models.Vehicle]{}, st.vehicles...),
		incidents: append([]seqRecord[models.Incident]{}, st.incidents...),
		scans:     append([]seqRecord[models.ScanEvent]{}, st.scans...),
		nextSeq:   st.nextSeq,
	}
	for k, v := range st.drivers {
		cp.drivers[k] = v
	}
	return cp
}

func NewMemory() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// RunInTx snapshots the state, applies fn, and commits the snapshot only when
// fn succeeds.
func (m *MemoryStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &MemoryStore{state: m.state.clone(), ScanErr: m.ScanErr}
	if err := fn(staged); err != nil {
		return err
	}
	m.state = staged.state
	return nil
}

func (m *MemoryStore) DriverExists(_ context.Context, email, nationalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.state.drivers {
		if d.Email == email || d.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateDriver(_ context.Context, d *models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.state.drivers {
		if existing.Email == d.Email || existing.NationalID == d.NationalID {
			return sentinel.ErrConflict
		}
	}
	m.state.drivers[d.ID] = *d
	return nil
}

func (m *MemoryStore) SetDriverQRPayload(_ context.Context, id uuid.UUID, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.drivers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.QRPayload = payload
	m.state.drivers[id] = d
	return nil
}

func (m *MemoryStore) FindDriverByID(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.drivers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := d
	return &out, nil
}

func (m *MemoryStore) FindDriverByEmail(_ context.Context, email string) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.state.drivers {
		if d.Email == email {
			out := d
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *MemoryStore) UpdateDriverPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.drivers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.PasswordHash = hash
	m.state.drivers[id] = d
	return nil
}

func (m *MemoryStore) AddEmergencyContact(_ context.Context, c *models.EmergencyContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.contacts = append(m.state.contacts, seqRecord[models.EmergencyContact]{seq: m.seq(), val: *c})
	return nil
}

func (m *MemoryStore) TopEmergencyContact(_ context.Context, driverID uuid.UUID) (*models.EmergencyContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *seqRecord[models.EmergencyContact]
	for i := range m.state.contacts {
		rec := &m.state.contacts[i]
		if rec.val.DriverID != driverID {
			continue
		}
		if best == nil ||
			rec.val.Priority < best.val.Priority ||
			(rec.val.Priority == best.val.Priority && rec.seq < best.seq) {
			best = rec
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	out := best.val
	return &out, nil
}

func (m *MemoryStore) CreateVehicle(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.vehicles = append(m.state.vehicles, seqRecord[models.Vehicle]{seq: m.seq(), val: *v})
	return nil
}

func (m *MemoryStore) LatestVehicle(_ context.Context, driverID uuid.UUID) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *seqRecord[models.Vehicle]
	for i := range m.state.vehicles {
		rec := &m.state.vehicles[i]
		if rec.val.DriverID != driverID {
			continue
		}
		if latest == nil || rec.seq > latest.seq {
			latest = rec
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	out := latest.val
	return &out, nil
}

func (m *MemoryStore) UpdateVehicle(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.vehicles {
		if m.state.vehicles[i].val.ID == v.ID {
			updated := m.state.vehicles[i].val
			updated.Plate = v.Plate
			updated.Make = v.Make
			updated.Model = v.Model
			updated.Year = v.Year
			m.state.vehicles[i].val = updated
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (m *MemoryStore) CreateIncident(_ context.Context, i *models.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.drivers[i.DriverID]; !ok {
		return sentinel.ErrNotFound
	}
	m.state.incidents = append(m.state.incidents, seqRecord[models.Incident]{seq: m.seq(), val: *i})
	return nil
}

func (m *MemoryStore) AppendScan(_ context.Context, ev *models.ScanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScanErr != nil {
		return m.ScanErr
	}
	m.state.scans = append(m.state.scans, seqRecord[models.ScanEvent]{seq: m.seq(), val: *ev})
	return nil
}

func (m *MemoryStore) ListDrivers(_ context.Context, filter models.DriverFilter) (*models.DriverPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter.Clamp()

	rows := []models.AdminDriverRow{}
	for id, d := range m.state.drivers {
		var veh *models.Vehicle
		var maxSeq int64 = -1
		for i := range m.state.vehicles {
			rec := &m.state.vehicles[i]
			if rec.val.DriverID == id && rec.seq > maxSeq {
				maxSeq = rec.seq
				v := rec.val
				veh = &v
			}
		}
		row := models.AdminDriverRow{
			ID:         d.ID.String(),
			FullName:   d.FullName,
			NationalID: d.NationalID,
			Email:      d.Email,
			CreatedAt:  d.CreatedAt,
		}
		if veh != nil {
			row.Make, row.Model, row.Year, row.Plate = veh.Make, veh.Model, veh.Year, veh.Plate
		}
		if !matchesFilter(row, filter) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	total := len(rows)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return &models.DriverPage{
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Drivers:  rows[start:end],
	}, nil
}

func (m *MemoryStore) ListIncidents(_ context.Context, limit int) ([]models.AdminIncidentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	out := []models.AdminIncidentRow{}
	for i := len(m.state.incidents) - 1; i >= 0 && len(out) < limit; i-- {
		inc := m.state.incidents[i].val
		name := ""
		if d, ok := m.state.drivers[inc.DriverID]; ok {
			name = d.FullName
		}
		out = append(out, models.AdminIncidentRow{
			ID:          inc.ID.String(),
			DriverName:  name,
			Type:        inc.Type,
			Description: inc.Description,
			Location:    inc.Location,
			Status:      inc.Status,
			CreatedAt:   inc.CreatedAt,
		})
	}
	return out, nil
}

// ScanCount reports how many scan events were recorded; test helper.
func (m *MemoryStore) ScanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.scans)
}

// DriverCount reports how many drivers exist; test helper.
func (m *MemoryStore) DriverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.drivers)
}

// VehicleCount reports how many vehicle rows exist for a driver; test helper.
func (m *MemoryStore) VehicleCount(driverID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.state.vehicles {
		if rec.val.DriverID == driverID {
			n++
		}
	}
	return n
}

// ContactsFor returns the stored contacts for a driver ordered by priority;
// test helper.
func (m *MemoryStore) ContactsFor(driverID uuid.UUID) []models.EmergencyContact {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.EmergencyContact{}
	for _, rec := range m.state.contacts {
		if rec.val.DriverID == driverID {
			out = append(out, rec.val)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func (m *MemoryStore) seq() int64 {
	s := m.state.nextSeq
	m.state.nextSeq++
	return s
}

func matchesFilter(row models.AdminDriverRow, f models.DriverFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(row.FullName), q) &&
			!strings.Contains(strings.ToLower(row.Email), q) &&
			!strings.Contains(strings.ToLower(row.NationalID), q) &&
			!strings.Contains(strings.ToLower(row.Model), q) &&
			!strings.Contains(strings.ToLower(row.Plate), q) {
			return false
		}
	}
	if f.Make != "" && row.Make != f.Make {
		return false
	}
	if f.DateFrom != "" && row.CreatedAt.Format("2006-01-02") < f.DateFrom {
		return false
	}
	if f.DateTo != "" && row.CreatedAt.Format("2006-01-02") > f.DateTo {
		return false
	}
	return true
}
