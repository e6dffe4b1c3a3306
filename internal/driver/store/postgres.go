package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"roadguard/internal/driver/models"
	"roadguard/internal/platform/config"
	"roadguard/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for a violated unique
// constraint. It is the backstop that makes check-then-insert safe under
// concurrent registration.
const uniqueViolation = "23505"

const defaultTxTimeout = 5 * time.Second

// querier is satisfied by *sql.DB and *sql.Tx so the same store code serves
// both autocommit and transactional paths.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the driver registry in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	q      querier
	tables config.Tables
}

// NewPostgres builds a store over the shared connection pool.
func NewPostgres(db *sql.DB, tables config.Tables) *PostgresStore {
	return &PostgresStore{db: db, q: db, tables: tables}
}

// RunInTx runs fn against a transaction-scoped copy of the store. Any error
// from fn or commit rolls the transaction back and releases the connection.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&PostgresStore{db: s.db, q: tx, tables: s.tables}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) DriverExists(ctx context.Context, email, nationalID string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE email = $1 OR national_id = $2 LIMIT 1`, s.tables.Drivers)
	var one int
	err := s.q.QueryRowContext(ctx, query, email, nationalID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check driver exists: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) CreateDriver(ctx context.Context, d *models.Driver) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, full_name, national_id, home_number, father_name, mother_name, email, password_hash, qr_payload, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULL, $9)
	`, s.tables.Drivers)
	_, err := s.q.ExecContext(ctx, query,
		d.ID, d.FullName, d.NationalID, d.HomeNumber, d.FatherName, d.MotherName,
		d.Email, d.PasswordHash, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert driver: %w", mapConstraint(err))
	}
	return nil
}

func (s *PostgresStore) SetDriverQRPayload(ctx context.Context, id uuid.UUID, payload string) error {
	query := fmt.Sprintf(`UPDATE %s SET qr_payload = $1 WHERE id = $2`, s.tables.Drivers)
	res, err := s.q.ExecContext(ctx, query, payload, id)
	if err != nil {
		return fmt.Errorf("update qr payload: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindDriverByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	query := fmt.Sprintf(`
		SELECT id, full_name, national_id, home_number, father_name, mother_name, email, password_hash, qr_payload, created_at
		FROM %s WHERE id = $1
	`, s.tables.Drivers)
	return s.scanDriver(s.q.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindDriverByEmail(ctx context.Context, email string) (*models.Driver, error) {
	query := fmt.Sprintf(`
		SELECT id, full_name, national_id, home_number, father_name, mother_name, email, password_hash, qr_payload, created_at
		FROM %s WHERE email = $1
	`, s.tables.Drivers)
	return s.scanDriver(s.q.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) scanDriver(row *sql.Row) (*models.Driver, error) {
	var d models.Driver
	var home, father, mother, qr sql.NullString
	err := row.Scan(&d.ID, &d.FullName, &d.NationalID, &home, &father, &mother,
		&d.Email, &d.PasswordHash, &qr, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan driver: %w", err)
	}
	d.HomeNumber = home.String
	d.FatherName = father.String
	d.MotherName = mother.String
	d.QRPayload = qr.String
	return &d, nil
}

func (s *PostgresStore) UpdateDriverPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1 WHERE id = $2`, s.tables.Drivers)
	res, err := s.q.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddEmergencyContact(ctx context.Context, c *models.EmergencyContact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, driver_id, name, phone, priority)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
	`, s.tables.Contacts)
	_, err := s.q.ExecContext(ctx, query, c.ID, c.DriverID, c.Name, c.Phone, c.Priority)
	if err != nil {
		return fmt.Errorf("insert emergency contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) TopEmergencyContact(ctx context.Context, driverID uuid.UUID) (*models.EmergencyContact, error) {
	query := fmt.Sprintf(`
		SELECT id, driver_id, COALESCE(name, ''), COALESCE(phone, ''), priority
		FROM %s WHERE driver_id = $1
		ORDER BY priority ASC, seq ASC
		LIMIT 1
	`, s.tables.Contacts)
	var c models.EmergencyContact
	err := s.q.QueryRowContext(ctx, query, driverID).
		Scan(&c.ID, &c.DriverID, &c.Name, &c.Phone, &c.Priority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query top emergency contact: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, driver_id, plate, make, model, year, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, 0), $7)
	`, s.tables.Vehicles)
	_, err := s.q.ExecContext(ctx, query, v.ID, v.DriverID, v.Plate, v.Make, v.Model, v.Year, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestVehicle(ctx context.Context, driverID uuid.UUID) (*models.Vehicle, error) {
	query := fmt.Sprintf(`
		SELECT id, driver_id, COALESCE(plate, ''), COALESCE(make, ''), COALESCE(model, ''), COALESCE(year, 0), created_at
		FROM %s WHERE driver_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, s.tables.Vehicles)
	var v models.Vehicle
	err := s.q.QueryRowContext(ctx, query, driverID).
		Scan(&v.ID, &v.DriverID, &v.Plate, &v.Make, &v.Model, &v.Year, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query latest vehicle: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET plate = NULLIF($1, ''), make = NULLIF($2, ''), model = NULLIF($3, ''), year = NULLIF($4, 0)
		WHERE id = $5
	`, s.tables.Vehicles)
	res, err := s.q.ExecContext(ctx, query, v.Plate, v.Make, v.Model, v.Year, v.ID)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateIncident(ctx context.Context, i *models.Incident) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, driver_id, type, description, location, reporter_name, reporter_phone, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
	`, s.tables.Incidents)
	_, err := s.q.ExecContext(ctx, query,
		i.ID, i.DriverID, i.Type, i.Description, i.Location, i.ReporterName, i.ReporterPhone, i.Status, i.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", mapForeignKey(err))
	}
	return nil
}

func (s *PostgresStore) AppendScan(ctx context.Context, ev *models.ScanEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, driver_id, user_agent, browser, os, ip, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
	`, s.tables.Scans)
	_, err := s.q.ExecContext(ctx, query,
		ev.ID, ev.DriverID, ev.UserAgent, ev.Browser, ev.OS, ev.IP, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert scan event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDrivers(ctx context.Context, filter models.DriverFilter) (*models.DriverPage, error) {
	filter.Clamp()

	where := ""
	args := []any{}
	add := func(clause string, vals ...any) {
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, vals...)
	}

	n := 0
	next := func() string { n++; return fmt.Sprintf("$%d", n) }

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		p := next()
		add(fmt.Sprintf(`(m.full_name ILIKE %[1]s OR m.email ILIKE %[1]s OR m.national_id ILIKE %[1]s OR v.model ILIKE %[1]s OR v.plate ILIKE %[1]s)`, p), like)
	}
	if filter.Make != "" {
		add(fmt.Sprintf("v.make = %s", next()), filter.Make)
	}
	if filter.DateFrom != "" {
		add(fmt.Sprintf("m.created_at::date >= %s::date", next()), filter.DateFrom)
	}
	if filter.DateTo != "" {
		add(fmt.Sprintf("m.created_at::date <= %s::date", next()), filter.DateTo)
	}

	// Latest vehicle per driver by insertion order.
	latest := fmt.Sprintf(`
		SELECT DISTINCT ON (driver_id) driver_id, plate, make, model, year
		FROM %s ORDER BY driver_id, seq DESC
	`, s.tables.Vehicles)

	base := fmt.Sprintf(`
		FROM %s m
		LEFT JOIN (%s) v ON v.driver_id = m.id
		%s
	`, s.tables.Drivers, latest, where)

	var total int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count drivers: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.full_name, m.national_id, m.email, m.created_at,
		       COALESCE(v.make, ''), COALESCE(v.model, ''), COALESCE(v.year, 0), COALESCE(v.plate, '')
		%s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT %s OFFSET %s
	`, base, next(), next())
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	page := &models.DriverPage{
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Drivers:  []models.AdminDriverRow{},
	}
	for rows.Next() {
		var r models.AdminDriverRow
		if err := rows.Scan(&r.ID, &r.FullName, &r.NationalID, &r.Email, &r.CreatedAt,
			&r.Make, &r.Model, &r.Year, &r.Plate); err != nil {
			return nil, fmt.Errorf("scan driver row: %w", err)
		}
		page.Drivers = append(page.Drivers, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drivers: %w", err)
	}
	return page, nil
}

func (s *PostgresStore) ListIncidents(ctx context.Context, limit int) ([]models.AdminIncidentRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	query := fmt.Sprintf(`
		SELECT i.id, m.full_name, i.type, COALESCE(i.description, ''), COALESCE(i.location, ''), i.status, i.created_at
		FROM %s i
		JOIN %s m ON m.id = i.driver_id
		ORDER BY i.created_at DESC
		LIMIT $1
	`, s.tables.Incidents, s.tables.Drivers)
	rows, err := s.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	out := []models.AdminIncidentRow{}
	for rows.Next() {
		var r models.AdminIncidentRow
		if err := rows.Scan(&r.ID, &r.DriverName, &r.Type, &r.Description, &r.Location, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

// mapConstraint turns a unique-violation into the conflict sentinel so the
// losing side of a concurrent registration surfaces the same outcome as the
// pre-check.
func mapConstraint(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}

// mapForeignKey turns a missing-driver FK violation into the not-found
// sentinel.
func mapForeignKey(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return sentinel.ErrNotFound
	}
	return err
}
