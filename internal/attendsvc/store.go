// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package attendsvc implements the attendance service: event CRUD, per-user
// availability, admin check-in, and the attendance matrix dashboard.
package attendsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/podium/internal/database/query"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
)

// Store runs the attendance service's queries. It reads admin_users
// directly, so it also satisfies auth.AdminChecker.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps the connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database reachability for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const eventColumns = `id, title, description, event_type, event_date, location,
	created_by, is_locked, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &e.EventDate,
		&e.Location, &e.CreatedBy, &e.IsLocked, &e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEventParams carries the fields for a new event.
type CreateEventParams struct {
	Title       string
	Description *string
	EventType   models.EventType
	EventDate   time.Time
	Location    *string
	CreatedBy   uuid.UUID
}

// CreateEvent inserts an unlocked event.
func (s *Store) CreateEvent(ctx context.Context, p CreateEventParams) (*models.Event, error) {
	start := time.Now()
	e, err := scanEvent(s.pool.QueryRow(ctx, `
		INSERT INTO events (title, description, event_type, event_date, location, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventColumns,
		p.Title, p.Description, p.EventType, p.EventDate, p.Location, p.CreatedBy))
	metrics.RecordDBQuery("insert", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return e, nil
}

// GetEvent returns the event or nil when absent.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	start := time.Now()
	e, err := scanEvent(s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("finding event: %w", err)
	}
	return e, nil
}

// EventFilter narrows ListEvents. Nil fields match everything; ToDate
// is inclusive of the whole named day.
type EventFilter struct {
	EventType    *models.EventType
	UpcomingOnly bool
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}

// ListEvents returns a page of events with the total count. Upcoming-only
// listings sort soonest first; full listings newest first.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, int64, error) {
	wb := query.NewWhereBuilder()
	if f.EventType != nil {
		wb.Add("event_type = ?", *f.EventType)
	}
	if f.FromDate != nil {
		wb.Add("event_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		wb.Add("event_date < ?", f.ToDate.Add(24*time.Hour))
	}
	order := "event_date DESC"
	if f.UpcomingOnly {
		wb.Add("event_date >= ?", time.Now())
		order = "event_date ASC"
	}
	where, args := wb.Build()

	start := time.Now()
	var total int64
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM events %s`, where), args...).Scan(&total)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}

	listQuery, args := query.Paginate(
		fmt.Sprintf(`SELECT %s FROM events %s ORDER BY %s`, eventColumns, where, order),
		args, f.Limit, f.Offset)

	start = time.Now()
	rows, err := s.pool.Query(ctx, listQuery, args...)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0, f.Limit)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &e.EventDate,
			&e.Location, &e.CreatedBy, &e.IsLocked, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading events: %w", err)
	}
	return events, total, nil
}

// UpdateEventParams carries optional field updates; nil leaves the column
// unchanged.
type UpdateEventParams struct {
	Title       *string
	Description *string
	EventType   *models.EventType
	EventDate   *time.Time
	Location    *string
}

// UpdateEvent patches the event and returns the new row, or nil when the
// event does not exist.
func (s *Store) UpdateEvent(ctx context.Context, id uuid.UUID, p UpdateEventParams) (*models.Event, error) {
	start := time.Now()
	e, err := scanEvent(s.pool.QueryRow(ctx, `
		UPDATE events SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			event_type = COALESCE($3, event_type),
			event_date = COALESCE($4, event_date),
			location = COALESCE($5, location),
			updated_at = NOW()
		WHERE id = $6
		RETURNING `+eventColumns,
		p.Title, p.Description, p.EventType, p.EventDate, p.Location, id))
	metrics.RecordDBQuery("update", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	return e, nil
}

// DeleteEvent removes the event. Returns false when it did not exist.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	metrics.RecordDBQuery("delete", "events", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("deleting event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LockEvent sets the lock flag and returns the new row, or nil when absent.
func (s *Store) LockEvent(ctx context.Context, id uuid.UUID, locked bool) (*models.Event, error) {
	start := time.Now()
	e, err := scanEvent(s.pool.QueryRow(ctx, `
		UPDATE events SET is_locked = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+eventColumns,
		locked, id))
	metrics.RecordDBQuery("update", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("locking event: %w", err)
	}
	return e, nil
}

const attendanceColumns = `id, event_id, user_id, is_available, is_checked_in,
	checked_in_by, checked_in_at, availability_set_at, created_at, updated_at`

func scanAttendance(row pgx.Row) (*models.AttendanceRecord, error) {
	var a models.AttendanceRecord
	err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.IsAvailable, &a.IsCheckedIn,
		&a.CheckedInBy, &a.CheckedInAt, &a.AvailabilitySetAt, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttendanceRecord returns one user's record for an event, or nil.
func (s *Store) GetAttendanceRecord(ctx context.Context, eventID, userID uuid.UUID) (*models.AttendanceRecord, error) {
	start := time.Now()
	a, err := scanAttendance(s.pool.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = $1 AND user_id = $2`,
		eventID, userID))
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("finding attendance record: %w", err)
	}
	return a, nil
}

// SetAvailability upserts the user's availability for an event.
func (s *Store) SetAvailability(ctx context.Context, eventID, userID uuid.UUID, available bool) (*models.AttendanceRecord, error) {
	start := time.Now()
	a, err := scanAttendance(s.pool.QueryRow(ctx, `
		INSERT INTO attendance (event_id, user_id, is_available)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET is_available = EXCLUDED.is_available,
		    availability_set_at = NOW(), updated_at = NOW()
		RETURNING `+attendanceColumns,
		eventID, userID, available))
	metrics.RecordDBQuery("upsert", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("setting availability: %w", err)
	}
	return a, nil
}

// CheckInUser upserts the user's check-in state. An insert implies the user
// was available; clearing a check-in nulls the audit columns.
func (s *Store) CheckInUser(ctx context.Context, eventID, userID uuid.UUID, checkedIn bool, checkedInBy uuid.UUID) (*models.AttendanceRecord, error) {
	var by *uuid.UUID
	var at *time.Time
	if checkedIn {
		by = &checkedInBy
		now := time.Now()
		at = &now
	}

	start := time.Now()
	a, err := scanAttendance(s.pool.QueryRow(ctx, `
		INSERT INTO attendance (event_id, user_id, is_available, is_checked_in, checked_in_by, checked_in_at)
		VALUES ($1, $2, TRUE, $3, $4, $5)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET is_checked_in = EXCLUDED.is_checked_in,
		    checked_in_by = EXCLUDED.checked_in_by,
		    checked_in_at = EXCLUDED.checked_in_at,
		    updated_at = NOW()
		RETURNING `+attendanceColumns,
		eventID, userID, checkedIn, by, at))
	metrics.RecordDBQuery("upsert", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("updating check-in: %w", err)
	}
	return a, nil
}

// RevokeAvailability clears a user's availability and check-in. Returns nil
// when no record exists.
func (s *Store) RevokeAvailability(ctx context.Context, eventID, userID uuid.UUID) (*models.AttendanceRecord, error) {
	start := time.Now()
	a, err := scanAttendance(s.pool.QueryRow(ctx, `
		UPDATE attendance
		SET is_available = FALSE, is_checked_in = FALSE,
		    checked_in_by = NULL, checked_in_at = NULL, updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2
		RETURNING `+attendanceColumns,
		eventID, userID))
	metrics.RecordDBQuery("update", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("revoking availability: %w", err)
	}
	return a, nil
}

// AttendanceWithUser is an attendance row joined with the username.
type AttendanceWithUser struct {
	models.AttendanceRecord
	Username string `json:"username"`
}

// EventAttendance returns every record for an event, checked-in first.
func (s *Store) EventAttendance(ctx context.Context, eventID uuid.UUID) ([]AttendanceWithUser, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.event_id, a.user_id, u.username, a.is_available, a.is_checked_in,
		       a.checked_in_by, a.checked_in_at, a.availability_set_at, a.created_at, a.updated_at
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.is_checked_in DESC, a.is_available DESC, a.availability_set_at ASC`,
		eventID)
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("listing event attendance: %w", err)
	}
	defer rows.Close()

	var records []AttendanceWithUser
	for rows.Next() {
		var a AttendanceWithUser
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Username, &a.IsAvailable,
			&a.IsCheckedIn, &a.CheckedInBy, &a.CheckedInAt, &a.AvailabilitySetAt,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning attendance row: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading attendance rows: %w", err)
	}
	return records, nil
}

// AttendanceStats returns the available and checked-in counts for an event.
func (s *Store) AttendanceStats(ctx context.Context, eventID uuid.UUID) (available, checkedIn int64, err error) {
	start := time.Now()
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_available),
		       COUNT(*) FILTER (WHERE is_checked_in)
		FROM attendance WHERE event_id = $1`,
		eventID).Scan(&available, &checkedIn)
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if err != nil {
		return 0, 0, fmt.Errorf("counting attendance: %w", err)
	}
	return available, checkedIn, nil
}

// IsAdmin reports whether the user appears in admin_users.
// Satisfies auth.AdminChecker.
func (s *Store) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	start := time.Now()
	var isAdmin bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`,
		userID).Scan(&isAdmin)
	metrics.RecordDBQuery("select", "admin_users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("checking admin: %w", err)
	}
	return isAdmin, nil
}

// UserRef identifies a user in the matrix.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// MatrixRecord is the minimal attendance tuple the matrix needs.
type MatrixRecord struct {
	EventID     uuid.UUID
	UserID      uuid.UUID
	IsAvailable bool
	IsCheckedIn bool
}

// EventTypeStat aggregates per event type for the dashboard.
type EventTypeStat struct {
	EventType     string  `json:"event_type"`
	Count         int64   `json:"count"`
	AvgAttendance float64 `json:"avg_attendance"`
}

// AllEventsForMatrix returns every event, date ascending.
func (s *Store) AllEventsForMatrix(ctx context.Context) ([]models.Event, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC`)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("listing matrix events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &e.EventDate,
			&e.Location, &e.CreatedBy, &e.IsLocked, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AllUsers returns every user, username ascending.
func (s *Store) AllUsers(ctx context.Context) ([]UserRef, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT id, username FROM users ORDER BY username ASC`)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []UserRef
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AllAttendanceRecords returns every attendance tuple for the matrix.
func (s *Store) AllAttendanceRecords(ctx context.Context) ([]MatrixRecord, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT event_id, user_id, is_available, is_checked_in FROM attendance`)
	metrics.RecordDBQuery("select", "attendance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("listing attendance records: %w", err)
	}
	defer rows.Close()

	var records []MatrixRecord
	for rows.Next() {
		var m MatrixRecord
		if err := rows.Scan(&m.EventID, &m.UserID, &m.IsAvailable, &m.IsCheckedIn); err != nil {
			return nil, fmt.Errorf("scanning attendance tuple: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// EventTypeStats returns event counts and average check-in rate per type.
func (s *Store) EventTypeStats(ctx context.Context) ([]EventTypeStat, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT e.event_type,
		       COUNT(DISTINCT e.id)::BIGINT,
		       COALESCE(AVG(CASE WHEN a.is_checked_in THEN 1.0 ELSE 0.0 END) * 100, 0)::FLOAT8
		FROM events e
		LEFT JOIN attendance a ON a.event_id = e.id
		GROUP BY e.event_type
		ORDER BY COUNT(DISTINCT e.id) DESC`)
	metrics.RecordDBQuery("select", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("aggregating event type stats: %w", err)
	}
	defer rows.Close()

	var stats []EventTypeStat
	for rows.Next() {
		var t EventTypeStat
		if err := rows.Scan(&t.EventType, &t.Count, &t.AvgAttendance); err != nil {
			return nil, fmt.Errorf("scanning event type stat: %w", err)
		}
		stats = append(stats, t)
	}
	return stats, rows.Err()
}
