package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"unipark/internal/db"
	apperr "unipark/internal/errors"

	"github.com/lib/pq"
)

// Constraint names from migrations/001_init.sql. The insert leans on the two
// partial unique indexes instead of a check-then-insert, so a violation is
// the normal way a losing concurrent reservation learns it lost.
const (
	constraintSpaceDate = "bookings_space_date_live_idx"
	constraintOwnerDate = "bookings_owner_date_live_idx"
	constraintToken     = "bookings_token_key"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `id, space_id, vehicle_id, owner_id, booking_date, start_time, end_time, status, actual_start, actual_end, token, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.SpaceID, &b.VehicleID, &b.OwnerID, &b.BookingDate,
		&b.StartTime, &b.EndTime, &b.Status, &b.ActualStart, &b.ActualEnd,
		&b.Token, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking inserts a confirmed booking and its audit event in one
// transaction. Unique-index violations come back as the typed conflicts.
func (r *BookingRepository) CreateBooking(ctx context.Context, b *db.Booking, actorID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings
			(space_id, vehicle_id, owner_id, booking_date, start_time, end_time, status, token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		b.SpaceID, b.VehicleID, b.OwnerID, b.BookingDate, b.StartTime, b.EndTime, b.Status, b.Token,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapInsertError(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_events (booking_id, event, actor_id) VALUES ($1, $2, $3)`,
		b.ID, "reserved", actorID,
	)
	if err != nil {
		return fmt.Errorf("error recording booking event: %w", err)
	}
	return tx.Commit()
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id int) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying booking %d: %w", id, err)
	}
	return b, nil
}

// GetBookingByToken resolves a check-in token. Tokens are opaque; the lookup
// is the only way in.
func (r *BookingRepository) GetBookingByToken(ctx context.Context, token string) (*db.Booking, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE token = $1`, token)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("error resolving booking token: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) ListBookingsByOwner(ctx context.Context, ownerID int) ([]db.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE owner_id = $1 ORDER BY booking_date DESC, start_time DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for owner %d: %w", ownerID, err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBookings is the admin view with optional date / area / status filters.
func (r *BookingRepository) ListBookings(ctx context.Context, date string, areaID int, status string) ([]db.Booking, error) {
	query := `SELECT b.id, b.space_id, b.vehicle_id, b.owner_id, b.booking_date, b.start_time, b.end_time, b.status, b.actual_start, b.actual_end, b.token, b.created_at, b.updated_at
		FROM bookings b
		JOIN spaces s ON s.id = b.space_id
		WHERE 1=1`
	args := []interface{}{}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND b.booking_date = $%d", len(args))
	}
	if areaID != 0 {
		args = append(args, areaID)
		query += fmt.Sprintf(" AND s.area_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	query += " ORDER BY b.booking_date DESC, b.start_time DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateWindow reschedules a confirmed booking. Moving the date can collide
// with the partial unique indexes just like a fresh reserve, so violations
// map the same way.
func (r *BookingRepository) UpdateWindow(ctx context.Context, id int, date, start, end time.Time, actorID int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET booking_date = $2, start_time = $3, end_time = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'`,
		id, date, start, end)
	if err != nil {
		return false, mapInsertError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking reschedule result: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_events (booking_id, event, actor_id) VALUES ($1, $2, $3)`,
		id, "rescheduled", actorID)
	if err != nil {
		return false, fmt.Errorf("error recording booking event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reschedule tx: %w", err)
	}
	return true, nil
}

// TransitionToActive guards the confirmed->active edge in the WHERE clause so
// a concurrent cancel or duplicate activate observes zero rows, not drift.
func (r *BookingRepository) TransitionToActive(ctx context.Context, id int, start, end time.Time, actorID int) (bool, error) {
	return r.transition(ctx, `
		UPDATE bookings
		SET status = 'active', actual_start = $2, actual_end = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'`,
		[]interface{}{id, start, end}, id, "activated", actorID)
}

func (r *BookingRepository) TransitionToCompleted(ctx context.Context, id int, end time.Time, actorID int) (bool, error) {
	return r.transition(ctx, `
		UPDATE bookings
		SET status = 'completed', actual_end = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'`,
		[]interface{}{id, end}, id, "completed", actorID)
}

func (r *BookingRepository) TransitionToCancelled(ctx context.Context, id int, actorID int) (bool, error) {
	return r.transition(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('confirmed', 'active')`,
		[]interface{}{id}, id, "cancelled", actorID)
}

func (r *BookingRepository) transition(ctx context.Context, query string, args []interface{}, id int, event string, actorID int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error updating booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking transition result: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_events (booking_id, event, actor_id) VALUES ($1, $2, $3)`,
		id, event, actorID)
	if err != nil {
		return false, fmt.Errorf("error recording booking event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transition tx: %w", err)
	}
	return true, nil
}

// AutoCompleteExpired is the sweep. One conditional statement keeps it
// idempotent and safe against a concurrent cancel; bookings without an
// actual_end are never touched.
func (r *BookingRepository) AutoCompleteExpired(ctx context.Context, now time.Time) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'active' AND actual_end IS NOT NULL AND actual_end < $1
		RETURNING id`, now)
	if err != nil {
		return nil, fmt.Errorf("error auto-completing expired bookings: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning swept booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating swept rows: %w", err)
	}

	if len(ids) > 0 {
		_, err = r.DB.ExecContext(ctx,
			`INSERT INTO booking_events (booking_id, event) SELECT unnest($1::int[]), 'auto_completed'`,
			pq.Array(ids))
		if err != nil {
			return ids, fmt.Errorf("error recording sweep events: %w", err)
		}
	}
	return ids, nil
}

// DeleteBooking is the rare administrative purge. Cancellation never calls
// this; cancelled rows are retained.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete result: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// mapInsertError turns driver errors into the typed domain failures. Unique
// violations are matched by constraint name; deadlocks and serialization
// failures are marked transient so the service layer retries once.
func mapInsertError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("error persisting booking: %w", err)
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		switch pqErr.Constraint {
		case constraintSpaceDate:
			return apperr.ErrSpaceAlreadyBooked
		case constraintOwnerDate:
			return apperr.ErrOwnerAlreadyBooked
		case constraintToken:
			// Practically unreachable at 256 bits; treat as transient so the
			// caller re-mints and retries.
			return fmt.Errorf("token collision: %w", apperr.ErrTransient)
		}
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return fmt.Errorf("%v: %w", pqErr.Message, apperr.ErrTransient)
	}
	return fmt.Errorf("error persisting booking: %w", err)
}

func collectBookings(rows *sql.Rows) ([]db.Booking, error) {
	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return bookings, nil
}
