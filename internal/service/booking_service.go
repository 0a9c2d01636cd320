package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unipark/internal/auth"
	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"
	"unipark/internal/metrics"

	"github.com/rs/zerolog"
)

// BookingService owns reservation creation and the booking ledger views. The
// conflict decision itself lives in the partial unique indexes the store
// insert relies on; this layer checks the policy preconditions and translates
// outcomes.
type BookingService struct {
	bookings BookingStore
	spaces   SpaceStore
	vehicles VehicleStore
	notifier Notifier
	log      zerolog.Logger
}

func NewBookingService(bookings BookingStore, spaces SpaceStore, vehicles VehicleStore, notifier Notifier, log zerolog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		spaces:   spaces,
		vehicles: vehicles,
		notifier: notifier,
		log:      log,
	}
}

// Reserve atomically claims (space, date) and (owner, date) for the actor.
// Exactly one of two concurrent calls for the same slot succeeds; the loser
// gets ErrSpaceAlreadyBooked without any check-then-insert window.
func (s *BookingService) Reserve(ctx context.Context, actor auth.Actor, req entities.BookingRequest) (*db.Booking, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.NewHTTPError(400, "end_time must be after start_time")
	}

	space, err := s.spaces.GetSpace(ctx, req.SpaceID)
	if err != nil {
		return nil, err
	}
	if !space.Bookable {
		return nil, apperr.ErrSpaceNotBookable
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != actor.UserID {
		return nil, apperr.ErrForbidden
	}
	if vehicle.Status != db.VehicleApproved {
		return nil, apperr.ErrVehicleNotApproved
	}

	booking, err := s.insertWithRetry(ctx, actor, space, vehicle, date, req)
	if err != nil {
		if apperr.IsConflict(err) {
			kind := "space"
			if errors.Is(err, apperr.ErrOwnerAlreadyBooked) {
				kind = "owner"
			}
			metrics.BookingConflicts.WithLabelValues(kind).Inc()
		}
		return nil, err
	}

	metrics.BookingsReserved.Inc()
	s.log.Info().
		Int("booking_id", booking.ID).
		Int("space_id", booking.SpaceID).
		Int("owner_id", booking.OwnerID).
		Str("date", req.Date).
		Msg("booking reserved")

	if s.notifier != nil {
		s.notifier.BookingConfirmed(booking)
	}
	return booking, nil
}

// insertWithRetry retries exactly once on transient datastore failures
// (deadlock, serialization, the never-in-practice token collision), minting a
// fresh token for the second attempt.
func (s *BookingService) insertWithRetry(ctx context.Context, actor auth.Actor, space *db.Space, vehicle *db.Vehicle, date time.Time, req entities.BookingRequest) (*db.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		token, err := mintToken()
		if err != nil {
			return nil, err
		}
		booking := &db.Booking{
			SpaceID:     space.ID,
			VehicleID:   vehicle.ID,
			OwnerID:     vehicle.OwnerID,
			BookingDate: date,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Status:      db.BookingConfirmed,
			Token:       token,
		}
		err = s.bookings.CreateBooking(ctx, booking, actor.UserID)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, apperr.ErrTransient) {
			return nil, err
		}
		lastErr = err
		s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("transient failure reserving booking, retrying")
	}
	return nil, lastErr
}

// Reschedule moves a confirmed booking to a new window. The update re-runs
// the conflict guard: shifting the date can lose to another live booking.
func (s *BookingService) Reschedule(ctx context.Context, actor auth.Actor, bookingID int, req entities.RescheduleRequest) (*db.Booking, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.NewHTTPError(400, "end_time must be after start_time")
	}

	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if booking.Status != db.BookingConfirmed {
		return nil, apperr.ErrInvalidStateTransition
	}

	ok, err := s.bookings.UpdateWindow(ctx, bookingID, date, req.StartTime, req.EndTime, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with activate/cancel between the read and the update.
		return nil, apperr.ErrInvalidStateTransition
	}
	return s.bookings.GetBookingByID(ctx, bookingID)
}

func (s *BookingService) ListOwn(ctx context.Context, actor auth.Actor) ([]db.Booking, error) {
	return s.bookings.ListBookingsByOwner(ctx, actor.UserID)
}

func (s *BookingService) AdminList(ctx context.Context, date string, areaID int, status string) ([]db.Booking, error) {
	if status != "" {
		if _, err := db.ParseBookingStatus(status); err != nil {
			return nil, apperr.NewHTTPError(400, err.Error())
		}
	}
	if date != "" {
		if _, err := parseDate(date); err != nil {
			return nil, err
		}
	}
	return s.bookings.ListBookings(ctx, date, areaID, status)
}

// ResolveToken is the one-way token lookup used by the check-in scanner.
func (s *BookingService) ResolveToken(ctx context.Context, token string) (*db.Booking, error) {
	return s.bookings.GetBookingByToken(ctx, token)
}

// Purge hard-deletes a booking row. Administrative only; the normal cancel
// path retains its record.
func (s *BookingService) Purge(ctx context.Context, actor auth.Actor, bookingID int) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden
	}
	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}
	s.log.Info().Int("booking_id", bookingID).Int("admin_id", actor.UserID).Msg("booking purged")
	return nil
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperr.NewHTTPError(400, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw))
	}
	return date, nil
}
