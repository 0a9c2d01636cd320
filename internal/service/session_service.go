package service

import (
	"context"
	"time"

	"unipark/internal/auth"
	"unipark/internal/db"
	apperr "unipark/internal/errors"
	"unipark/internal/metrics"

	"github.com/rs/zerolog"
)

// SessionService drives the booking state machine. Every transition is a
// single conditional update in the store; when zero rows move, the booking is
// re-read to tell a missing row from an illegal edge.
type SessionService struct {
	bookings BookingStore
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionService(bookings BookingStore, notifier Notifier, log zerolog.Logger) *SessionService {
	return &SessionService{
		bookings: bookings,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Activate moves confirmed -> active, stamping actual_start and computing
// actual_end from the duration or the explicit end instant. There is no
// default session length; the caller must supply one or the other. Only the
// owner or staff may start a session by id.
func (s *SessionService) Activate(ctx context.Context, actor auth.Actor, bookingID int, duration time.Duration, endAt *time.Time) (*db.Booking, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actor.UserID && !actor.IsStaff() {
		return nil, apperr.ErrForbidden
	}
	return s.activate(ctx, bookingID, actor.UserID, duration, endAt)
}

func (s *SessionService) activate(ctx context.Context, bookingID, actorID int, duration time.Duration, endAt *time.Time) (*db.Booking, error) {
	start := s.now().UTC()
	var end time.Time
	switch {
	case endAt != nil:
		end = endAt.UTC()
	case duration > 0:
		end = start.Add(duration)
	default:
		return nil, apperr.NewHTTPError(400, "duration_minutes or end_time required")
	}
	if !end.After(start) {
		return nil, apperr.NewHTTPError(400, "session end must be in the future")
	}

	ok, err := s.bookings.TransitionToActive(ctx, bookingID, start, end, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, bookingID)
	}
	s.log.Info().Int("booking_id", bookingID).Time("actual_end", end).Msg("session activated")
	return s.bookings.GetBookingByID(ctx, bookingID)
}

// CheckIn resolves a QR token and activates the booking it belongs to.
// Possession of the token is the authorization; tokens are unguessable.
func (s *SessionService) CheckIn(ctx context.Context, actor auth.Actor, token string, duration time.Duration, endAt *time.Time) (*db.Booking, error) {
	booking, err := s.bookings.GetBookingByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.activate(ctx, booking.ID, actor.UserID, duration, endAt)
}

// Complete moves active -> completed, stamping the closing timestamp. Only
// the owner or staff may close a session: completion releases the slot claim.
func (s *SessionService) Complete(ctx context.Context, actor auth.Actor, bookingID int) (*db.Booking, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actor.UserID && !actor.IsStaff() {
		return nil, apperr.ErrForbidden
	}
	ok, err := s.bookings.TransitionToCompleted(ctx, bookingID, s.now().UTC(), actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, bookingID)
	}
	s.log.Info().Int("booking_id", bookingID).Msg("session completed")
	return s.bookings.GetBookingByID(ctx, bookingID)
}

// Cancel moves confirmed/active -> cancelled. Only the owner or an admin may
// cancel; the record is kept, freeing the slot through the partial indexes.
func (s *SessionService) Cancel(ctx context.Context, actor auth.Actor, bookingID int) (*db.Booking, error) {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}

	ok, err := s.bookings.TransitionToCancelled(ctx, bookingID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, bookingID)
	}
	s.log.Info().Int("booking_id", bookingID).Int("actor_id", actor.UserID).Msg("booking cancelled")

	booking, err = s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BookingCancelled(booking)
	}
	return booking, nil
}

// AutoCompleteExpired completes active sessions whose actual_end has passed.
// Idempotent: the guard lives in the store's conditional update, so repeated
// or concurrent runs find nothing left to do.
func (s *SessionService) AutoCompleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.bookings.AutoCompleteExpired(ctx, now)
	metrics.SweepRuns.Inc()
	if err != nil {
		return len(ids), err
	}
	if len(ids) > 0 {
		metrics.SweptBookings.Add(float64(len(ids)))
		s.log.Info().Ints("booking_ids", ids).Msg("sweep auto-completed expired sessions")
	}
	return len(ids), nil
}

// transitionFailure distinguishes a vanished booking from an illegal edge
// after a guarded update touched zero rows.
func (s *SessionService) transitionFailure(ctx context.Context, bookingID int) error {
	if _, err := s.bookings.GetBookingByID(ctx, bookingID); err != nil {
		return err
	}
	return apperr.ErrInvalidStateTransition
}
