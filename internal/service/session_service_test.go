package service

import (
	"context"
	"io"
	"testing"
	"time"

	"unipark/internal/auth"
	"unipark/internal/db"
	apperr "unipark/internal/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func student(id int) auth.Actor {
	return auth.Actor{UserID: id, Role: db.RoleStudent}
}

func testSessionService(store BookingStore, at time.Time) (*SessionService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	svc := NewSessionService(store, notifier, zerolog.New(io.Discard))
	svc.now = func() time.Time { return at }
	return svc, notifier
}

func seedConfirmed(t *testing.T, store *fakeBookingStore, ownerID, spaceID int, date string) *db.Booking {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	b := &db.Booking{
		SpaceID:     spaceID,
		VehicleID:   1,
		OwnerID:     ownerID,
		BookingDate: day,
		StartTime:   day.Add(9 * time.Hour),
		EndTime:     day.Add(11 * time.Hour),
		Status:      db.BookingConfirmed,
		Token:       mustToken(t),
	}
	require.NoError(t, store.CreateBooking(context.Background(), b, ownerID))
	return b
}

func mustToken(t *testing.T) string {
	t.Helper()
	token, err := mintToken()
	require.NoError(t, err)
	return token
}

func TestActivateWithDuration(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	booking := seedConfirmed(t, store, 1, 101, testDate)

	active, err := svc.Activate(ctx, student(1), booking.ID, 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, db.BookingActive, active.Status)
	require.True(t, active.ActualStart.Valid)
	require.True(t, active.ActualEnd.Valid)
	assert.Equal(t, at, active.ActualStart.Time)
	assert.Equal(t, at.Add(30*time.Minute), active.ActualEnd.Time)

	// Activating twice is an illegal edge, not a silent success.
	_, err = svc.Activate(ctx, student(1), booking.ID, 30*time.Minute, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
}

func TestActivateWithExplicitEnd(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)

	booking := seedConfirmed(t, store, 1, 101, testDate)
	end := at.Add(2 * time.Hour)

	active, err := svc.Activate(context.Background(), student(1), booking.ID, 0, &end)
	require.NoError(t, err)
	assert.Equal(t, end, active.ActualEnd.Time)
}

func TestActivateValidation(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	booking := seedConfirmed(t, store, 1, 101, testDate)

	t.Run("NoSessionLength", func(t *testing.T) {
		_, err := svc.Activate(ctx, student(1), booking.ID, 0, nil)
		require.Error(t, err)
		assert.Equal(t, 400, apperr.StatusCode(err))
	})

	t.Run("EndInThePast", func(t *testing.T) {
		past := at.Add(-time.Hour)
		_, err := svc.Activate(ctx, student(1), booking.ID, 0, &past)
		require.Error(t, err)
		assert.Equal(t, 400, apperr.StatusCode(err))
	})

	t.Run("MissingBooking", func(t *testing.T) {
		_, err := svc.Activate(ctx, student(1), 9999, time.Hour, nil)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestCheckInByToken(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	booking := seedConfirmed(t, store, 1, 101, testDate)

	active, err := svc.CheckIn(ctx, student(1), booking.Token, time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, active.ID)
	assert.Equal(t, db.BookingActive, active.Status)

	_, err = svc.CheckIn(ctx, student(1), "deadbeef", time.Hour, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// Terminal states reject every outgoing edge.
func TestTransitionLegality(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	t.Run("CompleteNeedsActive", func(t *testing.T) {
		booking := seedConfirmed(t, store, 1, 101, testDate)
		_, err := svc.Complete(ctx, student(1), booking.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	})

	t.Run("CancelledStaysCancelled", func(t *testing.T) {
		booking := seedConfirmed(t, store, 2, 102, testDate)
		_, err := svc.Cancel(ctx, student(2), booking.ID)
		require.NoError(t, err)

		_, err = svc.Activate(ctx, student(2), booking.ID, time.Hour, nil)
		assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
		_, err = svc.Cancel(ctx, student(2), booking.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	})

	t.Run("CompletedStaysCompleted", func(t *testing.T) {
		booking := seedConfirmed(t, store, 3, 103, testDate)
		_, err := svc.Activate(ctx, student(3), booking.ID, time.Hour, nil)
		require.NoError(t, err)
		_, err = svc.Complete(ctx, student(3), booking.ID)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, student(3), booking.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	})
}

// A stranger must not be able to walk someone else's booking through the
// state machine by id: completion releases the slot claim.
func TestSessionOwnership(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	booking := seedConfirmed(t, store, 1, 101, testDate)

	_, err := svc.Activate(ctx, student(99), booking.ID, time.Hour, nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := store.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingConfirmed, got.Status)

	_, err = svc.Activate(ctx, student(1), booking.ID, time.Hour, nil)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, student(99), booking.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err = store.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingActive, got.Status)

	// Staff close out sessions at the gate.
	closed, err := svc.Complete(ctx, auth.Actor{UserID: 50, Role: db.RoleStaff}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingCompleted, closed.Status)
}

func TestCancelPermissions(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, notifier := testSessionService(store, at)
	ctx := context.Background()

	booking := seedConfirmed(t, store, 1, 101, testDate)

	_, err := svc.Cancel(ctx, auth.Actor{UserID: 2, Role: db.RoleStudent}, booking.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	cancelled, err := svc.Cancel(ctx, auth.Actor{UserID: 99, Role: db.RoleAdmin}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingCancelled, cancelled.Status)
	assert.Equal(t, 1, notifier.cancelled)
}

// Cancelling frees the slot for another owner on the same date.
func TestCancelReleasesSlot(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	sessions, _ := testSessionService(store, at)
	bookings, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 1).Return(&db.Vehicle{ID: 1, OwnerID: 1, Status: db.VehicleApproved}, nil)
	vehicles.On("GetVehicle", mock.Anything, 2).Return(&db.Vehicle{ID: 2, OwnerID: 2, Status: db.VehicleApproved}, nil)

	first, err := bookings.Reserve(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, bookingRequest(101, 1))
	require.NoError(t, err)

	_, err = bookings.Reserve(ctx, auth.Actor{UserID: 2, Role: db.RoleStudent}, bookingRequest(101, 2))
	assert.ErrorIs(t, err, apperr.ErrSpaceAlreadyBooked)

	_, err = sessions.Cancel(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, first.ID)
	require.NoError(t, err)

	second, err := bookings.Reserve(ctx, auth.Actor{UserID: 2, Role: db.RoleStudent}, bookingRequest(101, 2))
	require.NoError(t, err)
	assert.Equal(t, db.BookingConfirmed, second.Status)

	// The cancelled record survives for history.
	kept, err := store.GetBookingByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingCancelled, kept.Status)
}

func TestAutoCompleteExpiredIsIdempotent(t *testing.T) {
	store := newFakeBookingStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := testSessionService(store, at)
	ctx := context.Background()

	expired := seedConfirmed(t, store, 1, 101, testDate)
	running := seedConfirmed(t, store, 2, 102, testDate)

	_, err := svc.Activate(ctx, student(1), expired.ID, 30*time.Minute, nil)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, student(2), running.ID, 4*time.Hour, nil)
	require.NoError(t, err)

	cutoff := at.Add(time.Hour)
	swept, err := svc.AutoCompleteExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := store.GetBookingByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingCompleted, got.Status)

	stillRunning, err := store.GetBookingByID(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BookingActive, stillRunning.Status)

	swept, err = svc.AutoCompleteExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
