package service

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"unipark/internal/auth"
	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeBookingStore enforces the same live-booking uniqueness the partial
// indexes provide, under a mutex, so concurrent reserve tests behave like the
// real datastore.
type fakeBookingStore struct {
	mu       sync.Mutex
	nextID   int
	bookings map[int]*db.Booking
	events   map[int][]string
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: map[int]*db.Booking{},
		events:   map[int][]string{},
	}
}

func (f *fakeBookingStore) live(b *db.Booking) bool {
	return b.Status == db.BookingConfirmed || b.Status == db.BookingActive
}

func (f *fakeBookingStore) CreateBooking(ctx context.Context, b *db.Booking, actorID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if !f.live(existing) || !existing.BookingDate.Equal(b.BookingDate) {
			continue
		}
		if existing.SpaceID == b.SpaceID {
			return apperr.ErrSpaceAlreadyBooked
		}
		if existing.OwnerID == b.OwnerID {
			return apperr.ErrOwnerAlreadyBooked
		}
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	f.bookings[b.ID] = &copied
	f.events[b.ID] = append(f.events[b.ID], "reserved")
	return nil
}

func (f *fakeBookingStore) GetBookingByID(ctx context.Context, id int) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) GetBookingByToken(ctx context.Context, token string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Token == token {
			copied := *b
			return &copied, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeBookingStore) ListBookingsByOwner(ctx context.Context, ownerID int) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListBookings(ctx context.Context, date string, areaID int, status string) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Booking
	for _, b := range f.bookings {
		if status != "" && string(b.Status) != status {
			continue
		}
		if date != "" && b.BookingDate.Format("2006-01-02") != date {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookingStore) UpdateWindow(ctx context.Context, id int, date, start, end time.Time, actorID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != db.BookingConfirmed {
		return false, nil
	}
	for _, existing := range f.bookings {
		if existing.ID == id || !f.live(existing) || !existing.BookingDate.Equal(date) {
			continue
		}
		if existing.SpaceID == b.SpaceID {
			return false, apperr.ErrSpaceAlreadyBooked
		}
		if existing.OwnerID == b.OwnerID {
			return false, apperr.ErrOwnerAlreadyBooked
		}
	}
	b.BookingDate, b.StartTime, b.EndTime = date, start, end
	f.events[id] = append(f.events[id], "rescheduled")
	return true, nil
}

func (f *fakeBookingStore) TransitionToActive(ctx context.Context, id int, start, end time.Time, actorID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != db.BookingConfirmed {
		return false, nil
	}
	b.Status = db.BookingActive
	b.ActualStart = nullTime(start)
	b.ActualEnd = nullTime(end)
	f.events[id] = append(f.events[id], "activated")
	return true, nil
}

func (f *fakeBookingStore) TransitionToCompleted(ctx context.Context, id int, end time.Time, actorID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != db.BookingActive {
		return false, nil
	}
	b.Status = db.BookingCompleted
	b.ActualEnd = nullTime(end)
	f.events[id] = append(f.events[id], "completed")
	return true, nil
}

func (f *fakeBookingStore) TransitionToCancelled(ctx context.Context, id int, actorID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || (b.Status != db.BookingConfirmed && b.Status != db.BookingActive) {
		return false, nil
	}
	b.Status = db.BookingCancelled
	f.events[id] = append(f.events[id], "cancelled")
	return true, nil
}

func (f *fakeBookingStore) AutoCompleteExpired(ctx context.Context, now time.Time) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for _, b := range f.bookings {
		if b.Status == db.BookingActive && b.ActualEnd.Valid && b.ActualEnd.Time.Before(now) {
			b.Status = db.BookingCompleted
			f.events[b.ID] = append(f.events[b.ID], "auto_completed")
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (f *fakeBookingStore) DeleteBooking(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

type mockSpaceStore struct {
	mock.Mock
}

func (m *mockSpaceStore) GetSpace(ctx context.Context, id int) (*db.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Space), args.Error(1)
}
func (m *mockSpaceStore) ListAvailable(ctx context.Context, areaID int, date string) ([]db.Space, error) {
	args := m.Called(ctx, areaID, date)
	return args.Get(0).([]db.Space), args.Error(1)
}
func (m *mockSpaceStore) CreateArea(ctx context.Context, a *db.Area) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockSpaceStore) ListAreas(ctx context.Context) ([]db.Area, error) {
	args := m.Called(ctx)
	return args.Get(0).([]db.Area), args.Error(1)
}
func (m *mockSpaceStore) CreateSpace(ctx context.Context, s *db.Space) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSpaceStore) ListSpacesByArea(ctx context.Context, areaID int) ([]db.Space, error) {
	args := m.Called(ctx, areaID)
	return args.Get(0).([]db.Space), args.Error(1)
}
func (m *mockSpaceStore) SetBookable(ctx context.Context, id int, bookable bool) error {
	return m.Called(ctx, id, bookable).Error(0)
}

type mockVehicleStore struct {
	mock.Mock
}

func (m *mockVehicleStore) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVehicleStore) GetVehicle(ctx context.Context, id int) (*db.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Vehicle), args.Error(1)
}
func (m *mockVehicleStore) ListVehiclesByOwner(ctx context.Context, ownerID int) ([]db.Vehicle, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]db.Vehicle), args.Error(1)
}
func (m *mockVehicleStore) ListVehiclesByStatus(ctx context.Context, status db.VehicleStatus) ([]db.Vehicle, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]db.Vehicle), args.Error(1)
}
func (m *mockVehicleStore) SetVehicleStatus(ctx context.Context, id int, status db.VehicleStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed int
	cancelled int
}

func (n *recordingNotifier) BookingConfirmed(b *db.Booking) {
	n.mu.Lock()
	n.confirmed++
	n.mu.Unlock()
}
func (n *recordingNotifier) BookingCancelled(b *db.Booking) {
	n.mu.Lock()
	n.cancelled++
	n.mu.Unlock()
}
func (n *recordingNotifier) SummonsIssued(s *db.Summons) {}
func (n *recordingNotifier) SummonsPaid(s *db.Summons)   {}

const testDate = "2024-05-01"

func bookingRequest(spaceID, vehicleID int) entities.BookingRequest {
	start, _ := time.Parse(time.RFC3339, "2024-05-01T09:00:00Z")
	return entities.BookingRequest{
		SpaceID:   spaceID,
		VehicleID: vehicleID,
		Date:      testDate,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func testBookingService(store BookingStore) (*BookingService, *mockSpaceStore, *mockVehicleStore, *recordingNotifier) {
	spaces := new(mockSpaceStore)
	vehicles := new(mockVehicleStore)
	notifier := &recordingNotifier{}
	svc := NewBookingService(store, spaces, vehicles, notifier, zerolog.New(io.Discard))
	return svc, spaces, vehicles, notifier
}

func TestReserveHappyPath(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, notifier := testBookingService(store)
	ctx := context.Background()

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, AreaID: 1, Label: "P-101", Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	booking, err := svc.Reserve(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, bookingRequest(101, 7))
	require.NoError(t, err)
	assert.Equal(t, db.BookingConfirmed, booking.Status)
	assert.Equal(t, 1, booking.OwnerID)
	assert.Len(t, booking.Token, 64)
	assert.Equal(t, 1, notifier.confirmed)
}

func TestReservePreconditions(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()
	actor := auth.Actor{UserID: 1, Role: db.RoleStudent}

	t.Run("SpaceNotBookable", func(t *testing.T) {
		spaces.On("GetSpace", mock.Anything, 200).Return(&db.Space{ID: 200, Bookable: false}, nil)
		_, err := svc.Reserve(ctx, actor, bookingRequest(200, 7))
		assert.ErrorIs(t, err, apperr.ErrSpaceNotBookable)
	})

	t.Run("VehicleNotApproved", func(t *testing.T) {
		spaces.On("GetSpace", mock.Anything, 201).Return(&db.Space{ID: 201, Bookable: true}, nil)
		vehicles.On("GetVehicle", mock.Anything, 8).Return(&db.Vehicle{ID: 8, OwnerID: 1, Status: db.VehiclePending}, nil)
		_, err := svc.Reserve(ctx, actor, bookingRequest(201, 8))
		assert.ErrorIs(t, err, apperr.ErrVehicleNotApproved)
	})

	t.Run("NotTheOwner", func(t *testing.T) {
		spaces.On("GetSpace", mock.Anything, 202).Return(&db.Space{ID: 202, Bookable: true}, nil)
		vehicles.On("GetVehicle", mock.Anything, 9).Return(&db.Vehicle{ID: 9, OwnerID: 99, Status: db.VehicleApproved}, nil)
		_, err := svc.Reserve(ctx, actor, bookingRequest(202, 9))
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		req := bookingRequest(101, 7)
		req.EndTime = req.StartTime
		_, err := svc.Reserve(ctx, actor, req)
		require.Error(t, err)
		assert.Equal(t, 400, apperr.StatusCode(err))
	})

	t.Run("InvalidDate", func(t *testing.T) {
		req := bookingRequest(101, 7)
		req.Date = "01/05/2024"
		_, err := svc.Reserve(ctx, actor, req)
		require.Error(t, err)
		assert.Equal(t, 400, apperr.StatusCode(err))
	})
}

// Two concurrent reservations for the same space and date: exactly one wins.
func TestReserveConcurrentSameSpace(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Label: "P-101", Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 1).Return(&db.Vehicle{ID: 1, OwnerID: 1, Status: db.VehicleApproved}, nil)
	vehicles.On("GetVehicle", mock.Anything, 2).Return(&db.Vehicle{ID: 2, OwnerID: 2, Status: db.VehicleApproved}, nil)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, owner := range []int{1, 2} {
		wg.Add(1)
		go func(owner int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), auth.Actor{UserID: owner, Role: db.RoleStudent}, bookingRequest(101, owner))
			results <- err
		}(owner)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, apperr.ErrSpaceAlreadyBooked)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

// One live booking per owner per date, regardless of space.
func TestReserveOwnerExclusivity(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()
	alice := auth.Actor{UserID: 1, Role: db.RoleStudent}

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Label: "P-101", Bookable: true}, nil)
	spaces.On("GetSpace", mock.Anything, 102).Return(&db.Space{ID: 102, Label: "P-102", Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	_, err := svc.Reserve(ctx, alice, bookingRequest(101, 7))
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, alice, bookingRequest(102, 7))
	assert.ErrorIs(t, err, apperr.ErrOwnerAlreadyBooked)
}

// transientOnceStore fails the first insert with a transient error.
type transientOnceStore struct {
	*fakeBookingStore
	failed bool
}

func (s *transientOnceStore) CreateBooking(ctx context.Context, b *db.Booking, actorID int) error {
	if !s.failed {
		s.failed = true
		return apperr.ErrTransient
	}
	return s.fakeBookingStore.CreateBooking(ctx, b, actorID)
}

func TestReserveRetriesTransientOnce(t *testing.T) {
	store := &transientOnceStore{fakeBookingStore: newFakeBookingStore()}
	svc, spaces, vehicles, _ := testBookingService(store)

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	booking, err := svc.Reserve(context.Background(), auth.Actor{UserID: 1, Role: db.RoleStudent}, bookingRequest(101, 7))
	require.NoError(t, err)
	assert.True(t, store.failed)
	assert.Equal(t, db.BookingConfirmed, booking.Status)
}

func TestReschedule(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()
	alice := auth.Actor{UserID: 1, Role: db.RoleStudent}

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	booking, err := svc.Reserve(ctx, alice, bookingRequest(101, 7))
	require.NoError(t, err)

	newStart, _ := time.Parse(time.RFC3339, "2024-05-02T10:00:00Z")
	req := entities.RescheduleRequest{Date: "2024-05-02", StartTime: newStart, EndTime: newStart.Add(time.Hour)}

	t.Run("NotTheOwner", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, auth.Actor{UserID: 2, Role: db.RoleStudent}, booking.ID, req)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("OwnerMovesWindow", func(t *testing.T) {
		moved, err := svc.Reschedule(ctx, alice, booking.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-02", moved.BookingDate.Format("2006-01-02"))
		assert.Contains(t, store.events[booking.ID], "rescheduled")
	})

	// Moving the window re-runs the conflict guard against live bookings on
	// the target date.
	t.Run("TargetSpaceTaken", func(t *testing.T) {
		seedConfirmed(t, store, 2, 101, "2024-05-03")
		start, _ := time.Parse(time.RFC3339, "2024-05-03T10:00:00Z")
		_, err := svc.Reschedule(ctx, alice, booking.ID, entities.RescheduleRequest{
			Date: "2024-05-03", StartTime: start, EndTime: start.Add(time.Hour),
		})
		assert.ErrorIs(t, err, apperr.ErrSpaceAlreadyBooked)
	})

	t.Run("TargetDateAlreadyOwned", func(t *testing.T) {
		seedConfirmed(t, store, 1, 102, "2024-05-04")
		start, _ := time.Parse(time.RFC3339, "2024-05-04T10:00:00Z")
		_, err := svc.Reschedule(ctx, alice, booking.ID, entities.RescheduleRequest{
			Date: "2024-05-04", StartTime: start, EndTime: start.Add(time.Hour),
		})
		assert.ErrorIs(t, err, apperr.ErrOwnerAlreadyBooked)
	})

	t.Run("OnlyWhileConfirmed", func(t *testing.T) {
		_, err := store.TransitionToActive(ctx, booking.ID, time.Now(), time.Now().Add(time.Hour), 1)
		require.NoError(t, err)
		_, err = svc.Reschedule(ctx, alice, booking.ID, req)
		assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	})
}

func TestPurgeRequiresAdmin(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	booking, err := svc.Reserve(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, bookingRequest(101, 7))
	require.NoError(t, err)

	err = svc.Purge(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, booking.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.Purge(ctx, auth.Actor{UserID: 99, Role: db.RoleAdmin}, booking.ID)
	require.NoError(t, err)

	_, err = store.GetBookingByID(ctx, booking.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveToken(t *testing.T) {
	store := newFakeBookingStore()
	svc, spaces, vehicles, _ := testBookingService(store)
	ctx := context.Background()

	spaces.On("GetSpace", mock.Anything, 101).Return(&db.Space{ID: 101, Bookable: true}, nil)
	vehicles.On("GetVehicle", mock.Anything, 7).Return(&db.Vehicle{ID: 7, OwnerID: 1, Status: db.VehicleApproved}, nil)

	booking, err := svc.Reserve(ctx, auth.Actor{UserID: 1, Role: db.RoleStudent}, bookingRequest(101, 7))
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, booking.Token)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, resolved.ID)

	_, err = svc.ResolveToken(ctx, "00000000000000000000000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
