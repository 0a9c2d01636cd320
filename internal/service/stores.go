package service

import (
	"context"
	"time"

	"unipark/internal/db"
)

// Store interfaces are declared here, on the consuming side, so tests can
// substitute fakes for the Postgres repositories.

type BookingStore interface {
	CreateBooking(ctx context.Context, b *db.Booking, actorID int) error
	GetBookingByID(ctx context.Context, id int) (*db.Booking, error)
	GetBookingByToken(ctx context.Context, token string) (*db.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID int) ([]db.Booking, error)
	ListBookings(ctx context.Context, date string, areaID int, status string) ([]db.Booking, error)
	UpdateWindow(ctx context.Context, id int, date, start, end time.Time, actorID int) (bool, error)
	TransitionToActive(ctx context.Context, id int, start, end time.Time, actorID int) (bool, error)
	TransitionToCompleted(ctx context.Context, id int, end time.Time, actorID int) (bool, error)
	TransitionToCancelled(ctx context.Context, id int, actorID int) (bool, error)
	AutoCompleteExpired(ctx context.Context, now time.Time) ([]int, error)
	DeleteBooking(ctx context.Context, id int) error
}

type SpaceStore interface {
	GetSpace(ctx context.Context, id int) (*db.Space, error)
	ListAvailable(ctx context.Context, areaID int, date string) ([]db.Space, error)
	CreateArea(ctx context.Context, a *db.Area) error
	ListAreas(ctx context.Context) ([]db.Area, error)
	CreateSpace(ctx context.Context, s *db.Space) error
	ListSpacesByArea(ctx context.Context, areaID int) ([]db.Space, error)
	SetBookable(ctx context.Context, id int, bookable bool) error
}

type VehicleStore interface {
	CreateVehicle(ctx context.Context, v *db.Vehicle) error
	GetVehicle(ctx context.Context, id int) (*db.Vehicle, error)
	ListVehiclesByOwner(ctx context.Context, ownerID int) ([]db.Vehicle, error)
	ListVehiclesByStatus(ctx context.Context, status db.VehicleStatus) ([]db.Vehicle, error)
	SetVehicleStatus(ctx context.Context, id int, status db.VehicleStatus) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByID(ctx context.Context, id int) (*db.User, error)
}

type SummonsStore interface {
	CreateSummons(ctx context.Context, s *db.Summons) error
	GetSummonsByReference(ctx context.Context, reference string) (*db.Summons, error)
	ListSummonsesByOwner(ctx context.Context, ownerID int) ([]db.Summons, error)
	DemeritTotal(ctx context.Context, ownerID int) (int, error)
	SetStripeSession(ctx context.Context, id int, sessionID string) error
	MarkPaidBySession(ctx context.Context, sessionID string) (*db.Summons, error)
	WaiveSummons(ctx context.Context, reference string) error
}

// Notifier decouples booking/summons flows from the SendGrid/Twilio plumbing.
// Implementations must not block the caller.
type Notifier interface {
	BookingConfirmed(b *db.Booking)
	BookingCancelled(b *db.Booking)
	SummonsIssued(s *db.Summons)
	SummonsPaid(s *db.Summons)
}
