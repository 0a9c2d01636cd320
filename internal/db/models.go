package db

import (
	"database/sql"
	"fmt"
	"time"
)

// BookingStatus is the closed set of lifecycle states a booking moves through.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch BookingStatus(raw) {
	case BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return BookingStatus(raw), nil
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

type VehicleStatus string

const (
	VehiclePending  VehicleStatus = "Pending"
	VehicleApproved VehicleStatus = "Approved"
	VehicleRejected VehicleStatus = "Rejected"
)

func ParseVehicleStatus(raw string) (VehicleStatus, error) {
	switch VehicleStatus(raw) {
	case VehiclePending, VehicleApproved, VehicleRejected:
		return VehicleStatus(raw), nil
	}
	return "", fmt.Errorf("unknown vehicle status %q", raw)
}

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

type SummonsStatus string

const (
	SummonsUnpaid SummonsStatus = "unpaid"
	SummonsPaid   SummonsStatus = "paid"
	SummonsWaived SummonsStatus = "waived"
)

type User struct {
	ID           int
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Area struct {
	ID          int
	Name        string
	AreaType    string
	Description string
}

type Space struct {
	ID       int
	AreaID   int
	Label    string
	Bookable bool
}

type Vehicle struct {
	ID        int
	OwnerID   int
	Plate     string
	Model     string
	Status    VehicleStatus
	CreatedAt time.Time
}

type Booking struct {
	ID          int
	SpaceID     int
	VehicleID   int
	OwnerID     int
	BookingDate time.Time
	StartTime   time.Time
	EndTime     time.Time
	Status      BookingStatus
	ActualStart sql.NullTime
	ActualEnd   sql.NullTime
	Token       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BookingEvent struct {
	ID        int
	BookingID int
	Event     string
	ActorID   sql.NullInt64
	CreatedAt time.Time
}

type Summons struct {
	ID              int
	Reference       string
	VehicleID       int
	OwnerID         int
	Offence         string
	DemeritPoints   int
	FineCents       int
	Status          SummonsStatus
	StripeSessionID string
	IssuedAt        time.Time
	PaidAt          sql.NullTime
}
