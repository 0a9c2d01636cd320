package entities

import (
	"time"

	"unipark/internal/db"
)

type BookingRequest struct {
	SpaceID   int       `json:"space_id"`
	VehicleID int       `json:"vehicle_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type RescheduleRequest struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ActivateRequest starts a session. Exactly one of the two fields must be
// set; the core assumes no default session length.
type ActivateRequest struct {
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

type BookingResponse struct {
	ID          int        `json:"id"`
	SpaceID     int        `json:"space_id"`
	VehicleID   int        `json:"vehicle_id"`
	OwnerID     int        `json:"owner_id"`
	Date        string     `json:"date"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	ActualStart *time.Time `json:"actual_start,omitempty"`
	ActualEnd   *time.Time `json:"actual_end,omitempty"`
	Token       string     `json:"token,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewBookingResponse flattens a booking row for the API. The token is the QR
// payload; includeToken keeps it out of listings other users could see.
func NewBookingResponse(b *db.Booking, includeToken bool) BookingResponse {
	resp := BookingResponse{
		ID:        b.ID,
		SpaceID:   b.SpaceID,
		VehicleID: b.VehicleID,
		OwnerID:   b.OwnerID,
		Date:      b.BookingDate.Format("2006-01-02"),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.ActualStart.Valid {
		t := b.ActualStart.Time
		resp.ActualStart = &t
	}
	if b.ActualEnd.Valid {
		t := b.ActualEnd.Time
		resp.ActualEnd = &t
	}
	if includeToken {
		resp.Token = b.Token
	}
	return resp
}
