package entities

import "time"

type IssueSummonsRequest struct {
	VehicleID     int    `json:"vehicle_id"`
	Offence       string `json:"offence"`
	DemeritPoints int    `json:"demerit_points"`
	FineCents     int    `json:"fine_cents"`
}

type SummonsResponse struct {
	Reference     string     `json:"reference"`
	VehicleID     int        `json:"vehicle_id"`
	OwnerID       int        `json:"owner_id"`
	Offence       string     `json:"offence"`
	DemeritPoints int        `json:"demerit_points"`
	FineCents     int        `json:"fine_cents"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type SummonsListResponse struct {
	DemeritTotal int               `json:"demerit_total"`
	Summonses    []SummonsResponse `json:"summonses"`
}

type PaymentSessionResponse struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}
