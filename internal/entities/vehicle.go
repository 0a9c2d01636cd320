package entities

import "time"

type RegisterVehicleRequest struct {
	Plate string `json:"plate"`
	Model string `json:"model"`
}

type VehicleDecisionRequest struct {
	Status string `json:"status"` // Approved or Rejected
}

type VehicleResponse struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Plate     string    `json:"plate"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
