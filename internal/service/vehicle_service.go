package service

import (
	"context"

	"unipark/internal/auth"
	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"

	"github.com/rs/zerolog"
)

// VehicleService handles registration and the staff approval queue. Only
// Approved vehicles can back a booking; the booking service re-checks at
// reserve time.
type VehicleService struct {
	vehicles VehicleStore
	log      zerolog.Logger
}

func NewVehicleService(vehicles VehicleStore, log zerolog.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, log: log}
}

func (s *VehicleService) Register(ctx context.Context, actor auth.Actor, req entities.RegisterVehicleRequest) (*db.Vehicle, error) {
	if req.Plate == "" {
		return nil, apperr.NewHTTPError(400, "plate is required")
	}
	vehicle := &db.Vehicle{
		OwnerID: actor.UserID,
		Plate:   req.Plate,
		Model:   req.Model,
		Status:  db.VehiclePending,
	}
	if err := s.vehicles.CreateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	s.log.Info().Int("vehicle_id", vehicle.ID).Str("plate", vehicle.Plate).Msg("vehicle registered")
	return vehicle, nil
}

func (s *VehicleService) ListOwn(ctx context.Context, actor auth.Actor) ([]db.Vehicle, error) {
	return s.vehicles.ListVehiclesByOwner(ctx, actor.UserID)
}

func (s *VehicleService) ListPending(ctx context.Context) ([]db.Vehicle, error) {
	return s.vehicles.ListVehiclesByStatus(ctx, db.VehiclePending)
}

// Decide records the staff approval decision. Only Approved and Rejected are
// legal outcomes.
func (s *VehicleService) Decide(ctx context.Context, actor auth.Actor, vehicleID int, rawStatus string) (*db.Vehicle, error) {
	status, err := db.ParseVehicleStatus(rawStatus)
	if err != nil {
		return nil, apperr.NewHTTPError(400, err.Error())
	}
	if status == db.VehiclePending {
		return nil, apperr.NewHTTPError(400, "decision must be Approved or Rejected")
	}
	if err := s.vehicles.SetVehicleStatus(ctx, vehicleID, status); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("vehicle_id", vehicleID).
		Int("staff_id", actor.UserID).
		Str("status", string(status)).
		Msg("vehicle decision recorded")
	return s.vehicles.GetVehicle(ctx, vehicleID)
}
