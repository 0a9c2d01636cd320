package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"unipark/internal/db"
	apperr "unipark/internal/errors"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

func (r *VehicleRepository) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO vehicles (owner_id, plate, model, status) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		v.OwnerID, v.Plate, v.Model, v.Status).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error registering vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetVehicle(ctx context.Context, id int) (*db.Vehicle, error) {
	var v db.Vehicle
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, owner_id, plate, model, status, created_at FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.OwnerID, &v.Plate, &v.Model, &v.Status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying vehicle %d: %w", id, err)
	}
	return &v, nil
}

func (r *VehicleRepository) ListVehiclesByOwner(ctx context.Context, ownerID int) ([]db.Vehicle, error) {
	return r.list(ctx,
		`SELECT id, owner_id, plate, model, status, created_at FROM vehicles WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID)
}

func (r *VehicleRepository) ListVehiclesByStatus(ctx context.Context, status db.VehicleStatus) ([]db.Vehicle, error) {
	return r.list(ctx,
		`SELECT id, owner_id, plate, model, status, created_at FROM vehicles WHERE status = $1 ORDER BY created_at`,
		status)
}

func (r *VehicleRepository) SetVehicleStatus(ctx context.Context, id int, status db.VehicleStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE vehicles SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("error updating vehicle %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking vehicle update result: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *VehicleRepository) list(ctx context.Context, query string, args ...interface{}) ([]db.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Plate, &v.Model, &v.Status, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
