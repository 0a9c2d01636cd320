package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"unipark/internal/db"
	apperr "unipark/internal/errors"
)

type SpaceRepository struct {
	DB *sql.DB
}

func NewSpaceRepository(database *sql.DB) *SpaceRepository {
	return &SpaceRepository{DB: database}
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id int) (*db.Space, error) {
	var s db.Space
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, area_id, label, bookable FROM spaces WHERE id = $1`, id).
		Scan(&s.ID, &s.AreaID, &s.Label, &s.Bookable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("space %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying space %d: %w", id, err)
	}
	return &s, nil
}

// ListAvailable projects the bookable spaces with no live booking on the
// given date. Read-only; the reserve insert is what actually decides.
func (r *SpaceRepository) ListAvailable(ctx context.Context, areaID int, date string) ([]db.Space, error) {
	query := `
		SELECT s.id, s.area_id, s.label, s.bookable
		FROM spaces s
		WHERE s.bookable
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.space_id = s.id
			  AND b.booking_date = $1
			  AND b.status IN ('confirmed', 'active')
		  )`
	args := []interface{}{date}
	if areaID != 0 {
		args = append(args, areaID)
		query += fmt.Sprintf(" AND s.area_id = $%d", len(args))
	}
	query += " ORDER BY s.label"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing available spaces: %w", err)
	}
	defer rows.Close()

	var spaces []db.Space
	for rows.Next() {
		var s db.Space
		if err := rows.Scan(&s.ID, &s.AreaID, &s.Label, &s.Bookable); err != nil {
			return nil, fmt.Errorf("error scanning space: %w", err)
		}
		spaces = append(spaces, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating space rows: %w", err)
	}
	return spaces, nil
}

func (r *SpaceRepository) CreateArea(ctx context.Context, a *db.Area) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO areas (name, area_type, description) VALUES ($1, $2, $3) RETURNING id`,
		a.Name, a.AreaType, a.Description).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("error creating area: %w", err)
	}
	return nil
}

func (r *SpaceRepository) ListAreas(ctx context.Context) ([]db.Area, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, area_type, description FROM areas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing areas: %w", err)
	}
	defer rows.Close()

	var areas []db.Area
	for rows.Next() {
		var a db.Area
		if err := rows.Scan(&a.ID, &a.Name, &a.AreaType, &a.Description); err != nil {
			return nil, fmt.Errorf("error scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (r *SpaceRepository) CreateSpace(ctx context.Context, s *db.Space) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO spaces (area_id, label, bookable) VALUES ($1, $2, $3) RETURNING id`,
		s.AreaID, s.Label, s.Bookable).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("error creating space: %w", err)
	}
	return nil
}

func (r *SpaceRepository) ListSpacesByArea(ctx context.Context, areaID int) ([]db.Space, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, area_id, label, bookable FROM spaces WHERE area_id = $1 ORDER BY label`, areaID)
	if err != nil {
		return nil, fmt.Errorf("error listing spaces for area %d: %w", areaID, err)
	}
	defer rows.Close()

	var spaces []db.Space
	for rows.Next() {
		var s db.Space
		if err := rows.Scan(&s.ID, &s.AreaID, &s.Label, &s.Bookable); err != nil {
			return nil, fmt.Errorf("error scanning space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

func (r *SpaceRepository) SetBookable(ctx context.Context, id int, bookable bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE spaces SET bookable = $2 WHERE id = $1`, id, bookable)
	if err != nil {
		return fmt.Errorf("error updating space %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking space update result: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
