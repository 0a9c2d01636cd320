package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"unipark/internal/db"
	apperr "unipark/internal/errors"
)

type SummonsRepository struct {
	DB *sql.DB
}

func NewSummonsRepository(database *sql.DB) *SummonsRepository {
	return &SummonsRepository{DB: database}
}

const summonsColumns = `id, reference, vehicle_id, owner_id, offence, demerit_points, fine_cents, status, stripe_session_id, issued_at, paid_at`

func (r *SummonsRepository) CreateSummons(ctx context.Context, s *db.Summons) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO summonses (reference, vehicle_id, owner_id, offence, demerit_points, fine_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, issued_at`,
		s.Reference, s.VehicleID, s.OwnerID, s.Offence, s.DemeritPoints, s.FineCents, s.Status,
	).Scan(&s.ID, &s.IssuedAt)
	if err != nil {
		return fmt.Errorf("error creating summons: %w", err)
	}
	return nil
}

func (r *SummonsRepository) GetSummonsByReference(ctx context.Context, reference string) (*db.Summons, error) {
	var s db.Summons
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+summonsColumns+` FROM summonses WHERE reference = $1`, reference).
		Scan(&s.ID, &s.Reference, &s.VehicleID, &s.OwnerID, &s.Offence, &s.DemeritPoints,
			&s.FineCents, &s.Status, &s.StripeSessionID, &s.IssuedAt, &s.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("summons %s: %w", reference, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying summons %s: %w", reference, err)
	}
	return &s, nil
}

func (r *SummonsRepository) ListSummonsesByOwner(ctx context.Context, ownerID int) ([]db.Summons, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+summonsColumns+` FROM summonses WHERE owner_id = $1 ORDER BY issued_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing summonses for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var summonses []db.Summons
	for rows.Next() {
		var s db.Summons
		err := rows.Scan(&s.ID, &s.Reference, &s.VehicleID, &s.OwnerID, &s.Offence, &s.DemeritPoints,
			&s.FineCents, &s.Status, &s.StripeSessionID, &s.IssuedAt, &s.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning summons: %w", err)
		}
		summonses = append(summonses, s)
	}
	return summonses, rows.Err()
}

// DemeritTotal counts points from unpaid and paid summonses; waived ones do
// not count against the owner.
func (r *SummonsRepository) DemeritTotal(ctx context.Context, ownerID int) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(demerit_points), 0) FROM summonses WHERE owner_id = $1 AND status <> 'waived'`,
		ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error totalling demerit points for owner %d: %w", ownerID, err)
	}
	return total, nil
}

func (r *SummonsRepository) SetStripeSession(ctx context.Context, id int, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE summonses SET stripe_session_id = $2 WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("error storing stripe session for summons %d: %w", id, err)
	}
	return nil
}

// MarkPaidBySession flips an unpaid summons to paid. Guarded on status so a
// replayed webhook is a no-op. An empty session id never matches: the column
// defaults to '' until a checkout session is started.
func (r *SummonsRepository) MarkPaidBySession(ctx context.Context, sessionID string) (*db.Summons, error) {
	if sessionID == "" {
		return nil, apperr.ErrNotFound
	}
	var reference string
	err := r.DB.QueryRowContext(ctx, `
		UPDATE summonses SET status = 'paid', paid_at = NOW()
		WHERE stripe_session_id = $1 AND stripe_session_id <> '' AND status = 'unpaid'
		RETURNING reference`, sessionID).Scan(&reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("error marking summons paid: %w", err)
	}
	return r.GetSummonsByReference(ctx, reference)
}

func (r *SummonsRepository) WaiveSummons(ctx context.Context, reference string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE summonses SET status = 'waived' WHERE reference = $1 AND status = 'unpaid'`, reference)
	if err != nil {
		return fmt.Errorf("error waiving summons %s: %w", reference, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking waive result: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
