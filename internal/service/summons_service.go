package service

import (
	"context"
	"errors"
	"fmt"

	"unipark/internal/auth"
	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentGateway abstracts the Stripe checkout flow for fine payment.
type PaymentGateway interface {
	CreateCheckoutSession(amount int64, currency, description, customerEmail string) (url, sessionID string, err error)
}

// SummonsService tracks traffic summonses and demerit points, and runs fine
// payment through the payment gateway.
type SummonsService struct {
	summonses SummonsStore
	vehicles  VehicleStore
	users     UserStore
	payments  PaymentGateway
	notifier  Notifier
	log       zerolog.Logger
}

func NewSummonsService(summonses SummonsStore, vehicles VehicleStore, users UserStore, payments PaymentGateway, notifier Notifier, log zerolog.Logger) *SummonsService {
	return &SummonsService{
		summonses: summonses,
		vehicles:  vehicles,
		users:     users,
		payments:  payments,
		notifier:  notifier,
		log:       log,
	}
}

func (s *SummonsService) Issue(ctx context.Context, actor auth.Actor, req entities.IssueSummonsRequest) (*db.Summons, error) {
	if req.Offence == "" {
		return nil, apperr.NewHTTPError(400, "offence is required")
	}
	if req.DemeritPoints < 0 || req.FineCents < 0 {
		return nil, apperr.NewHTTPError(400, "demerit_points and fine_cents must not be negative")
	}
	vehicle, err := s.vehicles.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	summons := &db.Summons{
		Reference:     uuid.NewString(),
		VehicleID:     vehicle.ID,
		OwnerID:       vehicle.OwnerID,
		Offence:       req.Offence,
		DemeritPoints: req.DemeritPoints,
		FineCents:     req.FineCents,
		Status:        db.SummonsUnpaid,
	}
	if err := s.summonses.CreateSummons(ctx, summons); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("reference", summons.Reference).
		Int("vehicle_id", vehicle.ID).
		Int("staff_id", actor.UserID).
		Msg("summons issued")

	if s.notifier != nil {
		s.notifier.SummonsIssued(summons)
	}
	return summons, nil
}

func (s *SummonsService) ListOwn(ctx context.Context, actor auth.Actor) (*entities.SummonsListResponse, error) {
	summonses, err := s.summonses.ListSummonsesByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	total, err := s.summonses.DemeritTotal(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &entities.SummonsListResponse{DemeritTotal: total}
	for i := range summonses {
		resp.Summonses = append(resp.Summonses, summonsResponse(&summonses[i]))
	}
	return resp, nil
}

// StartPayment creates a Stripe checkout session for an unpaid fine and
// remembers the session id so the webhook can settle it.
func (s *SummonsService) StartPayment(ctx context.Context, actor auth.Actor, reference string) (*entities.PaymentSessionResponse, error) {
	summons, err := s.summonses.GetSummonsByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if summons.OwnerID != actor.UserID {
		return nil, apperr.ErrForbidden
	}
	if summons.Status != db.SummonsUnpaid {
		return nil, apperr.NewHTTPError(409, "summons already settled")
	}
	if summons.FineCents == 0 {
		return nil, apperr.NewHTTPError(409, "summons carries no fine")
	}

	owner, err := s.users.GetUserByID(ctx, summons.OwnerID)
	if err != nil {
		return nil, err
	}
	description := fmt.Sprintf("Parking summons %s", summons.Reference)
	url, sessionID, err := s.payments.CreateCheckoutSession(int64(summons.FineCents), "usd", description, owner.Email)
	if err != nil {
		return nil, fmt.Errorf("error creating payment session: %w", err)
	}
	if err := s.summonses.SetStripeSession(ctx, summons.ID, sessionID); err != nil {
		return nil, err
	}
	return &entities.PaymentSessionResponse{Reference: summons.Reference, URL: url, SessionID: sessionID}, nil
}

// HandleCheckoutCompleted settles the summons tied to a finished checkout
// session. Replayed or unknown sessions are logged and dropped.
func (s *SummonsService) HandleCheckoutCompleted(ctx context.Context, sessionID string) error {
	summons, err := s.summonses.MarkPaidBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn().Str("session_id", sessionID).Msg("checkout completed for unknown or settled summons")
			return nil
		}
		return err
	}
	s.log.Info().Str("reference", summons.Reference).Msg("summons paid")
	if s.notifier != nil {
		s.notifier.SummonsPaid(summons)
	}
	return nil
}

func (s *SummonsService) Waive(ctx context.Context, actor auth.Actor, reference string) error {
	if err := s.summonses.WaiveSummons(ctx, reference); err != nil {
		return err
	}
	s.log.Info().Str("reference", reference).Int("staff_id", actor.UserID).Msg("summons waived")
	return nil
}

func summonsResponse(s *db.Summons) entities.SummonsResponse {
	resp := entities.SummonsResponse{
		Reference:     s.Reference,
		VehicleID:     s.VehicleID,
		OwnerID:       s.OwnerID,
		Offence:       s.Offence,
		DemeritPoints: s.DemeritPoints,
		FineCents:     s.FineCents,
		Status:        string(s.Status),
		IssuedAt:      s.IssuedAt,
	}
	if s.PaidAt.Valid {
		t := s.PaidAt.Time
		resp.PaidAt = &t
	}
	return resp
}
