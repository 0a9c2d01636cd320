package service

import (
	"context"
	"fmt"
	"time"

	"unipark/internal/db"

	"github.com/rs/zerolog"
)

// NotifyService sends booking and summons notifications over email and SMS.
// Everything happens in a goroutine; a failed notification is logged, never
// surfaced to the flow that triggered it.
type NotifyService struct {
	users UserStore
	log   zerolog.Logger
}

func NewNotifyService(users UserStore, log zerolog.Logger) *NotifyService {
	return &NotifyService{users: users, log: log}
}

func (n *NotifyService) BookingConfirmed(b *db.Booking) {
	subject := fmt.Sprintf("UniPark booking confirmed for %s", b.BookingDate.Format("02 Jan 2006"))
	body := fmt.Sprintf(
		"Your parking booking is confirmed.\n\n"+
			"Date: %s\n"+
			"Window: %s - %s\n\n"+
			"Present the QR code in the app at the gate to check in.\n\n"+
			"UniPark",
		b.BookingDate.Format("02 Jan 2006"),
		b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
	)
	sms := fmt.Sprintf("UniPark: booking confirmed for %s, %s-%s. Details in your email.",
		b.BookingDate.Format("02/01"), b.StartTime.Format("15:04"), b.EndTime.Format("15:04"))
	n.send(b.OwnerID, subject, body, sms)
}

func (n *NotifyService) BookingCancelled(b *db.Booking) {
	subject := fmt.Sprintf("UniPark booking cancelled for %s", b.BookingDate.Format("02 Jan 2006"))
	body := fmt.Sprintf(
		"Your parking booking for %s has been cancelled. The space is released.\n\nUniPark",
		b.BookingDate.Format("02 Jan 2006"),
	)
	sms := fmt.Sprintf("UniPark: booking for %s cancelled.", b.BookingDate.Format("02/01"))
	n.send(b.OwnerID, subject, body, sms)
}

func (n *NotifyService) SummonsIssued(s *db.Summons) {
	subject := fmt.Sprintf("UniPark traffic summons %s", s.Reference)
	body := fmt.Sprintf(
		"A traffic summons has been issued against your vehicle.\n\n"+
			"Reference: %s\n"+
			"Offence: %s\n"+
			"Demerit points: %d\n"+
			"Fine: %.2f\n\n"+
			"Settle the fine through the UniPark portal.\n\nUniPark",
		s.Reference, s.Offence, s.DemeritPoints, float64(s.FineCents)/100,
	)
	sms := fmt.Sprintf("UniPark: summons %s issued (%d demerit points). Details in your email.",
		s.Reference, s.DemeritPoints)
	n.send(s.OwnerID, subject, body, sms)
}

func (n *NotifyService) SummonsPaid(s *db.Summons) {
	subject := fmt.Sprintf("UniPark summons %s settled", s.Reference)
	body := fmt.Sprintf("Payment received for summons %s. Thank you.\n\nUniPark", s.Reference)
	n.send(s.OwnerID, subject, body, "")
}

func (n *NotifyService) send(ownerID int, subject, body, sms string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := n.users.GetUserByID(ctx, ownerID)
		if err != nil {
			n.log.Error().Err(err).Int("owner_id", ownerID).Msg("cannot load user for notification")
			return
		}
		if err := SendEmailWithSendGrid(user.Email, user.Name, subject, body, ""); err != nil {
			n.log.Error().Err(err).Str("email", user.Email).Msg("notification email failed")
		}
		if sms != "" && user.Phone != "" {
			if err := SendSMS(user.Phone, sms); err != nil {
				n.log.Error().Err(err).Msg("notification SMS failed")
			}
		}
	}()
}
