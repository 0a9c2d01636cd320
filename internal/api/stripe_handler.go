package api

import (
	"encoding/json"
	"io"
	"net/http"

	"unipark/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripeWebhookHandler struct {
	WebhookSecret string
	Summonses     *service.SummonsService
}

func NewStripeWebhookHandler(webhookSecret string, summonses *service.SummonsService) *StripeWebhookHandler {
	return &StripeWebhookHandler{WebhookSecret: webhookSecret, Summonses: summonses}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("error reading webhook body")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Error().Err(err).Msg("error parsing checkout.session")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Summonses.HandleCheckoutCompleted(r.Context(), sess.ID); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("error settling summons")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Debug().Str("type", string(event.Type)).Msg("unhandled stripe event")
	}

	w.WriteHeader(http.StatusOK)
}
