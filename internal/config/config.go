package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to wire the server. Notification
// credentials (SendGrid, Twilio) stay in the environment and are read by the
// notify service directly.
type Config struct {
	DatabaseURL         string
	Port                string
	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentSuccessURL   string
	PaymentCancelURL    string
	CORSOrigins         []string
	SweepSchedule       string
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentSuccessURL:   getEnv("PAYMENT_SUCCESS_URL", "http://localhost:3000/summons/paid?session_id={CHECKOUT_SESSION_ID}"),
		PaymentCancelURL:    getEnv("PAYMENT_CANCEL_URL", "http://localhost:3000/summons/payment-failed"),
		CORSOrigins:         strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "@every 1m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
