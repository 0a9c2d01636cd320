package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"unipark/internal/api"
	"unipark/internal/auth"
	"unipark/internal/config"
	"unipark/internal/db"
	"unipark/internal/repository"
	"unipark/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zlog.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open DB")
	}
	if err := database.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to DB")
	}

	stripe.Key = cfg.StripeSecretKey

	bookingRepo := repository.NewBookingRepository(database)
	spaceRepo := repository.NewSpaceRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	userRepo := repository.NewUserRepository(database)
	summonsRepo := repository.NewSummonsRepository(database)

	notifier := service.NewNotifyService(userRepo, logger)
	stripeSvc := service.NewStripeService(cfg.PaymentSuccessURL, cfg.PaymentCancelURL)

	bookingSvc := service.NewBookingService(bookingRepo, spaceRepo, vehicleRepo, notifier, logger)
	sessionSvc := service.NewSessionService(bookingRepo, notifier, logger)
	catalogSvc := service.NewCatalogService(spaceRepo, logger)
	vehicleSvc := service.NewVehicleService(vehicleRepo, logger)
	summonsSvc := service.NewSummonsService(summonsRepo, vehicleRepo, userRepo, stripeSvc, notifier, logger)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, logger)

	authHandler := api.NewAuthHandler(authSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc, sessionSvc)
	adminHandler := api.NewAdminHandler(bookingSvc, sessionSvc)
	catalogHandler := api.NewCatalogHandler(catalogSvc)
	vehicleHandler := api.NewVehicleHandler(vehicleSvc)
	summonsHandler := api.NewSummonsHandler(summonsSvc)
	webhookHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, summonsSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/spaces/available", catalogHandler.Availability).Methods("GET")
	r.HandleFunc("/webhooks/stripe", webhookHandler.HandleWebhook).Methods("POST")
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.Middleware(cfg.JWTSecret))
	user.HandleFunc("/bookings", bookingHandler.Reserve).Methods("POST")
	user.HandleFunc("/bookings", bookingHandler.ListOwn).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.Reschedule).Methods("PUT")
	user.HandleFunc("/bookings/{id}", bookingHandler.Cancel).Methods("DELETE")
	user.HandleFunc("/bookings/{id}/activate", bookingHandler.Activate).Methods("POST")
	user.HandleFunc("/bookings/{id}/complete", bookingHandler.Complete).Methods("POST")
	user.HandleFunc("/checkin/{token}", bookingHandler.CheckIn).Methods("POST")
	user.HandleFunc("/vehicles", vehicleHandler.Register).Methods("POST")
	user.HandleFunc("/vehicles", vehicleHandler.ListOwn).Methods("GET")
	user.HandleFunc("/summonses", summonsHandler.ListOwn).Methods("GET")
	user.HandleFunc("/summonses/{reference}/pay", summonsHandler.Pay).Methods("POST")

	// Staff endpoints
	staff := r.PathPrefix("/staff").Subrouter()
	staff.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleStaff))
	staff.HandleFunc("/vehicles/pending", vehicleHandler.ListPending).Methods("GET")
	staff.HandleFunc("/vehicles/{id}/decision", vehicleHandler.Decide).Methods("PUT")
	staff.HandleFunc("/summonses", summonsHandler.Issue).Methods("POST")
	staff.HandleFunc("/summonses/{reference}/waive", summonsHandler.Waive).Methods("POST")
	staff.HandleFunc("/checkin/{token}", bookingHandler.ResolveToken).Methods("GET")

	// Admin endpoints
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleAdmin))
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{id}", adminHandler.PurgeBooking).Methods("DELETE")
	admin.HandleFunc("/sweep", adminHandler.RunSweep).Methods("POST")
	admin.HandleFunc("/areas", catalogHandler.CreateArea).Methods("POST")
	admin.HandleFunc("/areas", catalogHandler.ListAreas).Methods("GET")
	admin.HandleFunc("/areas/{id}/spaces", catalogHandler.ListSpaces).Methods("GET")
	admin.HandleFunc("/spaces", catalogHandler.CreateSpace).Methods("POST")
	admin.HandleFunc("/spaces/{id}/bookable", catalogHandler.SetBookable).Methods("PUT")

	// Periodic auto-complete sweep
	c := cron.New()
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sessionSvc.AutoCompleteExpired(ctx, time.Now().UTC()); err != nil {
			logger.Error().Err(err).Msg("sweep failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("invalid sweep schedule")
	}
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
	)

	logger.Info().Str("port", cfg.Port).Msg("server running")
	if err := http.ListenAndServe(":"+cfg.Port, handlers.LoggingHandler(os.Stdout, cors(r))); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
