package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorslot/internal/auth"
	"tutorslot/internal/booking"
	"tutorslot/internal/config"
	"tutorslot/internal/db"
	"tutorslot/internal/email"
	"tutorslot/internal/events"
	"tutorslot/internal/homework"
	"tutorslot/internal/logger"
	"tutorslot/internal/meeting"
	"tutorslot/internal/payment"
	"tutorslot/internal/server"
	"tutorslot/internal/slots"
	"tutorslot/internal/tutor"
	"tutorslot/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// @title TutorSlot API
// @version 1.0
// @description Tutoring marketplace: availability, bookings, payments, meetings and homework.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger.Init(cfg.Env)
	defer logger.Sync()
	logger.Info("Starting TutorSlot application", "env", cfg.Env)

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}
	pingCancel()

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Invalid JWT configuration", "error", err)
	}

	emailService := email.New(email.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	}, rdb)

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	computer := slots.New(cfg.SlotStepMinutes, cfg.Location())

	userRepo := user.NewRepository(database)
	tutorRepo := tutor.NewRepository(database)
	bookingRepo := booking.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	homeworkRepo := homework.NewRepository(database)

	userService := user.NewService(userRepo, issuer)
	tutorService := tutor.NewService(tutorRepo, computer, bookingRepo, cfg.DefaultLessonMinutes)
	bookingService := booking.NewService(bookingRepo, tutorService, userService, emailService, publisher, cfg.Location(), cfg.DefaultLessonMinutes)
	paymentService := payment.NewService(paymentRepo, bookingRepo, userService, emailService, publisher, gateways(cfg)...)
	meetingRegistry := meeting.NewRegistry(rdb, bookingRepo, cfg.MeetingTTL)
	prometheus.MustRegister(meeting.NewParticipantsCollector(rdb))
	homeworkService := homework.NewService(homeworkRepo, bookingRepo, userService, emailService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	srv := server.New(cfg, issuer, server.Handlers{
		Users:    user.NewHandler(userService),
		Tutors:   tutor.NewHandler(tutorService),
		Bookings: booking.NewHandler(bookingService),
		Payments: payment.NewHandler(paymentService),
		Meetings: meeting.NewHandler(meetingRegistry),
		Homework: homework.NewHandler(homeworkService),
	}, emailService)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

// gateways returns the payment providers that have credentials configured.
func gateways(cfg *config.Config) []payment.Gateway {
	var out []payment.Gateway

	if cfg.StripeSecretKey != "" {
		out = append(out, payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret))
		logger.Info("Stripe payments enabled")
	}

	if cfg.PayPalClientID != "" && cfg.PayPalClientSecret != "" {
		pp, err := payment.NewPayPalGateway(cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalBaseURL, cfg.PayPalWebhookID)
		if err != nil {
			logger.Error("PayPal disabled", "error", err)
		} else {
			out = append(out, pp)
			logger.Info("PayPal payments enabled")
		}
	}

	if len(out) == 0 {
		logger.Warn("No payment provider configured; checkout will be unavailable")
	}
	return out
}
