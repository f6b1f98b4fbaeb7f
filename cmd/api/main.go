package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-scheduler/internal/app"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/audit"
	billingHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/billing"
	clinicHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/clinic"
	clinicianHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/clinician"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	medicalHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/medical"
	patientHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/patient"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/internal/router"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := app.NewLogger(cfg.Logging)
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(startupCtx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
	}

	m := metrics.NewMetrics("clinic", "scheduler", prometheus.DefaultRegisterer)
	services, err := app.NewServices(startupCtx, cfg, db, appLogger, m)
	cancelStartup()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise services")
	}

	var authMiddleware *middleware.AuthMiddleware
	if cfg.JWT.Secret != "" {
		tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
		authMiddleware = middleware.NewAuthMiddleware(tokens)
	} else {
		log.Warn().Msg("jwt.secret is empty, API is unauthenticated")
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(router.Handlers{
		Health:      health.NewHandler(db),
		Clinic:      clinicHandler.NewHandler(services.Clinics),
		Clinician:   clinicianHandler.NewHandler(services.Clinicians),
		Patient:     patientHandler.NewHandler(services.Patients),
		Appointment: appointmentHandler.NewHandler(services.Appointments),
		Billing:     billingHandler.NewHandler(services.Billing),
		Medical:     medicalHandler.NewHandler(services.Medical),
		Audit:       auditHandler.NewHandler(services.Audit),
	}, router.RouterConfig{
		Auth:          authMiddleware,
		RateEnabled:   cfg.RateLimit.Enabled,
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		MetricsPrefix: "clinic",
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
		Logger:        appLogger.ZL,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	services.AuditLogger.Wait()

	log.Info().Msg("server exited properly")
}
