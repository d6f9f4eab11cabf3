package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/carebook/scheduling-api/internal/config"
	"github.com/carebook/scheduling-api/internal/email"
	"github.com/carebook/scheduling-api/internal/repository/postgres"
	followupService "github.com/carebook/scheduling-api/internal/service/followup"
	notificationService "github.com/carebook/scheduling-api/internal/service/notification"
	"github.com/carebook/scheduling-api/internal/worker"
	"github.com/carebook/scheduling-api/pkg/logger"
	redisbroker "github.com/carebook/scheduling-api/pkg/messaging/redis"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

// The reminder worker runs separately from the API so reminder bursts never
// compete with request handling. Multiple instances are safe: dispatch is
// guarded by a conditional update in the store.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.New("scheduling_worker")

	historyRepo := postgres.NewHistoryRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db, historyRepo)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	notifSvc := notificationService.NewService(notificationRepo, broker, appLogger)
	emailSvc := email.NewSMTPService(cfg.SMTP)
	followupSvc := followupService.NewService(
		appointmentRepo, userRepo, emailSvc, notifSvc,
		appLogger, m, cfg.Scheduler.BatchSize, cfg.Database.QueryTimeout(),
	)

	fuWorker := worker.NewFollowUpWorker(followupSvc, appLogger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Scheduler.CronSpec, func() {
		if err := fuWorker.Scan(ctx); err != nil {
			appLogger.ZL.Error().Err(err).Msg("follow-up scan failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Scheduler.CronSpec).Msg("invalid scheduler cron spec")
	}
	c.Start()
	appLogger.ZL.Info().Str("spec", cfg.Scheduler.CronSpec).Msg("follow-up worker started")

	setupHealthAndMetrics(appLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.ZL.Info().Msg("shutting down...")
	cancel()
	<-c.Stop().Done()
}

func setupHealthAndMetrics(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}
