package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carebook/scheduling-api/internal/config"
	"github.com/carebook/scheduling-api/internal/email"
	"github.com/carebook/scheduling-api/internal/handler"
	appointmentHandler "github.com/carebook/scheduling-api/internal/handler/appointment"
	blockedDateHandler "github.com/carebook/scheduling-api/internal/handler/blockeddate"
	followupHandler "github.com/carebook/scheduling-api/internal/handler/followup"
	historyHandler "github.com/carebook/scheduling-api/internal/handler/history"
	notificationHandler "github.com/carebook/scheduling-api/internal/handler/notification"
	slotHandler "github.com/carebook/scheduling-api/internal/handler/slot"
	"github.com/carebook/scheduling-api/internal/repository/postgres"
	"github.com/carebook/scheduling-api/internal/router"
	appointmentService "github.com/carebook/scheduling-api/internal/service/appointment"
	blockedDateService "github.com/carebook/scheduling-api/internal/service/blockeddate"
	bookingService "github.com/carebook/scheduling-api/internal/service/booking"
	followupService "github.com/carebook/scheduling-api/internal/service/followup"
	historyService "github.com/carebook/scheduling-api/internal/service/history"
	notificationService "github.com/carebook/scheduling-api/internal/service/notification"
	slotService "github.com/carebook/scheduling-api/internal/service/slot"
	"github.com/carebook/scheduling-api/pkg/logger"
	redisbroker "github.com/carebook/scheduling-api/pkg/messaging/redis"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
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

	m := metrics.New("scheduling_api")
	storeTimeout := cfg.Database.QueryTimeout()

	// Repositories
	slotRepo := postgres.NewSlotRepository(db)
	blockedDateRepo := postgres.NewBlockedDateRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db, historyRepo)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	notifSvc := notificationService.NewService(notificationRepo, broker, appLogger)
	blockedSvc := blockedDateService.NewService(blockedDateRepo)
	slotSvc := slotService.NewService(slotRepo, blockedSvc, appLogger, m, storeTimeout)
	bookingSvc := bookingService.NewService(appointmentRepo, slotRepo, blockedSvc, notifSvc, appLogger, m, storeTimeout)
	apptSvc := appointmentService.NewService(appointmentRepo, notifSvc, appLogger, m, storeTimeout)
	emailSvc := email.NewSMTPService(cfg.SMTP)
	followupSvc := followupService.NewService(appointmentRepo, userRepo, emailSvc, notifSvc, appLogger, m, cfg.Scheduler.BatchSize, storeTimeout)
	historySvc := historyService.NewService(historyRepo)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	slotsHandler := slotHandler.NewHandler(slotSvc)
	blockedHandler := blockedDateHandler.NewHandler(blockedSvc)
	apptsHandler := appointmentHandler.NewHandler(bookingSvc, apptSvc)
	fuHandler := followupHandler.NewHandler(followupSvc, apptSvc)
	histHandler := historyHandler.NewHandler(historySvc)
	notifHandler := notificationHandler.NewHandler(notifSvc)

	r := router.NewRouter(cfg, appLogger, healthHandler, slotsHandler, blockedHandler, apptsHandler, fuHandler, histHandler, notifHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.ZL.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.ZL.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.ZL.Error().Err(err).Msg("forced shutdown")
	}
}
