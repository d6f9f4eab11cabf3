package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carebook/scheduling-api/internal/config"
	"github.com/carebook/scheduling-api/internal/handler"
	appointmentHandler "github.com/carebook/scheduling-api/internal/handler/appointment"
	blockedDateHandler "github.com/carebook/scheduling-api/internal/handler/blockeddate"
	followupHandler "github.com/carebook/scheduling-api/internal/handler/followup"
	historyHandler "github.com/carebook/scheduling-api/internal/handler/history"
	notificationHandler "github.com/carebook/scheduling-api/internal/handler/notification"
	slotHandler "github.com/carebook/scheduling-api/internal/handler/slot"
	"github.com/carebook/scheduling-api/internal/middleware"
	"github.com/carebook/scheduling-api/pkg/logger"
)

type Router struct {
	engine *gin.Engine
}

func NewRouter(
	cfg *config.Config,
	log *logger.Logger,
	health *handler.HealthHandler,
	slots *slotHandler.Handler,
	blockedDates *blockedDateHandler.Handler,
	appointments *appointmentHandler.Handler,
	followUps *followupHandler.Handler,
	histories *historyHandler.Handler,
	notifications *notificationHandler.Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.Recovery(log))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	engine.Use(limiter.RateLimit())

	engine.GET("/health", health.HealthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1", middleware.Identity(cfg.JWT.Secret))
	slots.RegisterRoutes(api)
	blockedDates.RegisterRoutes(api)
	appointments.RegisterRoutes(api)
	followUps.RegisterRoutes(api)
	histories.RegisterRoutes(api)
	notifications.RegisterRoutes(api)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
