package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/service"
	"github.com/noah-isme/calendar-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/calendar-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/calendar-booking-api/pkg/middleware/requestid"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool

	Logger       *zap.Logger
	Metrics      *service.MetricsService
	Tokens       middleware.TokenValidator
	BookLimiter  gin.HandlerFunc
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Ops          *MetricsHandler
}

// NewRouter builds the gin engine with the shared middleware chain and all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", cfg.Ops.Health)
	r.GET("/ready", cfg.Ops.Ready)
	r.GET("/metrics", cfg.Ops.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)
	owner := middleware.JWT(cfg.Tokens)

	api.GET("/availability/:ownerId", cfg.Availability.FreeSlots)
	api.GET("/availability/:ownerId/ranges", owner, cfg.Availability.Ranges)
	api.POST("/availability", owner, cfg.Availability.Publish)

	book := []gin.HandlerFunc{cfg.Bookings.Book}
	if cfg.BookLimiter != nil {
		book = append([]gin.HandlerFunc{cfg.BookLimiter}, book...)
	}
	api.POST("/book", book...)
	api.GET("/bookings/:ownerId", owner, cfg.Bookings.List)
	api.GET("/bookings/:ownerId/export", owner, cfg.Bookings.Export)

	return r
}
