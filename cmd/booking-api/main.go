package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/calendar-booking-api/api/swagger"
	"github.com/noah-isme/calendar-booking-api/internal/handler"
	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/repository"
	"github.com/noah-isme/calendar-booking-api/internal/service"
	"github.com/noah-isme/calendar-booking-api/pkg/cache"
	"github.com/noah-isme/calendar-booking-api/pkg/config"
	"github.com/noah-isme/calendar-booking-api/pkg/database"
	"github.com/noah-isme/calendar-booking-api/pkg/events"
	"github.com/noah-isme/calendar-booking-api/pkg/jobs"
	"github.com/noah-isme/calendar-booking-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var (
		availabilityStore service.AvailabilityStore
		bookingStore      service.BookingStore
	)
	switch cfg.Booking.StoreBackend {
	case config.StoreBackendMemory:
		logr.Warn("using in-memory store; bookings are lost on restart")
		availabilityStore = repository.NewMemoryAvailabilityStore()
		bookingStore = repository.NewMemoryBookingStore()
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		availabilityStore = repository.NewAvailabilityRepository(db)
		bookingStore = repository.NewBookingRepository(db)
		checks["database"] = func(ctx context.Context) error { return database.Ready(ctx, db) }
		logDatabase(logr, db)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var publisher events.Publisher
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.BookingTopic)
		logr.Info("publishing booking events to kafka", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.BookingTopic))
	} else {
		publisher = events.NewLogPublisher(logr)
	}
	defer publisher.Close() //nolint:errcheck

	notifications := service.NewNotificationService(publisher, logr)
	queue := jobs.NewQueue("booking-events", notifications.Handle, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	})
	notifications.Attach(queue)
	// Workers outlive the signal context so claims served during shutdown still publish.
	queue.Start(context.Background())
	defer queue.Stop()

	availability := service.NewAvailabilityService(
		service.NewAvailabilityIndex(availabilityStore, metrics),
		service.NewBookingLedger(bookingStore, metrics),
		cacheSvc,
		notifications,
		metrics,
		validator.New(),
		logr,
		service.AvailabilityConfig{
			SlotDuration: cfg.Booking.SlotDuration,
			StrictClaims: cfg.Booking.StrictClaims,
			CacheTTL:     cfg.Cache.TTL,

			MaxRange:          cfg.Booking.MaxRange,
			MaxRangesPerOwner: cfg.Booking.MaxRangesPerOwner,
		},
	)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiration})
	exports := service.NewExportService(availability, logr, nil, nil)

	var bookLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		var counter middleware.WindowCounter = middleware.NewMemoryWindowCounter()
		if redisClient != nil {
			counter = middleware.NewRedisWindowCounter(redisClient)
		}
		bookLimiter = middleware.RateLimit(counter, middleware.RateLimitConfig{
			Limit:    cfg.RateLimit.Limit,
			Window:   cfg.RateLimit.Window,
			Prefix:   "rl:book",
			FailOpen: cfg.RateLimit.FailOpen,
		}, logr)
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         tokens,
		BookLimiter:    bookLimiter,
		Availability:   handler.NewAvailabilityHandler(availability),
		Bookings:       handler.NewBookingHandler(availability, exports),
		Ops:            handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Booking.StoreBackend),
			zap.Duration("slot_duration", cfg.Booking.SlotDuration),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()
	if err := queue.Drain(drainCtx); err != nil {
		logr.Warn("booking events not fully delivered", zap.Error(err), zap.Uint64("dropped", queue.Stats().Dropped))
	}
	return shutdownErr
}

func logDatabase(logr *zap.Logger, db *sqlx.DB) {
	stats := db.Stats()
	logr.Info("database connected", zap.Int("max_open", stats.MaxOpenConnections))
}
