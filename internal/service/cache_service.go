package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

// CacheRepository persists free-slot lists keyed by owner and generation.
type CacheRepository interface {
	Generation(ctx context.Context, ownerID string) (int64, error)
	BumpGeneration(ctx context.Context, ownerID string) (int64, error)
	GetFreeSlots(ctx context.Context, ownerID string, generation int64) ([]models.Slot, error)
	SetFreeSlots(ctx context.Context, ownerID string, generation int64, slots []models.Slot, ttl time.Duration) error
}

// FreeSlotsLookup is the result of reading an owner's cached free slots.
// Generation is the one observed before the read; results computed afterwards
// must be stored under it, never under a newer one.
type FreeSlotsLookup struct {
	Slots      []models.Slot
	Hit        bool
	Generation int64

	storable bool
}

// CacheService fronts the free-slot cache. Backend failures are logged and
// reported, and callers treat them as misses.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// LookupFreeSlots snapshots the owner's generation and reads the list cached for it.
// It must run before the caller loads bookings for a miss.
func (s *CacheService) LookupFreeSlots(ctx context.Context, ownerID string) FreeSlotsLookup {
	if !s.Enabled() {
		return FreeSlotsLookup{}
	}
	gen, err := s.repo.Generation(ctx, ownerID)
	if err != nil {
		s.logger.Warn("free slots generation read failed", zap.String("owner_id", ownerID), zap.Error(err))
		return FreeSlotsLookup{}
	}

	start := time.Now()
	slots, err := s.repo.GetFreeSlots(ctx, ownerID, gen)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("free slots cache read failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return FreeSlotsLookup{Generation: gen, storable: true}
	}
	s.metrics.RecordCacheOperation(true, duration)
	return FreeSlotsLookup{Slots: slots, Hit: true, Generation: gen, storable: true}
}

// StoreFreeSlots writes slots under the generation captured by lookup.
func (s *CacheService) StoreFreeSlots(ctx context.Context, ownerID string, lookup FreeSlotsLookup, slots []models.Slot, ttl time.Duration) error {
	if !s.Enabled() || !lookup.storable {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.SetFreeSlots(ctx, ownerID, lookup.Generation, slots, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("free slots cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return err
}

// InvalidateOwner retires every list cached for the owner so far.
func (s *CacheService) InvalidateOwner(ctx context.Context, ownerID string) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.repo.BumpGeneration(ctx, ownerID); err != nil {
		s.logger.Error("free slots invalidation failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	return nil
}
