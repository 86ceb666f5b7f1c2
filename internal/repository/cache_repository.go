package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

const (
	freeSlotsKeyPrefix  = "availability:free:"
	generationKeyPrefix = "availability:gen:"

	// generationTTL must outlive any free-slot entry written under the generation.
	generationTTL = 7 * 24 * time.Hour
)

// FreeSlotsKey is the Redis key holding an owner's free slots as of generation.
func FreeSlotsKey(ownerID string, generation int64) string {
	return fmt.Sprintf("%s%s:%d", freeSlotsKeyPrefix, ownerID, generation)
}

// GenerationKey is the Redis counter bumped whenever an owner's calendar changes.
func GenerationKey(ownerID string) string {
	return generationKeyPrefix + ownerID
}

// CacheRepository keeps free-slot lists in Redis, versioned per owner.
// Entries are never overwritten in place: a calendar change bumps the owner's
// generation so lists computed before the change land on keys nobody reads.
// A nil client behaves as an always-missing cache.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Generation returns the owner's current generation, zero when never bumped.
func (r *CacheRepository) Generation(ctx context.Context, ownerID string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, GenerationKey(ownerID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation %s: %w", ownerID, err)
	}
	return gen, nil
}

// BumpGeneration advances the owner's generation and returns the new value.
func (r *CacheRepository) BumpGeneration(ctx context.Context, ownerID string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	key := GenerationKey(ownerID)
	gen, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr generation %s: %w", ownerID, err)
	}
	if err := r.client.Expire(ctx, key, generationTTL).Err(); err != nil {
		r.logger.Warn("failed to refresh generation ttl", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return gen, nil
}

// GetFreeSlots loads the list cached for the owner at generation.
func (r *CacheRepository) GetFreeSlots(ctx context.Context, ownerID string, generation int64) ([]models.Slot, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	key := FreeSlotsKey(ownerID, generation)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var slots []models.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		r.logger.Warn("discarding undecodable free slots", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, appErrors.ErrCacheMiss
	}
	return slots, nil
}

// SetFreeSlots stores the list computed at generation.
func (r *CacheRepository) SetFreeSlots(ctx context.Context, ownerID string, generation int64, slots []models.Slot, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal free slots for %s: %w", ownerID, err)
	}
	key := FreeSlotsKey(ownerID, generation)
	if err := r.client.Set(ctx, key, string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
