package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	"github.com/noah-isme/calendar-booking-api/internal/repository"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu          sync.Mutex
	generations map[string]int64
	entries     map[string][]models.Slot
	getErr      error
	gets        int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{generations: map[string]int64{}, entries: map[string][]models.Slot{}}
}

func (r *memoryCacheRepo) Generation(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[ownerID], nil
}

func (r *memoryCacheRepo) BumpGeneration(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[ownerID]++
	return r.generations[ownerID], nil
}

func (r *memoryCacheRepo) GetFreeSlots(_ context.Context, ownerID string, generation int64) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	slots, ok := r.entries[repository.FreeSlotsKey(ownerID, generation)]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return append([]models.Slot(nil), slots...), nil
}

func (r *memoryCacheRepo) SetFreeSlots(_ context.Context, ownerID string, generation int64, slots []models.Slot, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[repository.FreeSlotsKey(ownerID, generation)] = append([]models.Slot(nil), slots...)
	return nil
}

// gatedBookingStore pauses the first ListByOwner until release is closed.
type gatedBookingStore struct {
	BookingStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedBookingStore(inner BookingStore) *gatedBookingStore {
	return &gatedBookingStore{BookingStore: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedBookingStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	bookings, err := s.BookingStore.ListByOwner(ctx, ownerID)
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return bookings, err
}

func newCachedAvailabilityService(repo *memoryCacheRepo, bookings BookingStore) *AvailabilityService {
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	return NewAvailabilityService(
		NewAvailabilityIndex(repository.NewMemoryAvailabilityStore(), metrics),
		NewBookingLedger(bookings, metrics),
		cache, nil, metrics, nil, zap.NewNop(), AvailabilityConfig{},
	)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	ctx := context.Background()

	lookup := svc.LookupFreeSlots(ctx, testOwner)
	assert.False(t, lookup.Hit)
	require.NoError(t, svc.StoreFreeSlots(ctx, testOwner, lookup, []models.Slot{{ID: "s"}}, 0))
	require.NoError(t, svc.InvalidateOwner(ctx, testOwner))
	assert.Zero(t, repo.gets)
	assert.Empty(t, repo.entries)
	assert.Empty(t, repo.generations)
}

func TestCacheServiceMissAndHit(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	lookup := svc.LookupFreeSlots(ctx, testOwner)
	assert.False(t, lookup.Hit)

	slots := []models.Slot{{ID: "r_2024-05-06T09:00:00.000Z", OwnerID: testOwner, Start: at(9, 0), End: at(9, 30)}}
	require.NoError(t, svc.StoreFreeSlots(ctx, testOwner, lookup, slots, 0))

	lookup = svc.LookupFreeSlots(ctx, testOwner)
	assert.True(t, lookup.Hit)
	assert.Equal(t, slots, lookup.Slots)
}

func TestCacheServiceTreatsBackendErrorAsMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	lookup := svc.LookupFreeSlots(context.Background(), testOwner)
	assert.False(t, lookup.Hit)
	assert.Nil(t, lookup.Slots)
}

func TestCacheServiceInvalidateRetiresOlderGeneration(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	stale := svc.LookupFreeSlots(ctx, testOwner)
	require.NoError(t, svc.InvalidateOwner(ctx, testOwner))
	require.NoError(t, svc.StoreFreeSlots(ctx, testOwner, stale, []models.Slot{{ID: "old"}}, 0))

	lookup := svc.LookupFreeSlots(ctx, testOwner)
	assert.False(t, lookup.Hit)
	assert.Equal(t, int64(1), lookup.Generation)
}

func TestFreeSlotsCacheInvalidatedOnClaim(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := newCachedAvailabilityService(repo, repository.NewMemoryBookingStore())
	ctx := context.Background()
	_, err := svc.PublishRange(ctx, testOwner, dto.PublishAvailabilityRequest{Start: at(9, 0), End: at(10, 0)})
	require.NoError(t, err)

	slots, err := svc.GetFreeSlots(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Contains(t, repo.entries, repository.FreeSlotsKey(testOwner, 1))

	cached, err := svc.GetFreeSlots(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, sortedStarts(slots), sortedStarts(cached))

	_, err = svc.ClaimSlot(ctx, claimRequest(at(9, 0), at(9, 30)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), repo.generations[testOwner])

	slots, err = svc.GetFreeSlots(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, at(9, 30), slots[0].Start)
}

func TestFreeSlotsReadOverlappingClaimDoesNotResurrectSlot(t *testing.T) {
	repo := newMemoryCacheRepo()
	bookings := newGatedBookingStore(repository.NewMemoryBookingStore())
	svc := newCachedAvailabilityService(repo, bookings)
	ctx := context.Background()
	_, err := svc.PublishRange(ctx, testOwner, dto.PublishAvailabilityRequest{Start: at(9, 0), End: at(10, 0)})
	require.NoError(t, err)

	type result struct {
		slots []models.Slot
		err   error
	}
	inflight := make(chan result, 1)
	go func() {
		slots, err := svc.GetFreeSlots(ctx, testOwner)
		inflight <- result{slots: slots, err: err}
	}()

	select {
	case <-bookings.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("read never reached the booking store")
	}
	_, err = svc.ClaimSlot(ctx, claimRequest(at(9, 0), at(9, 30)))
	require.NoError(t, err)
	close(bookings.release)

	first := <-inflight
	require.NoError(t, first.err)
	assert.Len(t, first.slots, 2, "the overlapping read saw bookings from before the claim")

	slots, err := svc.GetFreeSlots(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, at(9, 30), slots[0].Start)
}
