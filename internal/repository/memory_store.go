package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

// MemoryAvailabilityStore keeps ranges in process memory. Used by STORE_BACKEND=memory and tests.
type MemoryAvailabilityStore struct {
	mu     sync.RWMutex
	ranges map[string][]models.AvailabilityRange
}

// NewMemoryAvailabilityStore constructs an empty store.
func NewMemoryAvailabilityStore() *MemoryAvailabilityStore {
	return &MemoryAvailabilityStore{ranges: make(map[string][]models.AvailabilityRange)}
}

// Create appends a range for its owner.
func (s *MemoryAvailabilityStore) Create(ctx context.Context, rng *models.AvailabilityRange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rng.ID == "" {
		rng.ID = uuid.NewString()
	}
	if rng.CreatedAt.IsZero() {
		rng.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.ranges[rng.OwnerID] = append(s.ranges[rng.OwnerID], *rng)
	s.mu.Unlock()
	return nil
}

// ListByOwner returns a copy of the owner's ranges.
func (s *MemoryAvailabilityStore) ListByOwner(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AvailabilityRange, len(s.ranges[ownerID]))
	copy(out, s.ranges[ownerID])
	return out, nil
}

// MemoryBookingStore keeps bookings in process memory, partitioned by owner.
// Each partition has its own lock so the start collision check and the insert
// happen as one step.
type MemoryBookingStore struct {
	mu         sync.Mutex
	partitions map[string]*bookingPartition
}

type bookingPartition struct {
	mu      sync.Mutex
	byStart map[int64]models.Booking
}

// NewMemoryBookingStore constructs an empty store.
func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{partitions: make(map[string]*bookingPartition)}
}

func (s *MemoryBookingStore) partition(ownerID string) *bookingPartition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[ownerID]
	if !ok {
		p = &bookingPartition{byStart: make(map[int64]models.Booking)}
		s.partitions[ownerID] = p
	}
	return p
}

// InsertIfAbsent stores the booking unless its start is already claimed for the owner.
func (s *MemoryBookingStore) InsertIfAbsent(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.partition(booking.OwnerID)
	key := booking.Start.UnixMilli()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.byStart[key]; taken {
		return appErrors.ErrSlotTaken
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	p.byStart[key] = *booking
	return nil
}

// ListByOwner returns the owner's bookings ordered by start ascending.
func (s *MemoryBookingStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.partition(ownerID)
	p.mu.Lock()
	out := make([]models.Booking, 0, len(p.byStart))
	for _, b := range p.byStart {
		out = append(out, b)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
