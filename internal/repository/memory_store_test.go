package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

func TestMemoryBookingStoreExclusivePerOwner(t *testing.T) {
	store := NewMemoryBookingStore()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	const racers = 32
	var wins, taken int32
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InsertIfAbsent(context.Background(), sampleBooking(start))
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, appErrors.ErrSlotTaken):
				atomic.AddInt32(&taken, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
	assert.EqualValues(t, racers-1, taken)

	other := sampleBooking(start)
	other.OwnerID = "owner-2"
	require.NoError(t, store.InsertIfAbsent(context.Background(), other))
}

func TestMemoryBookingStoreListsByStart(t *testing.T) {
	store := NewMemoryBookingStore()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{time.Hour, 0, 30 * time.Minute} {
		require.NoError(t, store.InsertIfAbsent(context.Background(), sampleBooking(base.Add(offset))))
	}

	bookings, err := store.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.True(t, bookings[0].Start.Equal(base))
	assert.True(t, bookings[2].Start.Equal(base.Add(time.Hour)))

	empty, err := store.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryAvailabilityStoreReturnsCopies(t *testing.T) {
	store := NewMemoryAvailabilityStore()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rng := &models.AvailabilityRange{OwnerID: "owner-1", Start: start, End: start.Add(time.Hour)}
	require.NoError(t, store.Create(context.Background(), rng))
	assert.NotEmpty(t, rng.ID)

	ranges, err := store.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	ranges[0].OwnerID = "mutated"

	again, err := store.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", again[0].OwnerID)
}

func TestMemoryStoresHonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryBookingStore().InsertIfAbsent(ctx, sampleBooking(time.Now())), context.Canceled)
	_, err := NewMemoryAvailabilityStore().ListByOwner(ctx, "owner-1")
	assert.ErrorIs(t, err, context.Canceled)
}
