package service

import (
	"context"
	"time"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// AvailabilityIndex owns the ranges each owner has published.
// Overlapping ranges are kept as-is and sliced independently.
type AvailabilityIndex struct {
	store   AvailabilityStore
	metrics *MetricsService
}

// NewAvailabilityIndex constructs the index over a store.
func NewAvailabilityIndex(store AvailabilityStore, metrics *MetricsService) *AvailabilityIndex {
	return &AvailabilityIndex{store: store, metrics: metrics}
}

// Add appends a range under a fresh identifier.
func (i *AvailabilityIndex) Add(ctx context.Context, ownerID string, interval timerange.TimeRange) (*models.AvailabilityRange, error) {
	rng := &models.AvailabilityRange{
		OwnerID: ownerID,
		Start:   interval.Start(),
		End:     interval.End(),
	}
	start := time.Now()
	err := i.store.Create(ctx, rng)
	i.metrics.ObserveStore("availability.create", time.Since(start))
	if err != nil {
		return nil, appErrors.Transient(err, "failed to store availability range")
	}
	i.metrics.RecordRangePublished()
	return rng, nil
}

// ListRanges returns the owner's ranges. Callers must not rely on their order.
func (i *AvailabilityIndex) ListRanges(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error) {
	start := time.Now()
	ranges, err := i.store.ListByOwner(ctx, ownerID)
	i.metrics.ObserveStore("availability.list", time.Since(start))
	if err != nil {
		return nil, appErrors.Transient(err, "failed to load availability")
	}
	return ranges, nil
}
