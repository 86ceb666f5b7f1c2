package service

import (
	"context"

	"github.com/noah-isme/calendar-booking-api/internal/models"
)

// AvailabilityStore is the append-only persistence the availability index needs.
type AvailabilityStore interface {
	Create(ctx context.Context, rng *models.AvailabilityRange) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error)
}

// BookingStore is the persistence the booking ledger needs. InsertIfAbsent must
// check for an existing (owner, start) booking and insert as one atomic step,
// returning appErrors.ErrSlotTaken when it loses.
type BookingStore interface {
	InsertIfAbsent(ctx context.Context, booking *models.Booking) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error)
}
