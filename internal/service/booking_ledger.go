package service

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// BookingLedger owns claimed slots and guarantees at most one booking per (owner, start).
// Exclusivity is delegated to the store's atomic InsertIfAbsent.
type BookingLedger struct {
	store   BookingStore
	metrics *MetricsService
}

// NewBookingLedger constructs the ledger over a store.
func NewBookingLedger(store BookingStore, metrics *MetricsService) *BookingLedger {
	return &BookingLedger{store: store, metrics: metrics}
}

// TryClaim books [start, end) for the visitor. It returns appErrors.ErrSlotTaken
// when another booking already holds the same start.
func (l *BookingLedger) TryClaim(ctx context.Context, ownerID string, start, end time.Time, visitorName, visitorEmail string) (*models.Booking, error) {
	booking := &models.Booking{
		OwnerID:      ownerID,
		Start:        timerange.Normalize(start),
		End:          timerange.Normalize(end),
		VisitorName:  visitorName,
		VisitorEmail: visitorEmail,
	}
	began := time.Now()
	err := l.store.InsertIfAbsent(ctx, booking)
	l.metrics.ObserveStore("bookings.insert", time.Since(began))
	if err != nil {
		if errors.Is(err, appErrors.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, "slot already booked, pick another time")
		}
		return nil, appErrors.Transient(err, "failed to record booking")
	}
	return booking, nil
}

// ListBookings returns the owner's bookings ordered by start ascending.
func (l *BookingLedger) ListBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	began := time.Now()
	bookings, err := l.store.ListByOwner(ctx, ownerID)
	l.metrics.ObserveStore("bookings.list", time.Since(began))
	if err != nil {
		return nil, appErrors.Transient(err, "failed to load bookings")
	}
	return bookings, nil
}
