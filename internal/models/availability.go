package models

import (
	"time"

	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// AvailabilityRange is a window an owner has opened for booking.
type AvailabilityRange struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Start     time.Time `db:"start_at" json:"start"`
	End       time.Time `db:"end_at" json:"end"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Interval returns the range as a validated TimeRange.
func (r AvailabilityRange) Interval() (timerange.TimeRange, error) {
	return timerange.New(r.Start, r.End)
}
