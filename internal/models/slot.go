package models

import (
	"time"

	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// Slot is a bookable unit derived from an AvailabilityRange. It is never persisted.
type Slot struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	RangeID string    `json:"range_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// SlotID builds the stable identity of a slot: source range plus start instant.
func SlotID(rangeID string, start time.Time) string {
	return rangeID + "_" + timerange.Normalize(start).Format(timerange.FormatRFC3339Milli)
}
