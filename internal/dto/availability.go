package dto

import "time"

// PublishAvailabilityRequest opens a new window on the caller's calendar.
type PublishAvailabilityRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// FreeSlotsResponse lists bookable slots for one owner.
type FreeSlotsResponse struct {
	OwnerID     string     `json:"owner_id"`
	SlotMinutes int        `json:"slot_minutes"`
	Slots       []SlotView `json:"slots"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// SlotView is the wire shape of a free slot.
type SlotView struct {
	ID      string    `json:"id"`
	RangeID string    `json:"range_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}
