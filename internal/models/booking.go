package models

import "time"

// Booking is a claimed slot. Start is the exclusivity key within an owner.
type Booking struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Start        time.Time `db:"start_at" json:"start"`
	End          time.Time `db:"end_at" json:"end"`
	VisitorName  string    `db:"visitor_name" json:"visitor_name"`
	VisitorEmail string    `db:"visitor_email" json:"visitor_email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ClaimOutcome labels the result of a claim attempt for metrics.
type ClaimOutcome string

const (
	ClaimOutcomeBooked      ClaimOutcome = "booked"
	ClaimOutcomeTaken       ClaimOutcome = "taken"
	ClaimOutcomeUnavailable ClaimOutcome = "unavailable"
	ClaimOutcomeRejected    ClaimOutcome = "rejected"
	ClaimOutcomeError       ClaimOutcome = "error"
)
