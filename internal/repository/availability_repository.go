package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// AvailabilityRepository persists published availability ranges in PostgreSQL.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create appends a range. Ranges are never merged or updated.
func (r *AvailabilityRepository) Create(ctx context.Context, rng *models.AvailabilityRange) error {
	if rng.ID == "" {
		rng.ID = uuid.NewString()
	}
	if rng.CreatedAt.IsZero() {
		rng.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availability_ranges (id, owner_id, start_at, end_at, created_at)
VALUES (:id, :owner_id, :start_at, :end_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rng); err != nil {
		return fmt.Errorf("create availability range: %w", err)
	}
	return nil
}

// ListByOwner returns every range the owner published, in no particular order.
func (r *AvailabilityRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error) {
	const query = `SELECT id, owner_id, start_at, end_at, created_at FROM availability_ranges WHERE owner_id = $1`
	var ranges []models.AvailabilityRange
	if err := r.db.SelectContext(ctx, &ranges, query, ownerID); err != nil {
		return nil, fmt.Errorf("list availability ranges: %w", err)
	}
	for i := range ranges {
		ranges[i].Start = timerange.Normalize(ranges[i].Start)
		ranges[i].End = timerange.Normalize(ranges[i].End)
	}
	return ranges, nil
}
