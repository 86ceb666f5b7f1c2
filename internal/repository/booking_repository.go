package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

const uniqueViolation = "23505"

// BookingRepository persists bookings. The bookings_owner_start_key constraint
// makes (owner_id, start_at) unique, which is what serialises competing claims.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// InsertIfAbsent stores the booking unless the owner already has one at the same start.
// A collision returns appErrors.ErrSlotTaken and writes nothing.
func (r *BookingRepository) InsertIfAbsent(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bookings (id, owner_id, start_at, end_at, visitor_name, visitor_email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_id, start_at) DO NOTHING RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query,
		booking.ID,
		booking.OwnerID,
		booking.Start,
		booking.End,
		booking.VisitorName,
		booking.VisitorEmail,
		booking.CreatedAt,
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || IsUniqueViolation(err) {
			return appErrors.ErrSlotTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's bookings ordered by start ascending.
func (r *BookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	const query = `SELECT id, owner_id, start_at, end_at, visitor_name, visitor_email, created_at
FROM bookings WHERE owner_id = $1 ORDER BY start_at ASC, id ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, ownerID); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for i := range bookings {
		bookings[i].Start = timerange.Normalize(bookings[i].Start)
		bookings[i].End = timerange.Normalize(bookings[i].End)
	}
	return bookings, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
