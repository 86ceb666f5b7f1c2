package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	"github.com/noah-isme/calendar-booking-api/pkg/events"
	"github.com/noah-isme/calendar-booking-api/pkg/jobs"
)

const bookingClaimedJob = events.TypeBookingClaimed

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService hands booking events to the background queue so a slow
// broker never delays the claim response.
type NotificationService struct {
	queue     jobQueue
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService builds the service. Call Attach before use.
func NewNotificationService(publisher events.Publisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{publisher: publisher, logger: logger, now: time.Now}
}

// Attach sets the queue that receives booking jobs.
func (s *NotificationService) Attach(queue jobQueue) {
	s.queue = queue
}

// BookingClaimed schedules a booking.claimed event.
func (s *NotificationService) BookingClaimed(_ context.Context, booking models.Booking) error {
	if s.queue == nil {
		return fmt.Errorf("notification queue not attached")
	}
	event := events.BookingClaimed{
		BookingID:    booking.ID,
		OwnerID:      booking.OwnerID,
		Start:        booking.Start,
		End:          booking.End,
		VisitorName:  booking.VisitorName,
		VisitorEmail: booking.VisitorEmail,
		OccurredAt:   s.now().UTC(),
	}
	return s.queue.Enqueue(jobs.Job{Type: bookingClaimedJob, Payload: event})
}

// Handle is the queue handler that publishes scheduled events.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != bookingClaimedJob {
		s.logger.Warn("unknown notification job", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return nil
	}
	event, ok := job.Payload.(events.BookingClaimed)
	if !ok {
		s.logger.Error("malformed notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if event.EventID == "" {
		event.EventID = job.ID
	}
	if err := s.publisher.PublishBookingClaimed(ctx, event); err != nil {
		return fmt.Errorf("publish booking %s: %w", event.BookingID, err)
	}
	return nil
}
