package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	"github.com/noah-isme/calendar-booking-api/pkg/events"
	"github.com/noah-isme/calendar-booking-api/pkg/jobs"
)

type publisherStub struct {
	events []events.BookingClaimed
	err    error
}

func (p *publisherStub) PublishBookingClaimed(_ context.Context, e events.BookingClaimed) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *publisherStub) Close() error { return nil }

type queueStub struct {
	jobs []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func TestNotificationServiceRequiresQueue(t *testing.T) {
	svc := NewNotificationService(&publisherStub{}, zap.NewNop())
	assert.Error(t, svc.BookingClaimed(context.Background(), models.Booking{ID: "b-1"}))
}

func TestNotificationServiceEnqueuesAndPublishes(t *testing.T) {
	pub := &publisherStub{}
	queue := &queueStub{}
	svc := NewNotificationService(pub, zap.NewNop())
	svc.Attach(queue)

	booking := models.Booking{ID: "b-1", OwnerID: "owner-1", Start: at(9, 0), End: at(9, 30), VisitorName: "Ada", VisitorEmail: "ada@example.com"}
	require.NoError(t, svc.BookingClaimed(context.Background(), booking))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, events.TypeBookingClaimed, queue.jobs[0].Type)

	job := queue.jobs[0]
	job.ID = "job-1"
	require.NoError(t, svc.Handle(context.Background(), job))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "b-1", pub.events[0].BookingID)
	assert.Equal(t, "job-1", pub.events[0].EventID)
}

func TestNotificationServiceHandleReturnsPublishError(t *testing.T) {
	svc := NewNotificationService(&publisherStub{err: errors.New("broker down")}, zap.NewNop())
	err := svc.Handle(context.Background(), jobs.Job{ID: "j", Type: events.TypeBookingClaimed, Payload: events.BookingClaimed{BookingID: "b-1"}})
	assert.Error(t, err)
}

func TestNotificationServiceThroughQueue(t *testing.T) {
	pub := &publisherStub{}
	svc := NewNotificationService(pub, zap.NewNop())
	queue := jobs.NewQueue("notifications", svc.Handle, jobs.QueueConfig{Workers: 1})
	svc.Attach(queue)
	queue.Start(context.Background())

	require.NoError(t, svc.BookingClaimed(context.Background(), models.Booking{ID: "b-2", OwnerID: "owner-1"}))
	assert.Eventually(t, func() bool { return queue.Stats().Succeeded == 1 }, time.Second, 5*time.Millisecond)
	queue.Stop()
	require.Len(t, pub.events, 1)
	assert.Equal(t, "b-2", pub.events[0].BookingID)
}
