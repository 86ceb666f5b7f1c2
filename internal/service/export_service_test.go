package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

type bookingListerStub struct {
	bookings []models.Booking
	err      error
}

func (s bookingListerStub) ListBookings(context.Context, string) ([]models.Booking, error) {
	return s.bookings, s.err
}

func newExportServiceForTest(lister bookingLister) *ExportService {
	svc := NewExportService(lister, zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	svc := newExportServiceForTest(bookingListerStub{bookings: []models.Booking{
		{ID: "b-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute), VisitorName: "Ada", VisitorEmail: "ada@example.com"},
	}})

	out, err := svc.ExportBookings(context.Background(), "owner-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "bookings_owner-1_20240506_120000.csv", out.Filename)

	lines := strings.Split(strings.TrimSpace(string(out.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Booking ID,Start (UTC),End (UTC),Visitor,Email", lines[0])
	assert.Equal(t, "b-1,2024-05-06T09:00:00.000Z,2024-05-06T09:30:00.000Z,Ada,ada@example.com", lines[1])
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportServiceForTest(bookingListerStub{})

	out, err := svc.ExportBookings(context.Background(), "owner-1", dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, strings.HasPrefix(string(out.Body), "%PDF"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(bookingListerStub{})

	_, err := svc.ExportBookings(context.Background(), "owner-1", "xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServicePropagatesStoreFailure(t *testing.T) {
	svc := newExportServiceForTest(bookingListerStub{err: appErrors.Transient(errors.New("db down"), "")})

	_, err := svc.ExportBookings(context.Background(), "owner-1", dto.ExportFormatCSV)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTransientStore))
}
