package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/export"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

type bookingLister interface {
	ListBookings(ctx context.Context, ownerID string) ([]models.Booking, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

var bookingExportHeaders = []string{"Booking ID", "Start (UTC)", "End (UTC)", "Visitor", "Email"}

// ExportService renders an owner's bookings for download.
type ExportService struct {
	bookings bookingLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(bookings bookingLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{bookings: bookings, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportBookings renders the owner's bookings in the requested format.
func (s *ExportService) ExportBookings(ctx context.Context, ownerID string, format dto.ExportFormat) (*dto.BookingExport, error) {
	format = dto.ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	bookings, err := s.bookings.ListBookings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dataset := buildBookingDataset(bookings)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case dto.ExportFormatPDF:
		body, err = s.pdf.Render(dataset, "Bookings "+ownerID)
		contentType = "application/pdf"
	default:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("bookings exported", zap.String("owner_id", ownerID), zap.String("format", string(format)), zap.Int("rows", len(bookings)))
	return &dto.BookingExport{
		Filename:    s.buildFilename(ownerID, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func buildBookingDataset(bookings []models.Booking) export.Dataset {
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, map[string]string{
			"Booking ID":  b.ID,
			"Start (UTC)": timerange.Normalize(b.Start).Format(timerange.FormatRFC3339Milli),
			"End (UTC)":   timerange.Normalize(b.End).Format(timerange.FormatRFC3339Milli),
			"Visitor":     b.VisitorName,
			"Email":       b.VisitorEmail,
		})
	}
	return export.Dataset{Headers: bookingExportHeaders, Rows: rows}
}

func (s *ExportService) buildFilename(ownerID string, format dto.ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("bookings_%s_%s.%s", sanitizeFilename(ownerID), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
