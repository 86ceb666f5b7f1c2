package dto

import "time"

// ClaimSlotRequest is posted by a visitor to book one slot.
type ClaimSlotRequest struct {
	OwnerID      string    `json:"owner_id" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	VisitorName  string    `json:"visitor_name" validate:"required,max=200"`
	VisitorEmail string    `json:"visitor_email" validate:"required,max=320"`
}

// ExportFormat selects the rendering of a booking export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// BookingExport is a rendered booking list ready to stream.
type BookingExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
