package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/response"
)

type bookingService interface {
	ClaimSlot(ctx context.Context, req dto.ClaimSlotRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, ownerID string) ([]models.Booking, error)
}

type bookingExporter interface {
	ExportBookings(ctx context.Context, ownerID string, format dto.ExportFormat) (*dto.BookingExport, error)
}

// BookingHandler exposes the public claim endpoint and the owner's booking views.
type BookingHandler struct {
	service  bookingService
	exporter bookingExporter
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService, exporter bookingExporter) *BookingHandler {
	return &BookingHandler{service: service, exporter: exporter}
}

// Book godoc
// @Summary Claim a free slot
// @Description Returns 409 SLOT_TAKEN when another visitor already holds the start time.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.ClaimSlotRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /book [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req dto.ClaimSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.ClaimSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List godoc
// @Summary List bookings on the caller's calendar
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /bookings/{ownerId} [get]
func (h *BookingHandler) List(c *gin.Context) {
	ownerID, err := requireSameOwner(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(bookings))
	response.JSON(c, http.StatusOK, bookings, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download the caller's bookings
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param ownerId path string true "Owner ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /bookings/{ownerId}/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	ownerID, err := requireSameOwner(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.exporter.ExportBookings(c.Request.Context(), ownerID, dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Body)
}
