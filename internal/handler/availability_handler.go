package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/response"
)

type availabilityService interface {
	PublishRange(ctx context.Context, ownerID string, req dto.PublishAvailabilityRequest) (*models.AvailabilityRange, error)
	ListRanges(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error)
	GetFreeSlots(ctx context.Context, ownerID string) ([]models.Slot, error)
	SlotDuration() time.Duration
}

// AvailabilityHandler exposes owner availability and public free-slot endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Publish godoc
// @Summary Publish an availability range
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PublishAvailabilityRequest true "Range to open"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Publish(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.PublishAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	rng, err := h.service.PublishRange(c.Request.Context(), claims.OwnerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rng)
}

// FreeSlots godoc
// @Summary List free slots of an owner
// @Tags Availability
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope{data=dto.FreeSlotsResponse}
// @Failure 500 {object} response.Envelope
// @Router /availability/{ownerId} [get]
func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	ownerID := strings.TrimSpace(c.Param("ownerId"))
	if ownerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "owner id is required"))
		return
	}
	slots, err := h.service.GetFreeSlots(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]dto.SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, dto.SlotView{ID: s.ID, RangeID: s.RangeID, Start: s.Start, End: s.End})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Start.Equal(views[j].Start) {
			return views[i].RangeID < views[j].RangeID
		}
		return views[i].Start.Before(views[j].Start)
	})

	middleware.SetMeta(c, "count", len(views))
	response.JSON(c, http.StatusOK, dto.FreeSlotsResponse{
		OwnerID:     ownerID,
		SlotMinutes: int(h.service.SlotDuration() / time.Minute),
		Slots:       views,
		GeneratedAt: time.Now().UTC(),
	}, middleware.ResponseMeta(c))
}

// Ranges godoc
// @Summary List the caller's published ranges
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /availability/{ownerId}/ranges [get]
func (h *AvailabilityHandler) Ranges(c *gin.Context) {
	ownerID, err := requireSameOwner(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ranges, err := h.service.ListRanges(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranges)
}
