package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

type availabilityServiceMock struct {
	slots      []models.Slot
	slotsErr   error
	published  *models.AvailabilityRange
	publishErr error
	lastOwner  string
	lastReq    dto.PublishAvailabilityRequest
	rangesResp []models.AvailabilityRange
}

func (m *availabilityServiceMock) PublishRange(_ context.Context, ownerID string, req dto.PublishAvailabilityRequest) (*models.AvailabilityRange, error) {
	m.lastOwner = ownerID
	m.lastReq = req
	return m.published, m.publishErr
}

func (m *availabilityServiceMock) ListRanges(_ context.Context, ownerID string) ([]models.AvailabilityRange, error) {
	m.lastOwner = ownerID
	return m.rangesResp, nil
}

func (m *availabilityServiceMock) GetFreeSlots(_ context.Context, ownerID string) ([]models.Slot, error) {
	m.lastOwner = ownerID
	return m.slots, m.slotsErr
}

func (m *availabilityServiceMock) SlotDuration() time.Duration { return 30 * time.Minute }

func slotAt(rangeID string, hour, minute int) models.Slot {
	start := time.Date(2024, 5, 6, hour, minute, 0, 0, time.UTC)
	return models.Slot{ID: models.SlotID(rangeID, start), RangeID: rangeID, OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute)}
}

func TestAvailabilityHandlerFreeSlotsSortedByStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{slots: []models.Slot{slotAt("r2", 10, 0), slotAt("r1", 9, 0), slotAt("r1", 9, 30)}}
	handler := NewAvailabilityHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/availability/owner-1", nil)
	c.Params = gin.Params{{Key: "ownerId", Value: "owner-1"}}

	handler.FreeSlots(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-1", mockSvc.lastOwner)

	var body struct {
		Data dto.FreeSlotsResponse  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Slots, 3)
	assert.Equal(t, 30, body.Data.SlotMinutes)
	assert.Equal(t, 9, body.Data.Slots[0].Start.Hour())
	assert.Equal(t, 30, body.Data.Slots[1].Start.Minute())
	assert.Equal(t, "r2", body.Data.Slots[2].RangeID)
	assert.EqualValues(t, 3, body.Meta["count"])
}

func TestAvailabilityHandlerFreeSlotsStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAvailabilityHandler(&availabilityServiceMock{slotsErr: appErrors.Transient(assert.AnError, "")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/availability/owner-1", nil)
	c.Params = gin.Params{{Key: "ownerId", Value: "owner-1"}}

	handler.FreeSlots(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "TRANSIENT_STORE_FAILURE")
}

func TestAvailabilityHandlerPublishUsesTokenOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{published: &models.AvailabilityRange{ID: "r1", OwnerID: "owner-1"}}
	handler := NewAvailabilityHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/availability", bytes.NewBufferString(`{"start":"2024-05-06T09:00:00Z","end":"2024-05-06T10:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextOwnerKey, &models.OwnerClaims{OwnerID: "owner-1"})

	handler.Publish(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "owner-1", mockSvc.lastOwner)
	assert.Equal(t, 9, mockSvc.lastReq.Start.Hour())
}

func TestAvailabilityHandlerPublishInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAvailabilityHandler(&availabilityServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/api/availability", bytes.NewBufferString(`{"start":"tomorrow"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextOwnerKey, &models.OwnerClaims{OwnerID: "owner-1"})

	handler.Publish(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerRangesForbiddenForOtherOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAvailabilityHandler(&availabilityServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/availability/owner-2/ranges", nil)
	c.Params = gin.Params{{Key: "ownerId", Value: "owner-2"}}
	c.Set(middleware.ContextOwnerKey, &models.OwnerClaims{OwnerID: "owner-1"})

	handler.Ranges(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
