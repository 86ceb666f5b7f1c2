package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/calendar-booking-api/internal/dto"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/timerange"
)

// Defaults applied when AvailabilityConfig leaves a field zero.
const (
	DefaultSlotDuration      = 30 * time.Minute
	DefaultMaxRange          = 90 * 24 * time.Hour
	DefaultMaxRangesPerOwner = 100
)

type bookingNotifier interface {
	BookingClaimed(ctx context.Context, booking models.Booking) error
}

// AvailabilityConfig tunes slot derivation and claim handling.
type AvailabilityConfig struct {
	SlotDuration time.Duration
	StrictClaims bool
	CacheTTL     time.Duration

	// MaxRange bounds a single published range and MaxRangesPerOwner bounds how
	// many ranges one owner may hold. Together they cap the slots a read derives.
	MaxRange          time.Duration
	MaxRangesPerOwner int
}

// AvailabilityService derives free slots and arbitrates claims for owners.
type AvailabilityService struct {
	index     *AvailabilityIndex
	ledger    *BookingLedger
	cache     *CacheService
	notifier  bookingNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AvailabilityConfig
}

// NewAvailabilityService wires the service. cache and notifier may be nil.
func NewAvailabilityService(index *AvailabilityIndex, ledger *BookingLedger, cache *CacheService, notifier bookingNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = DefaultSlotDuration
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = DefaultMaxRange
	}
	if cfg.MaxRangesPerOwner <= 0 {
		cfg.MaxRangesPerOwner = DefaultMaxRangesPerOwner
	}
	return &AvailabilityService{
		index:     index,
		ledger:    ledger,
		cache:     cache,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// SlotDuration returns the configured slicing duration.
func (s *AvailabilityService) SlotDuration() time.Duration {
	return s.cfg.SlotDuration
}

// PublishRange opens [start, end) on the owner's calendar.
func (s *AvailabilityService) PublishRange(ctx context.Context, ownerID string, req dto.PublishAvailabilityRequest) (*models.AvailabilityRange, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	interval, err := timerange.New(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if interval.Duration() > s.cfg.MaxRange {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("availability range must not exceed %s", s.cfg.MaxRange))
	}
	existing, err := s.index.ListRanges(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.cfg.MaxRangesPerOwner {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("owner already has the maximum of %d availability ranges", s.cfg.MaxRangesPerOwner))
	}
	rng, err := s.index.Add(ctx, ownerID, interval)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	s.logger.Info("availability published",
		zap.String("owner_id", ownerID),
		zap.String("range_id", rng.ID),
		zap.Time("start", rng.Start),
		zap.Time("end", rng.End),
	)
	return rng, nil
}

// ListRanges returns the ranges an owner has published.
func (s *AvailabilityService) ListRanges(ctx context.Context, ownerID string) ([]models.AvailabilityRange, error) {
	return s.index.ListRanges(ctx, ownerID)
}

// ListBookings returns the owner's bookings ordered by start.
func (s *AvailabilityService) ListBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return s.ledger.ListBookings(ctx, ownerID)
}

// GetFreeSlots slices every published range and removes slots whose start is
// already booked. The result order is unspecified.
func (s *AvailabilityService) GetFreeSlots(ctx context.Context, ownerID string) ([]models.Slot, error) {
	// The generation is read before bookings so a claim committed mid-read
	// retires whatever this call ends up caching.
	lookup := s.cache.LookupFreeSlots(ctx, ownerID)
	if lookup.Hit {
		s.metrics.ObserveFreeSlots(len(lookup.Slots))
		return lookup.Slots, nil
	}

	universe, err := s.deriveSlots(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.ledger.ListBookings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	booked := make(map[int64]struct{}, len(bookings))
	for _, b := range bookings {
		booked[timerange.Normalize(b.Start).UnixMilli()] = struct{}{}
	}

	free := make([]models.Slot, 0, len(universe))
	for _, slot := range universe {
		if _, taken := booked[slot.Start.UnixMilli()]; taken {
			continue
		}
		free = append(free, slot)
	}

	_ = s.cache.StoreFreeSlots(ctx, ownerID, lookup, free, s.cfg.CacheTTL)
	s.metrics.ObserveFreeSlots(len(free))
	return free, nil
}

// ClaimSlot books a slot for a visitor. Validation failures never reach the ledger.
func (s *AvailabilityService) ClaimSlot(ctx context.Context, req dto.ClaimSlotRequest) (*models.Booking, error) {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	req.VisitorEmail = strings.TrimSpace(req.VisitorEmail)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordClaim(models.ClaimOutcomeRejected)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "visitor name and email are required")
	}
	interval, err := timerange.New(req.Start, req.End)
	if err != nil {
		s.metrics.RecordClaim(models.ClaimOutcomeRejected)
		return nil, err
	}

	if s.cfg.StrictClaims {
		offered, err := s.isOffered(ctx, req.OwnerID, interval)
		if err != nil {
			s.metrics.RecordClaim(models.ClaimOutcomeError)
			return nil, err
		}
		if !offered {
			s.metrics.RecordClaim(models.ClaimOutcomeUnavailable)
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot is not offered by the owner")
		}
	}

	booking, err := s.ledger.TryClaim(ctx, req.OwnerID, interval.Start(), interval.End(), req.VisitorName, req.VisitorEmail)
	if err != nil {
		if errors.Is(err, appErrors.ErrSlotTaken) {
			s.metrics.RecordClaim(models.ClaimOutcomeTaken)
		} else {
			s.metrics.RecordClaim(models.ClaimOutcomeError)
			s.logger.Error("claim failed", zap.String("owner_id", req.OwnerID), zap.Time("start", interval.Start()), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.RecordClaim(models.ClaimOutcomeBooked)
	s.invalidate(ctx, req.OwnerID)

	if s.notifier != nil {
		if err := s.notifier.BookingClaimed(ctx, *booking); err != nil {
			s.logger.Warn("failed to enqueue booking notification", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}
	s.logger.Info("slot booked",
		zap.String("owner_id", booking.OwnerID),
		zap.String("booking_id", booking.ID),
		zap.Time("start", booking.Start),
	)
	return booking, nil
}

// deriveSlots slices every range of the owner without looking at bookings.
func (s *AvailabilityService) deriveSlots(ctx context.Context, ownerID string) ([]models.Slot, error) {
	ranges, err := s.index.ListRanges(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var slots []models.Slot
	for _, rng := range ranges {
		interval, err := rng.Interval()
		if err != nil {
			s.logger.Warn("skipping invalid availability range", zap.String("range_id", rng.ID), zap.Error(err))
			continue
		}
		for _, piece := range timerange.Slice(interval, s.cfg.SlotDuration) {
			slots = append(slots, models.Slot{
				ID:      models.SlotID(rng.ID, piece.Start()),
				OwnerID: ownerID,
				RangeID: rng.ID,
				Start:   piece.Start(),
				End:     piece.End(),
			})
		}
	}
	return slots, nil
}

func (s *AvailabilityService) isOffered(ctx context.Context, ownerID string, interval timerange.TimeRange) (bool, error) {
	slots, err := s.deriveSlots(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Start.Equal(interval.Start()) && slot.End.Equal(interval.End()) {
			return true, nil
		}
	}
	return false, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, ownerID string) {
	_ = s.cache.InvalidateOwner(ctx, ownerID)
}
