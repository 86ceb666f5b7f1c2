// Package timerange holds the half-open interval value type and the slot slicer
// used to turn published availability into bookable units.
package timerange

import (
	"time"

	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

// Precision is the resolution at which instants are compared and stored.
const Precision = time.Millisecond

// TimeRange is an immutable half-open interval [start, end).
type TimeRange struct {
	start time.Time
	end   time.Time
}

// New builds a TimeRange. It fails with ErrInvalidRange unless start < end
// once both instants are normalised.
func New(start, end time.Time) (TimeRange, error) {
	start = Normalize(start)
	end = Normalize(end)
	if !start.Before(end) {
		return TimeRange{}, appErrors.Clone(appErrors.ErrInvalidRange, "end must be after start")
	}
	return TimeRange{start: start, end: end}, nil
}

// MustNew is New for fixtures and constants; it panics on an invalid range.
func MustNew(start, end time.Time) TimeRange {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Normalize converts t to UTC at millisecond precision, the form used for slot keys.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}

// Start returns the inclusive lower bound.
func (r TimeRange) Start() time.Time { return r.start }

// End returns the exclusive upper bound.
func (r TimeRange) End() time.Time { return r.end }

// Duration returns end - start.
func (r TimeRange) Duration() time.Duration { return r.end.Sub(r.start) }

// IsZero reports whether r is the zero value.
func (r TimeRange) IsZero() bool { return r.start.IsZero() && r.end.IsZero() }

// Equal compares both bounds.
func (r TimeRange) Equal(other TimeRange) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

// Compare orders ranges by (start, end) and returns -1, 0 or 1.
func (r TimeRange) Compare(other TimeRange) int {
	switch {
	case r.start.Before(other.start):
		return -1
	case r.start.After(other.start):
		return 1
	case r.end.Before(other.end):
		return -1
	case r.end.After(other.end):
		return 1
	default:
		return 0
	}
}

// Contains reports whether other lies fully inside r.
func (r TimeRange) Contains(other TimeRange) bool {
	return !other.start.Before(r.start) && !other.end.After(r.end)
}

// String renders the range as [start, end) in RFC3339 with milliseconds.
func (r TimeRange) String() string {
	return "[" + r.start.Format(FormatRFC3339Milli) + ", " + r.end.Format(FormatRFC3339Milli) + ")"
}

// FormatRFC3339Milli is the wire format for slot instants.
const FormatRFC3339Milli = "2006-01-02T15:04:05.000Z07:00"
