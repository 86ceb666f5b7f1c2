package timerange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestNewRejectsEmptyAndInverted(t *testing.T) {
	_, err := New(at(9, 0), at(9, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRange))

	_, err = New(at(10, 0), at(9, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRange))

	// Sub-millisecond differences collapse to an empty range.
	_, err = New(at(9, 0), at(9, 0).Add(500*time.Microsecond))
	assert.True(t, errors.Is(err, appErrors.ErrInvalidRange))
}

func TestNewNormalisesToUTCMillis(t *testing.T) {
	loc := time.FixedZone("IST", 2*60*60)
	start := time.Date(2025, 3, 10, 11, 0, 0, 123456789, loc)
	r, err := New(start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, r.Start().Location())
	assert.Equal(t, 123000000, r.Start().Nanosecond())
	assert.True(t, r.Start().Equal(time.Date(2025, 3, 10, 9, 0, 0, 123000000, time.UTC)))
}

func TestCompare(t *testing.T) {
	a := MustNew(at(9, 0), at(10, 0))
	b := MustNew(at(9, 0), at(11, 0))
	c := MustNew(at(9, 30), at(10, 0))

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 0, a.Compare(MustNew(at(9, 0), at(10, 0))))
	assert.True(t, b.Contains(c))
	assert.False(t, c.Contains(b))
}

func TestSliceDropsTrailingRemainder(t *testing.T) {
	slots := Slice(MustNew(at(9, 0), at(10, 45)), 30*time.Minute)
	require.Len(t, slots, 3)
	assert.True(t, slots[0].Equal(MustNew(at(9, 0), at(9, 30))))
	assert.True(t, slots[1].Equal(MustNew(at(9, 30), at(10, 0))))
	assert.True(t, slots[2].Equal(MustNew(at(10, 0), at(10, 30))))
}

func TestSliceExactMultipleHasNoEmptyTail(t *testing.T) {
	slots := Slice(MustNew(at(9, 0), at(10, 0)), 30*time.Minute)
	require.Len(t, slots, 2)
	assert.True(t, slots[1].End().Equal(at(10, 0)))
	for _, s := range slots {
		assert.Equal(t, 30*time.Minute, s.Duration())
	}
}

func TestSliceShorterThanDuration(t *testing.T) {
	assert.Empty(t, Slice(MustNew(at(9, 0), at(9, 20)), 30*time.Minute))
	assert.Empty(t, Slice(MustNew(at(9, 0), at(10, 0)), 0))
	assert.Empty(t, Slice(TimeRange{}, 30*time.Minute))
}

func TestSliceCountMatchesFloor(t *testing.T) {
	d := 30 * time.Minute
	for minutes := 1; minutes <= 300; minutes += 7 {
		r := MustNew(at(8, 0), at(8, 0).Add(time.Duration(minutes)*time.Minute))
		slots := Slice(r, d)
		assert.Len(t, slots, minutes/30, "length %dm", minutes)
		for _, s := range slots {
			assert.Equal(t, d, s.Duration())
			assert.True(t, r.Contains(s))
		}
	}
}

func TestSliceIsRestartable(t *testing.T) {
	r := MustNew(at(9, 0), at(12, 0))
	first := Slice(r, 45*time.Minute)
	second := Slice(r, 45*time.Minute)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]))
	}
}
