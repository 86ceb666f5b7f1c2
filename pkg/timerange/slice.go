package timerange

import "time"

// Slice cuts r into consecutive intervals of length d starting at r.Start.
// A trailing remainder shorter than d is dropped, so every returned interval
// is exactly d long. A non-positive d or a range shorter than d yields nil.
func Slice(r TimeRange, d time.Duration) []TimeRange {
	if d <= 0 || r.IsZero() {
		return nil
	}
	count := int(r.Duration() / d)
	if count == 0 {
		return nil
	}

	slots := make([]TimeRange, 0, count)
	for cursor := r.start; cursor.Before(r.end); cursor = cursor.Add(d) {
		end := cursor.Add(d)
		if end.After(r.end) {
			break
		}
		slots = append(slots, TimeRange{start: cursor, end: end})
	}
	return slots
}
