// Package interval implements arithmetic over half-open minute-of-day ranges.
//
// All functions are pure: inputs are never modified and results are freshly
// allocated slices.
package interval

import (
	"fmt"
	"sort"
)

// MinutesPerDay is the upper bound of a minute-of-day value.
const MinutesPerDay = 24 * 60

// Interval is a half-open range [StartMin, EndMin) of minutes since local midnight.
type Interval struct {
	StartMin int
	EndMin   int
}

// New returns an interval with the given bounds.
func New(startMin, endMin int) Interval {
	return Interval{StartMin: startMin, EndMin: endMin}
}

// Width returns the length of the interval in minutes. Inverted intervals have zero width.
func (i Interval) Width() int {
	if i.EndMin <= i.StartMin {
		return 0
	}
	return i.EndMin - i.StartMin
}

// IsEmpty reports whether the interval has zero width.
func (i Interval) IsEmpty() bool {
	return i.Width() == 0
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return other.StartMin >= i.StartMin && other.EndMin <= i.EndMin
}

// Overlaps reports whether two half-open intervals share at least one minute.
// Touching intervals ([a,b) and [b,c)) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.StartMin < other.EndMin && other.StartMin < i.EndMin
}

// String formats the interval as "HH:mm-HH:mm".
func (i Interval) String() string {
	return FormatHHmm(i.StartMin) + "-" + FormatHHmm(i.EndMin)
}

// Clamp restricts iv to [lo, hi]. The second return value is false when the
// clamped interval has zero width.
func Clamp(iv Interval, lo, hi int) (Interval, bool) {
	start := max(iv.StartMin, lo)
	end := min(iv.EndMin, hi)
	if end <= start {
		return Interval{}, false
	}
	return Interval{StartMin: start, EndMin: end}, true
}

// Merge sorts intervals by start and folds every interval whose start is not
// after the end of the running one. Touching intervals are merged.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return []Interval{}
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].StartMin < sorted[b].StartMin
	})

	result := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.StartMin <= current.EndMin {
			current.EndMin = max(current.EndMin, next.EndMin)
			continue
		}
		result = append(result, current)
		current = next
	}
	result = append(result, current)

	return result
}

// Subtract removes busy from every working interval. busy is merged first,
// so any order and overlap is accepted. The result is ordered by start.
// Zero-width fragments are dropped.
func Subtract(working, busy []Interval) []Interval {
	busy = Merge(busy)

	ordered := make([]Interval, len(working))
	copy(ordered, working)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].StartMin < ordered[b].StartMin
	})

	result := make([]Interval, 0, len(ordered))

	for _, w := range ordered {
		cursor := w.StartMin
		for _, b := range busy {
			if b.EndMin <= cursor {
				continue
			}
			if b.StartMin >= w.EndMin {
				break
			}
			if b.StartMin > cursor {
				result = append(result, Interval{StartMin: cursor, EndMin: b.StartMin})
			}
			cursor = max(cursor, b.EndMin)
			if cursor >= w.EndMin {
				break
			}
		}
		if cursor < w.EndMin {
			result = append(result, Interval{StartMin: cursor, EndMin: w.EndMin})
		}
	}

	return result
}

// FilterByDuration keeps intervals at least minDuration minutes wide.
// Intervals are never split into slots.
func FilterByDuration(intervals []Interval, minDuration int) []Interval {
	result := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Width() >= minDuration {
			result = append(result, iv)
		}
	}
	return result
}

// FormatHHmm renders a minute-of-day as a zero-padded "HH:mm" string.
// 1440 renders as "24:00".
func FormatHHmm(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
