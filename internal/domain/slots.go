package domain

import (
	"sort"
	"time"
)

// SortSlots returns a copy of slots ordered by start time, then end time.
func SortSlots(slots []ScheduleSlot) []ScheduleSlot {
	sorted := make([]ScheduleSlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartTime.Equal(sorted[j].StartTime) {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		}
		return sorted[i].EndTime.Before(sorted[j].EndTime)
	})
	return sorted
}

// ValidateSlots checks a whole slot batch against now. It stops at the first
// violation in start-time order and reports it as a *SlotError.
//
// Intervals are half-open: a slot ending exactly when the next one starts is
// not an overlap.
func ValidateSlots(slots []ScheduleSlot, now time.Time) error {
	if len(slots) == 0 {
		return ErrNoSlots
	}

	sorted := SortSlots(slots)
	horizon := HorizonEnd(now)

	for i, s := range sorted {
		fail := func(err error) error {
			return &SlotError{Position: i + 1, Start: s.StartTime, End: s.EndTime, Err: err}
		}

		if !s.EndTime.After(s.StartTime) {
			return fail(ErrInvertedInterval)
		}
		if s.StartTime.Before(now) {
			return fail(ErrPastStart)
		}
		if s.StartTime.After(horizon) {
			return fail(ErrBeyondHorizon)
		}
		if s.AvailableSlots <= 0 {
			return fail(ErrInvalidCapacity)
		}
		if i+1 < len(sorted) && s.EndTime.After(sorted[i+1].StartTime) {
			return fail(ErrOverlap)
		}
	}
	return nil
}
