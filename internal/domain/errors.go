package domain

import (
	"errors"
	"fmt"
	"time"
)

// Recurrence expansion failures.
var (
	ErrEmptyRecurrence        = errors.New("recurrence has no entries")
	ErrEndBeforeStart         = errors.New("end time must be after start time")
	ErrEmptyRange             = errors.New("recurrence range produces no days")
	ErrEmptyDaySet            = errors.New("at least one weekday is required")
	ErrMissingVariantInput    = errors.New("recurrence parameters missing for scheduling type")
	ErrUnknownRecurrenceType  = errors.New("unknown scheduling type")
	ErrInvalidWeekday         = errors.New("invalid weekday")
	ErrInvalidRecurrenceInput = errors.New("invalid recurrence input")
)

// Slot validation failures.
var (
	ErrNoSlots          = errors.New("schedule has no slots")
	ErrInvertedInterval = errors.New("slot end time must be after start time")
	ErrPastStart        = errors.New("slot starts in the past")
	ErrBeyondHorizon    = errors.New("slot starts beyond the booking horizon")
	ErrInvalidCapacity  = errors.New("slot capacity must be positive")
	ErrOverlap          = errors.New("slot overlaps the next slot")
)

// Cancellation policy failures.
var (
	ErrMissingRescheduleWindow = errors.New("reschedule_days_before is required for flexible rescheduling")
	ErrInvalidPolicyType       = errors.New("unknown cancellation policy type")
)

// Lifecycle failures.
var (
	ErrSchedulingTypeLocked   = errors.New("scheduling type can only change on a draft package without enrollments")
	ErrScheduleLocked         = errors.New("schedule can only change on a draft package")
	ErrActiveEnrollmentsExist = errors.New("package has active enrollments")
	ErrUnknownPackageStatus   = errors.New("unknown package status")
	ErrUnknownMutation        = errors.New("unknown mutation kind")
)

// SlotError reports the first slot rejected by ValidateSlots. Position is
// 1-based in start-time order.
type SlotError struct {
	Position int
	Start    time.Time
	End      time.Time
	Err      error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d (%s - %s): %v",
		e.Position,
		e.Start.UTC().Format(time.RFC3339),
		e.End.UTC().Format(time.RFC3339),
		e.Err,
	)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// EntryError reports a custom-date entry that could not be expanded.
type EntryError struct {
	Entry int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Entry, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// IsLifecycleError reports whether err is a lifecycle rejection rather than an
// input validation failure.
func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrSchedulingTypeLocked) ||
		errors.Is(err, ErrScheduleLocked) ||
		errors.Is(err, ErrActiveEnrollmentsExist)
}
