package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func slotAt(start time.Time, d time.Duration, capacity int) ScheduleSlot {
	return ScheduleSlot{StartTime: start, EndTime: start.Add(d), AvailableSlots: capacity}
}

func TestValidateSlots_Rules(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	base := now.Add(24 * time.Hour)

	tests := []struct {
		name         string
		slots        []ScheduleSlot
		wantErr      error
		wantPosition int
	}{
		{
			name:    "empty",
			slots:   nil,
			wantErr: ErrNoSlots,
		},
		{
			name:         "inverted interval",
			slots:        []ScheduleSlot{{StartTime: base, EndTime: base, AvailableSlots: 1}},
			wantErr:      ErrInvertedInterval,
			wantPosition: 1,
		},
		{
			name:         "past start",
			slots:        []ScheduleSlot{slotAt(now.Add(-time.Minute), time.Hour, 1)},
			wantErr:      ErrPastStart,
			wantPosition: 1,
		},
		{
			name: "beyond horizon",
			slots: []ScheduleSlot{
				slotAt(base, time.Hour, 1),
				slotAt(HorizonEnd(now).Add(time.Minute), time.Hour, 1),
			},
			wantErr:      ErrBeyondHorizon,
			wantPosition: 2,
		},
		{
			name:         "zero capacity",
			slots:        []ScheduleSlot{slotAt(base, time.Hour, 0)},
			wantErr:      ErrInvalidCapacity,
			wantPosition: 1,
		},
		{
			name: "overlap reported on earlier slot after sorting",
			slots: []ScheduleSlot{
				slotAt(base.Add(48*time.Hour), time.Hour, 1),
				slotAt(base.Add(30*time.Minute), time.Hour, 1),
				slotAt(base, time.Hour, 1),
			},
			wantErr:      ErrOverlap,
			wantPosition: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlots(tt.slots, now)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)

			if tt.wantPosition == 0 {
				return
			}
			var slotErr *SlotError
			require.True(t, errors.As(err, &slotErr))
			require.Equal(t, tt.wantPosition, slotErr.Position)
		})
	}
}

func TestValidateSlots_BoundariesAccepted(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	slots := []ScheduleSlot{
		slotAt(HorizonEnd(now), time.Hour, 1),
		slotAt(now, time.Hour, 1),
		slotAt(now.Add(time.Hour), time.Hour, 1),
	}
	require.NoError(t, ValidateSlots(slots, now))
}

func TestValidateSlots_DoesNotReorderInput(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	later := slotAt(now.Add(48*time.Hour), time.Hour, 1)
	earlier := slotAt(now.Add(24*time.Hour), time.Hour, 1)

	in := []ScheduleSlot{later, earlier}
	require.NoError(t, ValidateSlots(in, now))
	require.Equal(t, later, in[0])

	sorted := SortSlots(in)
	require.Equal(t, earlier, sorted[0])
	require.Equal(t, later, sorted[1])
}

// Every accepted batch is strictly chained and inside [now, horizon].
func TestValidateSlots_AcceptedBatchInvariants(t *testing.T) {
	now := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	specs := []RecurrenceSpec{
		Daily{
			Start:     DateOf(now).AddDays(1),
			SlotStart: TimeOfDay{Hour: 6},
			SlotEnd:   TimeOfDay{Hour: 23, Minute: 59},
			Capacity:  2,
		},
		Weekly{
			Start:      DateOf(now).AddDays(1),
			DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday},
			SlotStart:  TimeOfDay{Hour: 10},
			SlotEnd:    TimeOfDay{Hour: 12},
			Capacity:   8,
		},
	}

	for _, spec := range specs {
		slots, err := BuildSchedule(spec, now, time.UTC)
		require.NoError(t, err)
		require.NotEmpty(t, slots)

		horizon := HorizonEnd(now)
		for i, s := range slots {
			require.False(t, s.StartTime.Before(now))
			require.False(t, s.StartTime.After(horizon))
			if i+1 < len(slots) {
				require.False(t, s.EndTime.After(slots[i+1].StartTime))
			}
		}
	}
}
