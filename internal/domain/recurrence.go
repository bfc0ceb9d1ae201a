package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

type SchedulingType string

const (
	SchedulingTypeCustomDates SchedulingType = "CUSTOM_DATES"
	SchedulingTypeDaily       SchedulingType = "DAILY"
	SchedulingTypeWeekly      SchedulingType = "WEEKLY"
)

// BookingHorizonMonths bounds how far ahead of now a slot may start.
const BookingHorizonMonths = 2

// HorizonEnd returns the latest instant a slot may start for the given now.
func HorizonEnd(now time.Time) time.Time {
	return now.AddDate(0, BookingHorizonMonths, 0)
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRecurrenceInput, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.midnightUTC().Before(o.midnightUTC())
}

func (d Date) Weekday() time.Weekday {
	return d.midnightUTC().Weekday()
}

func (d Date) String() string {
	return d.midnightUTC().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

const timeOfDayLayout = "15:04"

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidRecurrenceInput, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.minutes() < o.minutes()
}

// On combines the time of day with a date in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RecurrenceSpec is implemented by CustomDates, Daily and Weekly only.
type RecurrenceSpec interface {
	SchedulingType() SchedulingType
	expand(now time.Time, loc *time.Location) ([]ScheduleSlot, error)
}

type CustomDateEntry struct {
	Date      Date      `json:"date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	Capacity  int       `json:"capacity"`
}

type CustomDates struct {
	Entries []CustomDateEntry
}

type Daily struct {
	Start     Date      `json:"recurrence_start"`
	End       *Date     `json:"recurrence_end,omitempty"`
	SlotStart TimeOfDay `json:"slot_start"`
	SlotEnd   TimeOfDay `json:"slot_end"`
	Capacity  int       `json:"capacity"`
}

type Weekly struct {
	Start      Date           `json:"recurrence_start"`
	End        *Date          `json:"recurrence_end,omitempty"`
	DaysOfWeek []time.Weekday `json:"days_of_week"`
	SlotStart  TimeOfDay      `json:"slot_start"`
	SlotEnd    TimeOfDay      `json:"slot_end"`
	Capacity   int            `json:"capacity"`
}

func (CustomDates) SchedulingType() SchedulingType { return SchedulingTypeCustomDates }
func (Daily) SchedulingType() SchedulingType       { return SchedulingTypeDaily }
func (Weekly) SchedulingType() SchedulingType      { return SchedulingTypeWeekly }

// RecurrenceRecord is the flat form of a RecurrenceSpec used for storage and
// on the wire: a type flag plus one payload per scheduling type.
type RecurrenceRecord struct {
	Type        SchedulingType    `json:"type"`
	CustomDates []CustomDateEntry `json:"custom_dates,omitempty"`
	Daily       *Daily            `json:"daily,omitempty"`
	Weekly      *Weekly           `json:"weekly,omitempty"`
}

// Spec returns the payload selected by Type.
func (r RecurrenceRecord) Spec() (RecurrenceSpec, error) {
	switch r.Type {
	case SchedulingTypeCustomDates:
		if r.CustomDates == nil {
			return nil, ErrMissingVariantInput
		}
		return CustomDates{Entries: r.CustomDates}, nil
	case SchedulingTypeDaily:
		if r.Daily == nil {
			return nil, ErrMissingVariantInput
		}
		return *r.Daily, nil
	case SchedulingTypeWeekly:
		if r.Weekly == nil {
			return nil, ErrMissingVariantInput
		}
		return *r.Weekly, nil
	default:
		return nil, ErrUnknownRecurrenceType
	}
}

// RecordOf flattens a spec for persistence.
func RecordOf(spec RecurrenceSpec) RecurrenceRecord {
	switch s := spec.(type) {
	case CustomDates:
		entries := s.Entries
		if entries == nil {
			entries = []CustomDateEntry{}
		}
		return RecurrenceRecord{Type: SchedulingTypeCustomDates, CustomDates: entries}
	case Daily:
		return RecurrenceRecord{Type: SchedulingTypeDaily, Daily: &s}
	case Weekly:
		return RecurrenceRecord{Type: SchedulingTypeWeekly, Weekly: &s}
	}
	return RecurrenceRecord{}
}

// ExpandRecurrence materializes spec into candidate slots, in generation
// order. Times of day are interpreted in loc (UTC when nil). The result is not
// validated; see ValidateSlots. A daily or weekly range whose first slot
// starts before now fails with the *SlotError ValidateSlots would report,
// without generating the rest of the range.
func ExpandRecurrence(spec RecurrenceSpec, now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	if spec == nil {
		return nil, ErrUnknownRecurrenceType
	}
	if loc == nil {
		loc = time.UTC
	}
	return spec.expand(now, loc)
}

func (c CustomDates) expand(now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	if len(c.Entries) == 0 {
		return nil, ErrEmptyRecurrence
	}

	out := make([]ScheduleSlot, 0, len(c.Entries))
	for i, e := range c.Entries {
		start := e.StartTime.On(e.Date, loc)
		end := e.EndTime.On(e.Date, loc)
		if !end.After(start) {
			return nil, &EntryError{Entry: i + 1, Err: ErrEndBeforeStart}
		}
		out = append(out, ScheduleSlot{
			StartTime:      start.UTC(),
			EndTime:        end.UTC(),
			AvailableSlots: e.Capacity,
		})
	}
	return out, nil
}

func (d Daily) expand(now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	return expandDays(dayRule{
		start:     d.Start,
		end:       d.End,
		slotStart: d.SlotStart,
		slotEnd:   d.SlotEnd,
		capacity:  d.Capacity,
	}, now, loc)
}

func (w Weekly) expand(now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	days, err := normalizeWeekdays(w.DaysOfWeek)
	if err != nil {
		return nil, err
	}
	return expandDays(dayRule{
		start:     w.Start,
		end:       w.End,
		weekdays:  days,
		slotStart: w.SlotStart,
		slotEnd:   w.SlotEnd,
		capacity:  w.Capacity,
	}, now, loc)
}

type dayRule struct {
	start     Date
	end       *Date
	weekdays  []time.Weekday
	slotStart TimeOfDay
	slotEnd   TimeOfDay
	capacity  int
}

func expandDays(r dayRule, now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	if !r.slotStart.Before(r.slotEnd) {
		return nil, ErrEndBeforeStart
	}
	if r.start.IsZero() {
		return nil, fmt.Errorf("%w: recurrence_start is required", ErrInvalidRecurrenceInput)
	}
	if r.end != nil && !r.start.Before(*r.end) {
		return nil, ErrEmptyRange
	}

	horizon := HorizonEnd(now)

	// Last candidate day, inclusive. Open-ended ranges stop at the horizon.
	last := DateOf(horizon.In(loc))
	if r.end != nil {
		if endLast := r.end.AddDays(-1); endLast.Before(last) {
			last = endLast
		}
	}
	if last.Before(r.start) {
		return nil, ErrEmptyRange
	}

	first := firstMatchingDay(r.start, r.weekdays)
	if last.Before(first) {
		return nil, ErrEmptyRange
	}
	if firstStart := r.slotStart.On(first, loc); firstStart.Before(now) {
		return nil, &SlotError{
			Position: 1,
			Start:    firstStart.UTC(),
			End:      r.slotEnd.On(first, loc).UTC(),
			Err:      ErrPastStart,
		}
	}

	opt := rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: r.start.midnightUTC(),
		Until:   last.midnightUTC(),
	}
	if len(r.weekdays) > 0 {
		opt.Byweekday = toRRuleWeekdays(r.weekdays)
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	days := rule.All()
	out := make([]ScheduleSlot, 0, len(days))
	for _, day := range days {
		date := DateOf(day)
		start := r.slotStart.On(date, loc)
		if !start.Before(horizon) {
			break
		}
		out = append(out, ScheduleSlot{
			StartTime:      start.UTC(),
			EndTime:        r.slotEnd.On(date, loc).UTC(),
			AvailableSlots: r.capacity,
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyRange
	}
	return out, nil
}

// firstMatchingDay returns the first date on or after start that falls on one
// of weekdays. An empty set matches every day.
func firstMatchingDay(start Date, weekdays []time.Weekday) Date {
	if len(weekdays) == 0 {
		return start
	}
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		for _, wd := range weekdays {
			if d.Weekday() == wd {
				return d
			}
		}
	}
	return start
}

func normalizeWeekdays(in []time.Weekday) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]struct{}, len(in))
	out := make([]time.Weekday, 0, len(in))
	for _, wd := range in {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, ErrInvalidWeekday
		}
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		out = append(out, wd)
	}
	if len(out) == 0 {
		return nil, ErrEmptyDaySet
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func toRRuleWeekdays(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, rruleWeekdays[d])
	}
	return out
}
