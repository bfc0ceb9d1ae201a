package grpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classpkg/backend/internal/domain"
)

type CustomDateEntry struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int32  `json:"capacity"`
}

type DailyRecurrence struct {
	RecurrenceStart string `json:"recurrence_start"`
	RecurrenceEnd   string `json:"recurrence_end,omitempty"`
	SlotStart       string `json:"slot_start"`
	SlotEnd         string `json:"slot_end"`
	Capacity        int32  `json:"capacity"`
}

type WeeklyRecurrence struct {
	RecurrenceStart string   `json:"recurrence_start"`
	RecurrenceEnd   string   `json:"recurrence_end,omitempty"`
	DaysOfWeek      []string `json:"days_of_week"`
	SlotStart       string   `json:"slot_start"`
	SlotEnd         string   `json:"slot_end"`
	Capacity        int32    `json:"capacity"`
}

// Recurrence carries exactly one payload, selected by SchedulingType.
type Recurrence struct {
	SchedulingType string            `json:"scheduling_type"`
	CustomDates    []CustomDateEntry `json:"custom_dates,omitempty"`
	Daily          *DailyRecurrence  `json:"daily,omitempty"`
	Weekly         *WeeklyRecurrence `json:"weekly,omitempty"`
}

type CancellationPolicy struct {
	Type                 string `json:"type"`
	RescheduleDaysBefore *int32 `json:"reschedule_days_before,omitempty"`
}

type Slot struct {
	ID             string    `json:"id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AvailableSlots int32     `json:"available_slots"`
}

type Package struct {
	ID                 string             `json:"id"`
	VendorID           string             `json:"vendor_id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	PriceCents         int64              `json:"price_cents"`
	Currency           string             `json:"currency"`
	Status             string             `json:"status"`
	TimeZone           string             `json:"time_zone"`
	Recurrence         Recurrence         `json:"recurrence"`
	CancellationPolicy CancellationPolicy `json:"cancellation_policy"`
	CategoryIDs        []string           `json:"category_ids,omitempty"`
	AgeGroupIDs        []string           `json:"age_group_ids,omitempty"`
	TagIDs             []string           `json:"tag_ids,omitempty"`
	Slots              []Slot             `json:"slots"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type CreatePackageRequest struct {
	VendorID           string              `json:"vendor_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	PriceCents         int64               `json:"price_cents"`
	Currency           string              `json:"currency"`
	TimeZone           string              `json:"time_zone,omitempty"`
	Recurrence         *Recurrence         `json:"recurrence"`
	CancellationPolicy *CancellationPolicy `json:"cancellation_policy,omitempty"`
	CategoryIDs        []string            `json:"category_ids,omitempty"`
	AgeGroupIDs        []string            `json:"age_group_ids,omitempty"`
	TagIDs             []string            `json:"tag_ids,omitempty"`
}

type CreatePackageResponse struct {
	Package *Package `json:"package"`
}

type UpdatePackageRequest struct {
	VendorID           string              `json:"vendor_id"`
	PackageID          string              `json:"package_id"`
	Recurrence         *Recurrence         `json:"recurrence,omitempty"`
	CancellationPolicy *CancellationPolicy `json:"cancellation_policy,omitempty"`
}

type UpdatePackageResponse struct {
	Package *Package `json:"package"`
}

type DeletePackageRequest struct {
	VendorID  string `json:"vendor_id"`
	PackageID string `json:"package_id"`
}

type DeletePackageResponse struct{}

type GetPackageRequest struct {
	VendorID  string `json:"vendor_id"`
	PackageID string `json:"package_id"`
}

type GetPackageResponse struct {
	Package *Package `json:"package"`
}

type PreviewScheduleRequest struct {
	TimeZone   string      `json:"time_zone,omitempty"`
	Recurrence *Recurrence `json:"recurrence"`
}

type PreviewScheduleResponse struct {
	Slots []Slot `json:"slots"`
}

// fromWireRecurrence parses the payload named by SchedulingType into a
// domain.RecurrenceRecord and lets the record pick the variant.
func fromWireRecurrence(r *Recurrence) (domain.RecurrenceSpec, error) {
	rec := domain.RecurrenceRecord{
		Type: domain.SchedulingType(strings.ToUpper(strings.TrimSpace(r.SchedulingType))),
	}

	switch rec.Type {
	case domain.SchedulingTypeCustomDates:
		if r.CustomDates != nil {
			entries, err := fromWireCustomDates(r.CustomDates)
			if err != nil {
				return nil, err
			}
			rec.CustomDates = entries
		}
	case domain.SchedulingTypeDaily:
		if r.Daily != nil {
			d, err := fromWireDaily(r.Daily)
			if err != nil {
				return nil, err
			}
			rec.Daily = &d
		}
	case domain.SchedulingTypeWeekly:
		if r.Weekly != nil {
			w, err := fromWireWeekly(r.Weekly)
			if err != nil {
				return nil, err
			}
			rec.Weekly = &w
		}
	}

	return rec.Spec()
}

func fromWireCustomDates(in []CustomDateEntry) ([]domain.CustomDateEntry, error) {
	entries := make([]domain.CustomDateEntry, 0, len(in))
	for i, e := range in {
		entry, err := fromWireCustomDate(e)
		if err != nil {
			return nil, &domain.EntryError{Entry: i + 1, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func fromWireDaily(d *DailyRecurrence) (domain.Daily, error) {
	start, end, err := parseRange(d.RecurrenceStart, d.RecurrenceEnd)
	if err != nil {
		return domain.Daily{}, err
	}
	slotStart, slotEnd, err := parseSlotTimes(d.SlotStart, d.SlotEnd)
	if err != nil {
		return domain.Daily{}, err
	}
	return domain.Daily{
		Start:     start,
		End:       end,
		SlotStart: slotStart,
		SlotEnd:   slotEnd,
		Capacity:  int(d.Capacity),
	}, nil
}

func fromWireWeekly(w *WeeklyRecurrence) (domain.Weekly, error) {
	start, end, err := parseRange(w.RecurrenceStart, w.RecurrenceEnd)
	if err != nil {
		return domain.Weekly{}, err
	}
	slotStart, slotEnd, err := parseSlotTimes(w.SlotStart, w.SlotEnd)
	if err != nil {
		return domain.Weekly{}, err
	}
	days := make([]time.Weekday, 0, len(w.DaysOfWeek))
	for _, name := range w.DaysOfWeek {
		wd, err := parseWeekday(name)
		if err != nil {
			return domain.Weekly{}, err
		}
		days = append(days, wd)
	}
	return domain.Weekly{
		Start:      start,
		End:        end,
		DaysOfWeek: days,
		SlotStart:  slotStart,
		SlotEnd:    slotEnd,
		Capacity:   int(w.Capacity),
	}, nil
}

func fromWireCustomDate(e CustomDateEntry) (domain.CustomDateEntry, error) {
	date, err := domain.ParseDate(e.Date)
	if err != nil {
		return domain.CustomDateEntry{}, err
	}
	start, end, err := parseSlotTimes(e.StartTime, e.EndTime)
	if err != nil {
		return domain.CustomDateEntry{}, err
	}
	return domain.CustomDateEntry{Date: date, StartTime: start, EndTime: end, Capacity: int(e.Capacity)}, nil
}

func parseRange(startStr, endStr string) (domain.Date, *domain.Date, error) {
	start, err := domain.ParseDate(startStr)
	if err != nil {
		return domain.Date{}, nil, err
	}
	if strings.TrimSpace(endStr) == "" {
		return start, nil, nil
	}
	end, err := domain.ParseDate(endStr)
	if err != nil {
		return domain.Date{}, nil, err
	}
	return start, &end, nil
}

func parseSlotTimes(startStr, endStr string) (domain.TimeOfDay, domain.TimeOfDay, error) {
	start, err := domain.ParseTimeOfDay(startStr)
	if err != nil {
		return domain.TimeOfDay{}, domain.TimeOfDay{}, err
	}
	end, err := domain.ParseTimeOfDay(endStr)
	if err != nil {
		return domain.TimeOfDay{}, domain.TimeOfDay{}, err
	}
	return start, end, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToUpper(wd.String())
		if n == full || n == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidWeekday, name)
}

func toWireRecurrence(r domain.RecurrenceRecord) Recurrence {
	out := Recurrence{SchedulingType: string(r.Type)}
	switch {
	case r.CustomDates != nil:
		out.CustomDates = make([]CustomDateEntry, 0, len(r.CustomDates))
		for _, e := range r.CustomDates {
			out.CustomDates = append(out.CustomDates, CustomDateEntry{
				Date:      e.Date.String(),
				StartTime: e.StartTime.String(),
				EndTime:   e.EndTime.String(),
				Capacity:  int32(e.Capacity),
			})
		}
	case r.Daily != nil:
		out.Daily = &DailyRecurrence{
			RecurrenceStart: r.Daily.Start.String(),
			RecurrenceEnd:   optionalDate(r.Daily.End),
			SlotStart:       r.Daily.SlotStart.String(),
			SlotEnd:         r.Daily.SlotEnd.String(),
			Capacity:        int32(r.Daily.Capacity),
		}
	case r.Weekly != nil:
		days := make([]string, 0, len(r.Weekly.DaysOfWeek))
		for _, wd := range r.Weekly.DaysOfWeek {
			days = append(days, strings.ToUpper(wd.String()))
		}
		out.Weekly = &WeeklyRecurrence{
			RecurrenceStart: r.Weekly.Start.String(),
			RecurrenceEnd:   optionalDate(r.Weekly.End),
			DaysOfWeek:      days,
			SlotStart:       r.Weekly.SlotStart.String(),
			SlotEnd:         r.Weekly.SlotEnd.String(),
			Capacity:        int32(r.Weekly.Capacity),
		}
	}
	return out
}

func optionalDate(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func fromWirePolicy(p *CancellationPolicy) domain.CancellationPolicy {
	out := domain.CancellationPolicy{
		Type: domain.CancellationPolicyType(strings.ToUpper(strings.TrimSpace(p.Type))),
	}
	if p.RescheduleDaysBefore != nil {
		days := int(*p.RescheduleDaysBefore)
		out.RescheduleDaysBefore = &days
	}
	return out
}

func toWirePolicy(p domain.CancellationPolicy) CancellationPolicy {
	out := CancellationPolicy{Type: string(p.Type)}
	if p.RescheduleDaysBefore != nil {
		days := int32(*p.RescheduleDaysBefore)
		out.RescheduleDaysBefore = &days
	}
	return out
}

func toWireSlots(slots []domain.ScheduleSlot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		id := ""
		if s.ID != uuid.Nil {
			id = s.ID.String()
		}
		out = append(out, Slot{
			ID:             id,
			StartTime:      s.StartTime.UTC(),
			EndTime:        s.EndTime.UTC(),
			AvailableSlots: int32(s.AvailableSlots),
		})
	}
	return out
}

func toWirePackage(pkg domain.ClassPackage, slots []domain.ScheduleSlot) *Package {
	return &Package{
		ID:                 pkg.ID.String(),
		VendorID:           pkg.VendorID,
		Title:              pkg.Title,
		Description:        pkg.Description,
		PriceCents:         pkg.PriceCents,
		Currency:           pkg.Currency,
		Status:             string(pkg.Status),
		TimeZone:           pkg.TimeZone,
		Recurrence:         toWireRecurrence(pkg.Recurrence),
		CancellationPolicy: toWirePolicy(pkg.Policy()),
		CategoryIDs:        pkg.CategoryIDs,
		AgeGroupIDs:        pkg.AgeGroupIDs,
		TagIDs:             pkg.TagIDs,
		Slots:              toWireSlots(slots),
		CreatedAt:          pkg.CreatedAt.UTC(),
		UpdatedAt:          pkg.UpdatedAt.UTC(),
	}
}
