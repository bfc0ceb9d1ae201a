package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSameDefinition(t *testing.T) {
	window := 1
	base := func() ClassPackage {
		end := Date{Year: 2026, Month: time.January, Day: 20}
		w := window
		return ClassPackage{
			VendorID:             "v1",
			Title:                "Pottery",
			PriceCents:           4500,
			Currency:             "EUR",
			TimeZone:             "Europe/Berlin",
			PolicyType:           PolicyFlexibleRescheduling,
			RescheduleDaysBefore: &w,
			SchedulingType:       SchedulingTypeDaily,
			Recurrence: RecordOf(Daily{
				Start:     Date{Year: 2026, Month: time.January, Day: 10},
				End:       &end,
				SlotStart: TimeOfDay{Hour: 10},
				SlotEnd:   TimeOfDay{Hour: 11},
				Capacity:  5,
			}),
			CategoryIDs: []string{"art"},
		}
	}

	tests := []struct {
		name   string
		mutate func(p *ClassPackage)
		want   bool
	}{
		{name: "identical", mutate: func(p *ClassPackage) {}, want: true},
		{name: "status and timestamps ignored", mutate: func(p *ClassPackage) {
			p.Status = PackageStatusPublished
			p.CreatedAt = time.Now()
		}, want: true},
		{name: "categories", mutate: func(p *ClassPackage) { p.CategoryIDs = []string{"art", "kids"} }},
		{name: "price", mutate: func(p *ClassPackage) { p.PriceCents = 5000 }},
		{name: "reschedule window", mutate: func(p *ClassPackage) {
			other := 30
			p.RescheduleDaysBefore = &other
		}},
		{name: "reschedule window cleared", mutate: func(p *ClassPackage) { p.RescheduleDaysBefore = nil }},
		{name: "recurrence start", mutate: func(p *ClassPackage) {
			d := *p.Recurrence.Daily
			d.Start = Date{Year: 2026, Month: time.February, Day: 1}
			p.Recurrence.Daily = &d
		}},
		{name: "slot times", mutate: func(p *ClassPackage) {
			d := *p.Recurrence.Daily
			d.SlotStart = TimeOfDay{Hour: 12}
			d.SlotEnd = TimeOfDay{Hour: 13}
			p.Recurrence.Daily = &d
		}},
		{name: "capacity", mutate: func(p *ClassPackage) {
			d := *p.Recurrence.Daily
			d.Capacity = 6
			p.Recurrence.Daily = &d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := base(), base()
			tt.mutate(&b)
			require.Equal(t, tt.want, SameDefinition(a, b))
		})
	}
}
