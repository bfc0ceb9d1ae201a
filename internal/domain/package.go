package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type PackageStatus string

const (
	PackageStatusDraft     PackageStatus = "DRAFT"
	PackageStatusPublished PackageStatus = "PUBLISHED"
	PackageStatusArchived  PackageStatus = "ARCHIVED"
)

func (s PackageStatus) Valid() bool {
	switch s {
	case PackageStatusDraft, PackageStatusPublished, PackageStatusArchived:
		return true
	}
	return false
}

type ClassPackage struct {
	bun.BaseModel `bun:"table:class_packages"`

	ID                   uuid.UUID              `bun:"id,pk,type:uuid"`
	VendorID             string                 `bun:"vendor_id,notnull"`
	Title                string                 `bun:"title,notnull"`
	Description          string                 `bun:"description"`
	PriceCents           int64                  `bun:"price_cents,notnull"`
	Currency             string                 `bun:"currency,notnull"`
	Status               PackageStatus          `bun:"status,notnull"`
	PolicyType           CancellationPolicyType `bun:"cancellation_policy_type,notnull"`
	RescheduleDaysBefore *int                   `bun:"reschedule_days_before"`
	TimeZone             string                 `bun:"time_zone,notnull"`
	SchedulingType       SchedulingType         `bun:"scheduling_type,notnull"`
	Recurrence           RecurrenceRecord       `bun:"recurrence,type:jsonb,notnull"`
	CategoryIDs          []string               `bun:"category_ids,array"`
	AgeGroupIDs          []string               `bun:"age_group_ids,array"`
	TagIDs               []string               `bun:"tag_ids,array"`
	CreatedAt            time.Time              `bun:"created_at,notnull"`
	UpdatedAt            time.Time              `bun:"updated_at,notnull"`
}

func (p *ClassPackage) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

func (p ClassPackage) Policy() CancellationPolicy {
	return CancellationPolicy{
		Type:                 p.PolicyType,
		RescheduleDaysBefore: p.RescheduleDaysBefore,
	}
}

// SameDefinition reports whether a and b describe the same package as
// submitted on create: owner, listing fields, schedule and policy. Status, ids
// and timestamps are ignored.
func SameDefinition(a, b ClassPackage) bool {
	return a.VendorID == b.VendorID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.PriceCents == b.PriceCents &&
		a.Currency == b.Currency &&
		a.TimeZone == b.TimeZone &&
		a.SchedulingType == b.SchedulingType &&
		a.PolicyType == b.PolicyType &&
		equalIntPtr(a.RescheduleDaysBefore, b.RescheduleDaysBefore) &&
		sameRecurrence(a.Recurrence, b.Recurrence) &&
		slices.Equal(a.CategoryIDs, b.CategoryIDs) &&
		slices.Equal(a.AgeGroupIDs, b.AgeGroupIDs) &&
		slices.Equal(a.TagIDs, b.TagIDs)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sameRecurrence compares the stored JSON form, which is what survives a
// round trip through the recurrence column.
func sameRecurrence(a, b RecurrenceRecord) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// Location resolves the package time zone, falling back to UTC.
func (p ClassPackage) Location() *time.Location {
	if p.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ScheduleSlot struct {
	bun.BaseModel `bun:"table:schedule_slots"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	PackageID      uuid.UUID `bun:"package_id,notnull,type:uuid"`
	StartTime      time.Time `bun:"start_time,notnull"`
	EndTime        time.Time `bun:"end_time,notnull"`
	AvailableSlots int       `bun:"available_slots,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func (s *ScheduleSlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment is owned by the booking service; this module only reads it.
type Enrollment struct {
	bun.BaseModel `bun:"table:class_enrollments"`

	ID        uuid.UUID        `bun:"id,pk,type:uuid"`
	PackageID uuid.UUID        `bun:"package_id,notnull,type:uuid"`
	SlotID    *uuid.UUID       `bun:"slot_id,type:uuid"`
	Status    EnrollmentStatus `bun:"status,notnull"`
	CreatedAt time.Time        `bun:"created_at,notnull"`
}

// PackageSnapshot is the state a mutation is validated against.
type PackageSnapshot struct {
	Package              ClassPackage
	Slots                []ScheduleSlot
	HasActiveEnrollments bool
}
