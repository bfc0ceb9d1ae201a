package domain

import "time"

// PackageMutation is a requested change to an existing package. Nil fields are
// left as they are.
type PackageMutation struct {
	Recurrence RecurrenceSpec
	Policy     *CancellationPolicy
}

// MutationPlan is what a permitted mutation writes back to the store.
type MutationPlan struct {
	ReplaceSlots bool
	Slots        []ScheduleSlot
	Recurrence   RecurrenceRecord
	Policy       CancellationPolicy
}

// PlanCreation expands and validates the schedule of a new package. New
// packages start in draft without enrollments, so no lifecycle rule applies.
func PlanCreation(spec RecurrenceSpec, policy CancellationPolicy, now time.Time, loc *time.Location) (MutationPlan, error) {
	slots, err := BuildSchedule(spec, now, loc)
	if err != nil {
		return MutationPlan{}, err
	}
	normalized, err := ValidateCancellationPolicy(policy)
	if err != nil {
		return MutationPlan{}, err
	}
	return MutationPlan{
		ReplaceSlots: true,
		Slots:        slots,
		Recurrence:   RecordOf(spec),
		Policy:       normalized,
	}, nil
}

// PlanMutation checks the lifecycle rules for m against snap and, when they
// pass, produces the full replacement state.
func PlanMutation(snap PackageSnapshot, m PackageMutation, now time.Time) (MutationPlan, error) {
	pkg := snap.Package
	plan := MutationPlan{
		Recurrence: pkg.Recurrence,
		Policy:     pkg.Policy(),
	}

	if m.Recurrence != nil {
		kind := ScheduleMutationKind(pkg.SchedulingType, m.Recurrence)
		if err := CheckMutation(pkg.Status, snap.HasActiveEnrollments, kind); err != nil {
			return MutationPlan{}, err
		}
		slots, err := BuildSchedule(m.Recurrence, now, pkg.Location())
		if err != nil {
			return MutationPlan{}, err
		}
		plan.ReplaceSlots = true
		plan.Slots = slots
		plan.Recurrence = RecordOf(m.Recurrence)
	}

	if m.Policy != nil {
		if err := CheckMutation(pkg.Status, snap.HasActiveEnrollments, MutationChangePolicy); err != nil {
			return MutationPlan{}, err
		}
		plan.Policy = *m.Policy
	}

	normalized, err := ValidateCancellationPolicy(plan.Policy)
	if err != nil {
		return MutationPlan{}, err
	}
	plan.Policy = normalized
	return plan, nil
}

// BuildSchedule expands spec and validates the result, returning the slots in
// start-time order.
func BuildSchedule(spec RecurrenceSpec, now time.Time, loc *time.Location) ([]ScheduleSlot, error) {
	slots, err := ExpandRecurrence(spec, now, loc)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlots(slots, now); err != nil {
		return nil, err
	}
	return SortSlots(slots), nil
}
