package domain

type MutationKind string

const (
	MutationChangeSchedulingType MutationKind = "change_scheduling_type"
	MutationChangeScheduleParams MutationKind = "change_schedule_params"
	MutationChangePolicy         MutationKind = "change_policy"
	MutationDeletePackage        MutationKind = "delete_package"
)

type lifecycleKey struct {
	status         PackageStatus
	hasEnrollments bool
	kind           MutationKind
}

// lifecycleRules lists every (status, enrollments, mutation) combination. A
// nil entry allows the mutation.
var lifecycleRules = buildLifecycleRules()

func buildLifecycleRules() map[lifecycleKey]error {
	rules := make(map[lifecycleKey]error)
	for _, status := range []PackageStatus{PackageStatusDraft, PackageStatusPublished, PackageStatusArchived} {
		for _, enrolled := range []bool{false, true} {
			draft := status == PackageStatusDraft

			var typeChange error
			if !draft || enrolled {
				typeChange = ErrSchedulingTypeLocked
			}
			rules[lifecycleKey{status, enrolled, MutationChangeSchedulingType}] = typeChange

			var paramsChange error
			switch {
			case !draft:
				paramsChange = ErrScheduleLocked
			case enrolled:
				paramsChange = ErrActiveEnrollmentsExist
			}
			rules[lifecycleKey{status, enrolled, MutationChangeScheduleParams}] = paramsChange

			rules[lifecycleKey{status, enrolled, MutationChangePolicy}] = nil

			var del error
			if enrolled {
				del = ErrActiveEnrollmentsExist
			}
			rules[lifecycleKey{status, enrolled, MutationDeletePackage}] = del
		}
	}
	return rules
}

// CheckMutation reports whether a mutation of the given kind is permitted for
// a package in status with or without active enrollments.
func CheckMutation(status PackageStatus, hasActiveEnrollments bool, kind MutationKind) error {
	err, ok := lifecycleRules[lifecycleKey{status, hasActiveEnrollments, kind}]
	if !ok {
		if !status.Valid() {
			return ErrUnknownPackageStatus
		}
		return ErrUnknownMutation
	}
	return err
}

// ScheduleMutationKind classifies a schedule change against the current type.
func ScheduleMutationKind(current SchedulingType, next RecurrenceSpec) MutationKind {
	if next.SchedulingType() != current {
		return MutationChangeSchedulingType
	}
	return MutationChangeScheduleParams
}
