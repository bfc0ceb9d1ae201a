package domain

type CancellationPolicyType string

const (
	PolicyFixedCommitment      CancellationPolicyType = "FIXED_COMMITMENT"
	PolicyFlexibleRescheduling CancellationPolicyType = "FLEXIBLE_RESCHEDULING"
)

type CancellationPolicy struct {
	Type                 CancellationPolicyType `json:"type"`
	RescheduleDaysBefore *int                   `json:"reschedule_days_before,omitempty"`
}

// ValidateCancellationPolicy returns the normalized policy. A fixed commitment
// never carries a reschedule window, so one supplied with it is dropped
// rather than rejected.
func ValidateCancellationPolicy(p CancellationPolicy) (CancellationPolicy, error) {
	switch p.Type {
	case PolicyFlexibleRescheduling:
		if p.RescheduleDaysBefore == nil || *p.RescheduleDaysBefore < 0 {
			return CancellationPolicy{}, ErrMissingRescheduleWindow
		}
		days := *p.RescheduleDaysBefore
		return CancellationPolicy{Type: p.Type, RescheduleDaysBefore: &days}, nil
	case PolicyFixedCommitment:
		return CancellationPolicy{Type: p.Type}, nil
	default:
		return CancellationPolicy{}, ErrInvalidPolicyType
	}
}
