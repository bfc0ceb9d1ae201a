package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestValidateCancellationPolicy(t *testing.T) {
	t.Run("flexible requires window", func(t *testing.T) {
		_, err := ValidateCancellationPolicy(CancellationPolicy{Type: PolicyFlexibleRescheduling})
		require.ErrorIs(t, err, ErrMissingRescheduleWindow)
	})

	t.Run("flexible rejects negative window", func(t *testing.T) {
		_, err := ValidateCancellationPolicy(CancellationPolicy{
			Type:                 PolicyFlexibleRescheduling,
			RescheduleDaysBefore: intPtr(-1),
		})
		require.ErrorIs(t, err, ErrMissingRescheduleWindow)
	})

	t.Run("flexible keeps zero window", func(t *testing.T) {
		got, err := ValidateCancellationPolicy(CancellationPolicy{
			Type:                 PolicyFlexibleRescheduling,
			RescheduleDaysBefore: intPtr(0),
		})
		require.NoError(t, err)
		require.NotNil(t, got.RescheduleDaysBefore)
		require.Equal(t, 0, *got.RescheduleDaysBefore)
	})

	t.Run("fixed drops window silently", func(t *testing.T) {
		got, err := ValidateCancellationPolicy(CancellationPolicy{
			Type:                 PolicyFixedCommitment,
			RescheduleDaysBefore: intPtr(5),
		})
		require.NoError(t, err)
		require.Equal(t, PolicyFixedCommitment, got.Type)
		require.Nil(t, got.RescheduleDaysBefore)
	})

	t.Run("result does not alias input", func(t *testing.T) {
		in := intPtr(3)
		got, err := ValidateCancellationPolicy(CancellationPolicy{
			Type:                 PolicyFlexibleRescheduling,
			RescheduleDaysBefore: in,
		})
		require.NoError(t, err)
		*in = 9
		require.Equal(t, 3, *got.RescheduleDaysBefore)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ValidateCancellationPolicy(CancellationPolicy{Type: "NO_REFUNDS"})
		require.ErrorIs(t, err, ErrInvalidPolicyType)
	})
}
