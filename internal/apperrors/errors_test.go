package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"ride not found", ErrRideNotFound, KindNotFound},
		{"wrapped ride not found", fmt.Errorf("repo error: %w", ErrRideNotFound), KindNotFound},
		{"ride taken", ErrRideAlreadyTaken, KindConflict},
		{"terminal ride", ErrRideTerminal, KindInvalidState},
		{"not bound driver", ErrNotBoundDriver, KindForbidden},
		{"negative balance", ErrBalanceNegative, KindInsufficientFunds},
		{"invalid amount", ErrInvalidAmount, KindInvalidInput},
		{"vehicle of rider", ErrVehicleNotAllowed, KindInvalidInput},
		{"infrastructure", Infrastructure(context.DeadlineExceeded), KindInfrastructure},
		{"unknown", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestInfrastructure(t *testing.T) {
	t.Run("keeps original chain", func(t *testing.T) {
		err := Infrastructure(fmt.Errorf("db error: %w", context.DeadlineExceeded))

		require.ErrorIs(t, err, ErrInfrastructure)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.True(t, Retryable(err), "infrastructure errors must be retryable")
	})

	t.Run("wraps once", func(t *testing.T) {
		err := Infrastructure(errors.New("conn reset"))

		require.Equal(t, err, Infrastructure(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, Infrastructure(nil))
	})

	t.Run("business errors are not retryable", func(t *testing.T) {
		require.False(t, Retryable(ErrRideAlreadyTaken))
		require.False(t, Retryable(ErrInsufficientFunds))
	})
}
