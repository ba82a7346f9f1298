package apperrors

import (
	"errors"
	"fmt"
)

// Error categories
// Every well known error wraps exactly one of them, so callers may match either the specific error or its category
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")

	// Storage or transaction layer failure. The only retryable category
	ErrInfrastructure = errors.New("infrastructure error")
)

var (
	ErrAccountAlreadyExists = fmt.Errorf("account already exists: %w", ErrConflict)
	ErrAccountNotFound      = fmt.Errorf("account not found: %w", ErrNotFound)
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials: %w", ErrNotFound)

	ErrRideNotFound        = fmt.Errorf("ride not found: %w", ErrNotFound)
	ErrRideAlreadyTaken    = fmt.Errorf("ride already accepted or closed: %w", ErrConflict)
	ErrRideVersionMismatch = fmt.Errorf("ride was modified concurrently: %w", ErrConflict)
	ErrRideTerminal        = fmt.Errorf("cannot act on a completed or cancelled ride: %w", ErrInvalidState)
	ErrRideNotAccepted     = fmt.Errorf("ride is not accepted: %w", ErrInvalidState)
	ErrRideNotOnTrip       = fmt.Errorf("ride is not on trip: %w", ErrInvalidState)
	ErrRideNotCancellable  = fmt.Errorf("ride cannot be cancelled in current state: %w", ErrInvalidState)

	ErrRoleNotAllowed  = fmt.Errorf("role is not allowed to perform the action: %w", ErrForbidden)
	ErrNotBoundDriver  = fmt.Errorf("driver is not bound to the ride: %w", ErrForbidden)
	ErrNotRideParty    = fmt.Errorf("principal is not a party of the ride: %w", ErrForbidden)
	ErrBalanceNegative = fmt.Errorf("balance can't become negative: %w", ErrInsufficientFunds)

	ErrInvalidAmount = fmt.Errorf("amount must be non-negative with at most 2 decimal places: %w", ErrInvalidInput)
	ErrInvalidRole   = fmt.Errorf("role must be rider or driver: %w", ErrInvalidInput)
	ErrInvalidPlace  = fmt.Errorf("pickup and dropoff must not be empty: %w", ErrInvalidInput)

	ErrVehicleRequired   = fmt.Errorf("driver profile must have license number, vehicle type and number: %w", ErrInvalidInput)
	ErrVehicleNotAllowed = fmt.Errorf("only drivers may have a vehicle: %w", ErrInvalidInput)
	ErrInvalidVehicle    = fmt.Errorf("vehicle type must be car, bike or auto: %w", ErrInvalidInput)

	// Ledger journal already has an entry of the kind for the ride
	ErrLedgerEntryExists = fmt.Errorf("ledger entry already exists: %w", ErrConflict)
)

// Kind names error categories as they are exposed to API clients
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidState      Kind = "invalid_state"
	KindForbidden         Kind = "forbidden"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInvalidInput      Kind = "invalid_input"
	KindInfrastructure    Kind = "infrastructure"
	KindUnknown           Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrInvalidState, KindInvalidState},
	{ErrForbidden, KindForbidden},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidInput, KindInvalidInput},
	{ErrInfrastructure, KindInfrastructure},
}

// KindOf returns category of the error or KindUnknown
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindUnknown
}

// Retryable reports whether the operation may be safely repeated
func Retryable(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}

// Infrastructure marks err as infrastructure failure keeping the original chain
func Infrastructure(err error) error {
	if err == nil || errors.Is(err, ErrInfrastructure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInfrastructure, err)
}
