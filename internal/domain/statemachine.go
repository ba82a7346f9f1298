package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
)

type Event string

const (
	EventRequest  Event = "request"
	EventAccept   Event = "accept"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// Effect is a ledger mutation the transition prescribes
// Debit when Kind is escrow, credit otherwise. AccountID is nil for retained amounts
type Effect struct {
	Kind      models.EntryKind
	AccountID *uuid.UUID
	Amount    decimal.Decimal
}

// Debit reports whether the effect takes money from the account
func (e Effect) Debit() bool {
	return e.Kind == models.EntryEscrow
}

// Transition is the ride after the event and the ledger effects that must be committed with it
type Transition struct {
	Event   Event
	Ride    models.Ride
	Effects []Effect

	// Set for cancel only
	Cancellation *Decision
	Refund       decimal.Decimal
}

// MaxAmount is the largest sum a fare, top up or balance may hold: numeric(14, 2)
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidateAmount checks the amount is a non-negative sum of cents not above MaxAmount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(MaxAmount) || !amount.Equal(amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// Request creates a ride in 'requested' and escrows the fare from the rider
func Request(actor models.Principal, pickup string, dropoff string, fare decimal.Decimal, now time.Time) (Transition, error) {
	if actor.Role != models.RoleRider {
		return Transition{}, apperrors.ErrRoleNotAllowed
	}
	if pickup == "" || dropoff == "" {
		return Transition{}, apperrors.ErrInvalidPlace
	}
	if err := ValidateAmount(fare); err != nil {
		return Transition{}, err
	}

	ride := models.Ride{
		ID:        uuid.New(),
		RiderID:   actor.ID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Fare:      fare,
		Status:    models.RideRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return Transition{
		Event:   EventRequest,
		Ride:    ride,
		Effects: []Effect{{Kind: models.EntryEscrow, AccountID: &ride.RiderID, Amount: fare}},
	}, nil
}

// Accept binds the driver to a requested ride
func Accept(ride models.Ride, actor models.Principal, now time.Time) (Transition, error) {
	switch {
	case actor.Role != models.RoleDriver:
		return Transition{}, apperrors.ErrRoleNotAllowed
	case ride.Status.Terminal():
		return Transition{}, apperrors.ErrRideTerminal
	case ride.Status != models.RideRequested:
		return Transition{}, apperrors.ErrRideAlreadyTaken
	}

	driverID := actor.ID
	ride.DriverID = &driverID
	ride.Status = models.RideAccepted
	ride.UpdatedAt = now

	return Transition{Event: EventAccept, Ride: ride}, nil
}

// Start moves accepted ride on trip. Only the bound driver may start it
func Start(ride models.Ride, actor models.Principal, now time.Time) (Transition, error) {
	if err := checkBoundDriver(ride, actor, apperrors.ErrRideNotAccepted); err != nil {
		return Transition{}, err
	}
	if ride.Status != models.RideAccepted {
		return Transition{}, apperrors.ErrRideNotAccepted
	}

	startedAt := now
	ride.Status = models.RideOnTrip
	ride.StartedAt = &startedAt
	ride.UpdatedAt = now

	return Transition{Event: EventStart, Ride: ride}, nil
}

// Complete finishes the trip and settles the escrowed fare to the driver
func Complete(ride models.Ride, actor models.Principal, now time.Time) (Transition, error) {
	if err := checkBoundDriver(ride, actor, apperrors.ErrRideNotOnTrip); err != nil {
		return Transition{}, err
	}
	if ride.Status != models.RideOnTrip {
		return Transition{}, apperrors.ErrRideNotOnTrip
	}

	endedAt := now
	ride.Status = models.RideCompleted
	ride.EndedAt = &endedAt
	ride.UpdatedAt = now

	return Transition{
		Event:   EventComplete,
		Ride:    ride,
		Effects: []Effect{{Kind: models.EntrySettlement, AccountID: ride.DriverID, Amount: ride.Fare}},
	}, nil
}

// Cancel applies the cancellation policy: refund goes to the rider, the rest of escrow is retained
func Cancel(ride models.Ride, actor models.Principal, now time.Time) (Transition, error) {
	switch {
	case !actor.Role.Valid():
		return Transition{}, apperrors.ErrRoleNotAllowed
	case ride.Status.Terminal():
		return Transition{}, apperrors.ErrRideTerminal
	case !ride.IsParty(actor):
		return Transition{}, apperrors.ErrNotRideParty
	}

	decision, err := Decide(actor.Role, ride.Status)
	if err != nil {
		return Transition{}, err
	}

	refund, retained := RefundOf(ride.Fare, decision.RefundFraction)
	role := actor.Role

	ride.Status = decision.Status
	ride.Refund = &refund
	ride.CancelledBy = &role
	ride.DriverFlagged = decision.DriverFlagged
	ride.UpdatedAt = now

	var effects []Effect
	if refund.IsPositive() {
		effects = append(effects, Effect{Kind: models.EntryRefund, AccountID: &ride.RiderID, Amount: refund})
	}
	if retained.IsPositive() {
		effects = append(effects, Effect{Kind: models.EntryRetained, Amount: retained})
	}

	return Transition{
		Event:        EventCancel,
		Ride:         ride,
		Effects:      effects,
		Cancellation: &decision,
		Refund:       refund,
	}, nil
}

// Apply dispatches the event on existing ride
func Apply(ride models.Ride, event Event, actor models.Principal, now time.Time) (Transition, error) {
	switch event {
	case EventAccept:
		return Accept(ride, actor, now)
	case EventStart:
		return Start(ride, actor, now)
	case EventComplete:
		return Complete(ride, actor, now)
	case EventCancel:
		return Cancel(ride, actor, now)
	default:
		return Transition{}, apperrors.ErrInvalidState
	}
}

// Common guards for transitions reserved to the bound driver
// notBound is returned when there is no driver on the ride at all
func checkBoundDriver(ride models.Ride, actor models.Principal, notBound error) error {
	switch {
	case actor.Role != models.RoleDriver:
		return apperrors.ErrRoleNotAllowed
	case ride.Status.Terminal():
		return apperrors.ErrRideTerminal
	case ride.DriverID == nil:
		return notBound
	case !ride.IsBoundDriver(actor.ID):
		return apperrors.ErrNotBoundDriver
	default:
		return nil
	}
}
