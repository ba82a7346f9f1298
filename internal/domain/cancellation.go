package domain

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
)

var (
	fullRefund    = decimal.NewFromInt(1)
	partialRefund = decimal.RequireFromString("0.8")
	noRefund      = decimal.Zero
)

// Decision of the cancellation policy
type Decision struct {
	RefundFraction decimal.Decimal
	Status         models.RideStatus

	// Driver no longer serves the ride
	DriverReleased bool

	// Driver abandoned a running trip and has to be reviewed downstream
	DriverFlagged bool

	Outcome string
}

// Who cancels decides the refund table, so the variant is resolved once
type cancellation interface {
	decide(status models.RideStatus) (Decision, error)
}

type riderCancel struct{}

func (riderCancel) decide(status models.RideStatus) (Decision, error) {
	switch status {
	case models.RideRequested:
		return Decision{
			RefundFraction: fullRefund,
			Status:         models.RideCancelled,
			Outcome:        "ride cancelled by rider, fare fully refunded",
		}, nil
	case models.RideAccepted:
		return Decision{
			RefundFraction: partialRefund,
			Status:         models.RideCancelled,
			DriverReleased: true,
			Outcome:        "ride cancelled by rider after acceptance, fare partially refunded",
		}, nil
	case models.RideOnTrip:
		return Decision{
			RefundFraction: noRefund,
			Status:         models.RideCancelled,
			DriverReleased: true,
			Outcome:        "ride cancelled by rider during the trip, no refund",
		}, nil
	default:
		return Decision{}, apperrors.ErrRideNotCancellable
	}
}

type driverCancel struct{}

func (driverCancel) decide(status models.RideStatus) (Decision, error) {
	switch status {
	case models.RideRequested:
		// No driver is bound yet, so no driver may cancel it
		return Decision{}, apperrors.ErrNotRideParty
	case models.RideAccepted:
		return Decision{
			RefundFraction: fullRefund,
			Status:         models.RideCancelled,
			DriverReleased: true,
			Outcome:        "ride cancelled by driver, fare fully refunded to rider",
		}, nil
	case models.RideOnTrip:
		return Decision{
			RefundFraction: fullRefund,
			Status:         models.RideCancelled,
			DriverReleased: true,
			DriverFlagged:  true,
			Outcome:        "ride cancelled by driver during the trip, fare fully refunded to rider, driver flagged for review",
		}, nil
	default:
		return Decision{}, apperrors.ErrRideNotCancellable
	}
}

// Decide maps the cancelling role and the current ride status to the policy decision
func Decide(role models.Role, status models.RideStatus) (Decision, error) {
	if status.Terminal() {
		return Decision{}, apperrors.ErrRideTerminal
	}

	var c cancellation
	switch role {
	case models.RoleRider:
		c = riderCancel{}
	case models.RoleDriver:
		c = driverCancel{}
	default:
		return Decision{}, apperrors.ErrRoleNotAllowed
	}

	return c.decide(status)
}

// RefundOf returns the refund and the retained part of the fare
// Refund is rounded to cents and both parts always sum up to the fare
func RefundOf(fare decimal.Decimal, fraction decimal.Decimal) (refund decimal.Decimal, retained decimal.Decimal) {
	refund = fare.Mul(fraction).Round(2)
	return refund, fare.Sub(refund)
}
