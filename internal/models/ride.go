package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RideStatus string

const (
	RideRequested RideStatus = "requested"
	RideAccepted  RideStatus = "accepted"
	RideOnTrip    RideStatus = "on-trip"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

// Terminal statuses allow no further transitions
func (s RideStatus) Terminal() bool {
	return s == RideCompleted || s == RideCancelled
}

type Ride struct {
	ID       uuid.UUID
	RiderID  uuid.UUID
	DriverID *uuid.UUID // nil until accepted
	Pickup   string
	Dropoff  string
	Fare     decimal.Decimal
	Status   RideStatus

	StartedAt *time.Time
	EndedAt   *time.Time

	// Set when the ride is cancelled
	Refund        *decimal.Decimal
	CancelledBy   *Role
	DriverFlagged bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// Incremented on every write
	Version int64
}

// IsBoundDriver reports whether the driver is attached to the ride
func (r *Ride) IsBoundDriver(driverID uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

// IsParty reports whether the principal takes part in the ride in its role
func (r *Ride) IsParty(p Principal) bool {
	switch p.Role {
	case RoleRider:
		return r.RiderID == p.ID
	case RoleDriver:
		return r.IsBoundDriver(p.ID)
	default:
		return false
	}
}
