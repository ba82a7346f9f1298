package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

func (r Role) Valid() bool {
	return r == RoleRider || r == RoleDriver
}

type VehicleType string

const (
	VehicleCar  VehicleType = "car"
	VehicleBike VehicleType = "bike"
	VehicleAuto VehicleType = "auto"
)

func (t VehicleType) Valid() bool {
	return t == VehicleCar || t == VehicleBike || t == VehicleAuto
}

// Vehicle a driver works with
type Vehicle struct {
	LicenseNumber string
	Type          VehicleType
	Number        string
}

// Profile is contact data of the account holder. Empty till the holder fills it
// Vehicle is set for drivers only
type Profile struct {
	Name    string
	Email   string
	Phone   string
	Vehicle *Vehicle
}

// Account is a rider's or driver's wallet
// Balance is mutated only through the ledger
type Account struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Role           Role
	Balance        decimal.Decimal
	Profile        Profile
}

// Principal is an already authenticated caller
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (a Account) Principal() Principal {
	return Principal{ID: a.ID, Role: a.Role}
}
