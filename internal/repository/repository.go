package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/models"
)

// Storage gives access to all repositories
// Repositories returned from the storage passed to InTx work in one transaction
type Storage interface {
	Account() AccountRepo
	Ride() RideRepo
	Ledger() LedgerRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	// Implementations may run fn several times if the transaction could not be serialized
	InTx(ctx context.Context, fn func(Storage) error) error
}

type AccountRepo interface {
	// Create account with zero balance
	// If account with username exists already has to return apperrors.ErrAccountAlreadyExists
	CreateAccount(ctx context.Context, username string, hashedPassword string, role models.Role) (models.Account, error)

	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (models.Account, error)

	// Add delta to the balance atomically and return updated account
	// If balance would become negative must return apperrors.ErrBalanceNegative and keep balance unchanged
	UpdateBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (models.Account, error)

	// Replace profile of the account and return updated account
	// Must return apperrors.ErrVehicleNotAllowed if vehicle is set for a rider
	UpdateProfile(ctx context.Context, accountID uuid.UUID, profile models.Profile) (models.Account, error)
}

type ListRidesOpts struct {
	// Filter by statuses, any status if empty
	Statuses []models.RideStatus

	RiderID  *uuid.UUID
	DriverID *uuid.UUID

	// No limit if zero
	Limit int
}

type RideRepo interface {
	CreateRide(ctx context.Context, ride models.Ride) (models.Ride, error)

	// If ride not found must return apperrors.ErrRideNotFound
	// When lock is true the ride stays locked till the transaction ends
	GetRide(ctx context.Context, rideID uuid.UUID, lock bool) (models.Ride, error)

	// Save ride if its stored version equals ride.Version and return it with incremented version
	// Must return apperrors.ErrRideVersionMismatch if the ride was changed meanwhile
	UpdateRide(ctx context.Context, ride models.Ride) (models.Ride, error)

	// Rides ordered by creation time, newest first
	ListRides(ctx context.Context, opts ListRidesOpts) ([]models.Ride, error)
}

type LedgerRepo interface {
	// Must return apperrors.ErrLedgerEntryExists if the ride already has entry of the same kind
	CreateEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error)

	// Entries of the account, newest first
	ListEntries(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error)

	// All entries of the ride in processing order
	ListRideEntries(ctx context.Context, rideID uuid.UUID) ([]models.LedgerEntry, error)
}
