package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, created_at, username, password_hash, role, balance,
name, email, phone, license_number, vehicle_type, vehicle_number`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (id, username, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + accountColumns

func (r *AccountRepo) CreateAccount(ctx context.Context, username string, hashedPassword string, role models.Role) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, uuid.New(), username, hashedPassword, role)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case isUniqueViolation(err):
		return account, apperrors.ErrAccountAlreadyExists
	case isCheckViolation(err, ""):
		return account, apperrors.ErrInvalidRole
	default:
		return account, dbError(err)
	}
}

const getAccount = `-- name: GetAccount
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error) {
	query := getAccount
	if lock {
		query += " FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, accountID)
	return collectAccount(rows)
}

const getAccountByUsername = `-- name: GetAccountByUsername
SELECT ` + accountColumns + ` FROM accounts
WHERE username = $1
`

func (r *AccountRepo) GetAccountByUsername(ctx context.Context, username string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByUsername, username)
	return collectAccount(rows)
}

// The check is a part of the statement, so concurrent updates can't bring balance below zero
const updateBalance = `-- name: UpdateBalance
UPDATE accounts
SET balance = balance + $2
WHERE id = $1 AND balance + $2 >= 0
RETURNING ` + accountColumns

func (r *AccountRepo) UpdateBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateBalance, accountID, delta)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either there is no account or the funds are insufficient
		if _, err := r.GetAccount(ctx, accountID, false); err != nil {
			return account, err
		}
		return account, apperrors.ErrBalanceNegative
	case isCheckViolation(err, ""):
		return account, apperrors.ErrBalanceNegative
	default:
		return account, dbError(err)
	}
}

const updateProfile = `-- name: UpdateProfile
UPDATE accounts
SET name = $2, email = $3, phone = $4, license_number = $5, vehicle_type = $6, vehicle_number = $7
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) UpdateProfile(ctx context.Context, accountID uuid.UUID, profile models.Profile) (models.Account, error) {
	var license, vehicleType, number *string
	if v := profile.Vehicle; v != nil {
		t := string(v.Type)
		license, vehicleType, number = &v.LicenseNumber, &t, &v.Number
	}

	rows, _ := r.DB.Query(ctx, updateProfile, accountID, profile.Name, profile.Email, profile.Phone, license, vehicleType, number)
	account, err := collectAccount(rows)

	switch {
	case isCheckViolation(err, "accounts_vehicle_driver_only"):
		return account, apperrors.ErrVehicleNotAllowed
	case isCheckViolation(err, ""):
		return account, apperrors.ErrInvalidVehicle
	default:
		return account, err
	}
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, dbError(err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var (
		a                               models.Account
		license, vehicleType, vehicleNo *string
	)
	err := row.Scan(
		&a.ID, &a.CreatedAt, &a.Username, &a.HashedPassword, &a.Role, &a.Balance,
		&a.Profile.Name, &a.Profile.Email, &a.Profile.Phone, &license, &vehicleType, &vehicleNo,
	)
	if err != nil {
		return a, err
	}

	// Columns are either all set or all null, the table checks it
	if vehicleType != nil {
		a.Profile.Vehicle = &models.Vehicle{
			LicenseNumber: *license,
			Type:          models.VehicleType(*vehicleType),
			Number:        *vehicleNo,
		}
	}
	return a, nil
}
