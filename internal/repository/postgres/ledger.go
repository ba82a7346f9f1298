package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

const entryColumns = `id, processed_at, account_id, ride_id, kind, amount`

const createEntry = `-- name: CreateEntry
INSERT INTO ledger_entries (id, processed_at, account_id, ride_id, kind, amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + entryColumns

func (r *LedgerRepo) CreateEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, createEntry, entry.ID, entry.ProcessedAt, entry.AccountID, entry.RideID, entry.Kind, entry.Amount)
	created, err := pgx.CollectOneRow(rows, rowToEntry)

	switch {
	case err == nil:
		return created, nil
	case isUniqueViolation(err):
		return created, apperrors.ErrLedgerEntryExists
	case isForeignKeyViolation(err):
		return created, apperrors.ErrAccountNotFound
	case isCheckViolation(err, ""):
		return created, apperrors.ErrInvalidAmount
	default:
		return created, dbError(err)
	}
}

const listEntries = `-- name: ListEntries
SELECT ` + entryColumns + ` FROM ledger_entries
WHERE account_id = $1
ORDER BY processed_at DESC, id
`

func (r *LedgerRepo) ListEntries(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, listEntries, accountID)
	return collectEntries(rows)
}

const listRideEntries = `-- name: ListRideEntries
SELECT ` + entryColumns + ` FROM ledger_entries
WHERE ride_id = $1
ORDER BY processed_at, id
`

func (r *LedgerRepo) ListRideEntries(ctx context.Context, rideID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, listRideEntries, rideID)
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	entries, err := pgx.CollectRows(rows, rowToEntry)
	if err != nil {
		return nil, dbError(err)
	}
	return entries, nil
}

func rowToEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.ProcessedAt, &e.AccountID, &e.RideID, &e.Kind, &e.Amount)
	return e, err
}
