package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
	"github.com/nkiryanov/ridehail/internal/testutil"
)

func TestLedger(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
		rider, err := storage.Account().CreateAccount(t.Context(), "rider", "hash", models.RoleRider)
		require.NoError(t, err)
		ride, err := storage.Ride().CreateRide(t.Context(), newRide(rider.ID, time.Now()))
		require.NoError(t, err)

		escrow := func() models.LedgerEntry {
			return models.LedgerEntry{
				ID:          uuid.New(),
				ProcessedAt: time.Now(),
				AccountID:   &rider.ID,
				RideID:      &ride.ID,
				Kind:        models.EntryEscrow,
				Amount:      ride.Fare,
			}
		}

		t.Run("create entry", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				entry := escrow()

				created, err := storage.Ledger().CreateEntry(t.Context(), entry)

				require.NoError(t, err)
				require.Equal(t, entry.ID, created.ID)
				require.Equal(t, rider.ID, *created.AccountID)
				require.True(t, created.Amount.Equal(ride.Fare))
			})
		})

		t.Run("one entry of kind per ride", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				_, err := storage.Ledger().CreateEntry(t.Context(), escrow())
				require.NoError(t, err)

				_, err = storage.Ledger().CreateEntry(t.Context(), escrow())

				require.ErrorIs(t, err, apperrors.ErrLedgerEntryExists)
			})
		})

		t.Run("retained entry has no account", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				_, err := storage.Ledger().CreateEntry(t.Context(), models.LedgerEntry{
					ID:          uuid.New(),
					ProcessedAt: time.Now(),
					RideID:      &ride.ID,
					Kind:        models.EntryRetained,
					Amount:      decimal.NewFromInt(5),
				})
				require.NoError(t, err)

				entries, err := storage.Ledger().ListRideEntries(t.Context(), ride.ID)
				require.NoError(t, err)
				require.Len(t, entries, 1)
				require.Nil(t, entries[0].AccountID)
			})
		})

		t.Run("negative amount rejected", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				_, err := storage.Ledger().CreateEntry(t.Context(), models.LedgerEntry{
					ID:          uuid.New(),
					ProcessedAt: time.Now(),
					AccountID:   &rider.ID,
					Kind:        models.EntryTopUp,
					Amount:      decimal.NewFromInt(-5),
				})

				require.ErrorIs(t, err, apperrors.ErrInvalidAmount)
			})
		})

		t.Run("list account entries newest first", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				topup := models.LedgerEntry{
					ID:          uuid.New(),
					ProcessedAt: time.Now().Add(-time.Hour),
					AccountID:   &rider.ID,
					Kind:        models.EntryTopUp,
					Amount:      decimal.NewFromInt(100),
				}
				_, err := storage.Ledger().CreateEntry(t.Context(), topup)
				require.NoError(t, err)
				e := escrow()
				_, err = storage.Ledger().CreateEntry(t.Context(), e)
				require.NoError(t, err)

				entries, err := storage.Ledger().ListEntries(t.Context(), rider.ID)

				require.NoError(t, err)
				require.Len(t, entries, 2)
				require.Equal(t, e.ID, entries[0].ID)
				require.Equal(t, topup.ID, entries[1].ID)

				none, err := storage.Ledger().ListEntries(t.Context(), uuid.New())
				require.NoError(t, err)
				require.Empty(t, none)
			})
		})
	})
}
