package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
)

type LedgerRepo struct {
	s *Storage
}

func (r *LedgerRepo) CreateEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	if entry.Amount.IsNegative() {
		return entry, apperrors.ErrInvalidAmount
	}

	err := r.s.with(func(st *state) error {
		if entry.AccountID != nil {
			if _, ok := st.accounts[*entry.AccountID]; !ok {
				return apperrors.ErrAccountNotFound
			}
		}

		if entry.RideID != nil {
			exists := slices.ContainsFunc(st.entries, func(e models.LedgerEntry) bool {
				return e.RideID != nil && *e.RideID == *entry.RideID && e.Kind == entry.Kind
			})
			if exists {
				return apperrors.ErrLedgerEntryExists
			}
		}

		st.entries = append(st.entries, entry)
		return nil
	})

	return entry, err
}

func (r *LedgerRepo) ListEntries(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	entries, err := r.filter(func(e models.LedgerEntry) bool {
		return e.AccountID != nil && *e.AccountID == accountID
	})

	// Newest first, stable for entries processed at the same moment
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b models.LedgerEntry) int {
		return b.ProcessedAt.Compare(a.ProcessedAt)
	})

	return entries, err
}

func (r *LedgerRepo) ListRideEntries(ctx context.Context, rideID uuid.UUID) ([]models.LedgerEntry, error) {
	entries, err := r.filter(func(e models.LedgerEntry) bool {
		return e.RideID != nil && *e.RideID == rideID
	})

	slices.SortStableFunc(entries, func(a, b models.LedgerEntry) int {
		return cmp.Compare(a.ProcessedAt.UnixNano(), b.ProcessedAt.UnixNano())
	})

	return entries, err
}

func (r *LedgerRepo) filter(keep func(models.LedgerEntry) bool) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.s.with(func(st *state) error {
		for _, e := range st.entries {
			if keep(e) {
				entries = append(entries, e)
			}
		}
		return nil
	})

	return entries, err
}
