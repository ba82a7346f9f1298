package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/domain"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
)

// Ledger is the only way to change account balances
// Every balance change is journaled; callers pass the transactional storage, so the change commits together with the ride
type Ledger struct {
	now func() time.Time
}

func New(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// Debit takes amount from the account
// Returns apperrors.ErrBalanceNegative if the funds are insufficient
func (l *Ledger) Debit(ctx context.Context, storage repository.Storage, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, rideID *uuid.UUID) (models.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return models.Account{}, err
	}

	if err := l.journal(ctx, storage, &accountID, rideID, kind, amount); err != nil {
		return models.Account{}, err
	}

	return storage.Account().UpdateBalance(ctx, accountID, amount.Neg())
}

// Credit adds amount to the account
func (l *Ledger) Credit(ctx context.Context, storage repository.Storage, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, rideID *uuid.UUID) (models.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return models.Account{}, err
	}

	if err := l.journal(ctx, storage, &accountID, rideID, kind, amount); err != nil {
		return models.Account{}, err
	}

	return storage.Account().UpdateBalance(ctx, accountID, amount)
}

// Apply commits ledger effects of the ride transition
func (l *Ledger) Apply(ctx context.Context, storage repository.Storage, rideID uuid.UUID, effects []domain.Effect) error {
	for _, e := range effects {
		var err error

		switch {
		case e.AccountID == nil:
			// Amount leaves escrow without reaching any wallet
			err = l.journal(ctx, storage, nil, &rideID, e.Kind, e.Amount)
		case e.Debit():
			_, err = l.Debit(ctx, storage, *e.AccountID, e.Amount, e.Kind, &rideID)
		default:
			_, err = l.Credit(ctx, storage, *e.AccountID, e.Amount, e.Kind, &rideID)
		}

		if err != nil {
			return fmt.Errorf("ledger %s failed: %w", e.Kind, err)
		}
	}

	return nil
}

// History of the account balance changes, newest first
func (l *Ledger) History(ctx context.Context, storage repository.Storage, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	return storage.Ledger().ListEntries(ctx, accountID)
}

func (l *Ledger) journal(ctx context.Context, storage repository.Storage, accountID *uuid.UUID, rideID *uuid.UUID, kind models.EntryKind, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.ErrInvalidAmount
	}

	_, err := storage.Ledger().CreateEntry(ctx, models.LedgerEntry{
		ID:          uuid.New(),
		ProcessedAt: l.now(),
		AccountID:   accountID,
		RideID:      rideID,
		Kind:        kind,
		Amount:      amount,
	})

	return err
}
