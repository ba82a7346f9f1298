package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/domain"
	"github.com/nkiryanov/ridehail/internal/models"
)

type AccountRepo struct {
	s *Storage
}

func (r *AccountRepo) CreateAccount(ctx context.Context, username string, hashedPassword string, role models.Role) (models.Account, error) {
	if !role.Valid() {
		return models.Account{}, apperrors.ErrInvalidRole
	}

	var account models.Account
	err := r.s.with(func(st *state) error {
		if _, ok := st.usernames[username]; ok {
			return apperrors.ErrAccountAlreadyExists
		}

		account = models.Account{
			ID:             uuid.New(),
			CreatedAt:      time.Now(),
			Username:       username,
			HashedPassword: hashedPassword,
			Role:           role,
			Balance:        decimal.Zero,
		}
		st.accounts[account.ID] = account
		st.usernames[username] = account.ID
		return nil
	})

	return account, err
}

func (r *AccountRepo) GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error) {
	var account models.Account
	err := r.s.with(func(st *state) error {
		var ok bool
		if account, ok = st.accounts[accountID]; !ok {
			return apperrors.ErrAccountNotFound
		}
		return nil
	})

	return account, err
}

func (r *AccountRepo) GetAccountByUsername(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	err := r.s.with(func(st *state) error {
		id, ok := st.usernames[username]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		account = st.accounts[id]
		return nil
	})

	return account, err
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (models.Account, error) {
	var account models.Account
	err := r.s.with(func(st *state) error {
		var ok bool
		if account, ok = st.accounts[accountID]; !ok {
			return apperrors.ErrAccountNotFound
		}

		balance := account.Balance.Add(delta)
		if balance.IsNegative() {
			return apperrors.ErrBalanceNegative
		}
		if balance.GreaterThan(domain.MaxAmount) {
			return apperrors.ErrInvalidAmount
		}

		account.Balance = balance
		st.accounts[accountID] = account
		return nil
	})

	return account, err
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, accountID uuid.UUID, profile models.Profile) (models.Account, error) {
	var account models.Account
	err := r.s.with(func(st *state) error {
		var ok bool
		if account, ok = st.accounts[accountID]; !ok {
			return apperrors.ErrAccountNotFound
		}
		if profile.Vehicle != nil {
			if account.Role != models.RoleDriver {
				return apperrors.ErrVehicleNotAllowed
			}
			if !profile.Vehicle.Type.Valid() {
				return apperrors.ErrInvalidVehicle
			}
			v := *profile.Vehicle
			profile.Vehicle = &v
		}

		account.Profile = profile
		st.accounts[accountID] = account
		return nil
	})

	return account, err
}
