package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
	"github.com/nkiryanov/ridehail/internal/service/auth"
	"github.com/nkiryanov/ridehail/internal/service/ledger"
)

const defaultOperationTimeout = 5 * time.Second

type AccountService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
	ledger  *ledger.Ledger
	timeout time.Duration

	// Compared against when user is unknown, so login time does not reveal registered usernames
	dummyHash string
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage, timeout time.Duration) *AccountService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}
	if timeout == 0 {
		timeout = defaultOperationTimeout
	}

	dummyHash, _ := hasher.Hash("dummy-password")

	return &AccountService{
		hasher:    hasher,
		storage:   storage,
		ledger:    ledger.New(nil),
		timeout:   timeout,
		dummyHash: dummyHash,
	}
}

// Create account with empty wallet
func (s *AccountService) CreateAccount(ctx context.Context, username string, password string, role models.Role) (models.Account, error) {
	if !role.Valid() {
		return models.Account{}, apperrors.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.Account().CreateAccount(ctx, username, hash, role)
	if err != nil {
		return account, fmt.Errorf("can't create account. Err: %w", err)
	}

	return account, nil
}

// Login returns the account if the password matches
// Any mismatch is reported as apperrors.ErrInvalidCredentials
func (s *AccountService) Login(ctx context.Context, username string, password string) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.Account().GetAccountByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.Account{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.Account{}, err
	}

	if err := s.hasher.Compare(account.HashedPassword, password); err != nil {
		return models.Account{}, apperrors.ErrInvalidCredentials
	}

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, p models.Principal) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.storage.Account().GetAccount(ctx, p.ID, false)
}

// UpdateProfile replaces contact data of the principal
// Drivers have to describe their vehicle, riders must not have one
func (s *AccountService) UpdateProfile(ctx context.Context, p models.Principal, profile models.Profile) (models.Account, error) {
	profile = normalizeProfile(profile)

	switch v := profile.Vehicle; {
	case p.Role != models.RoleDriver && v != nil:
		return models.Account{}, apperrors.ErrVehicleNotAllowed
	case p.Role == models.RoleDriver && (v == nil || v.LicenseNumber == "" || v.Number == ""):
		return models.Account{}, apperrors.ErrVehicleRequired
	case v != nil && !v.Type.Valid():
		return models.Account{}, apperrors.ErrInvalidVehicle
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.Account().UpdateProfile(ctx, p.ID, profile)
	if err != nil {
		return account, fmt.Errorf("can't update profile. Err: %w", err)
	}

	return account, nil
}

func normalizeProfile(p models.Profile) models.Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Vehicle != nil {
		v := *p.Vehicle
		v.LicenseNumber = strings.TrimSpace(v.LicenseNumber)
		v.Number = strings.ToUpper(strings.TrimSpace(v.Number))
		p.Vehicle = &v
	}
	return p
}

// TopUp funds the wallet from outside, amount has to be positive
func (s *AccountService) TopUp(ctx context.Context, p models.Principal, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, apperrors.ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var account models.Account
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		account, err = s.ledger.Credit(ctx, storage, p.ID, amount, models.EntryTopUp, nil)
		return err
	})

	return account, err
}

// Wallet journal of the principal, newest first
func (s *AccountService) ListTransactions(ctx context.Context, p models.Principal) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.ledger.History(ctx, s.storage, p.ID)
}
