// Package memory keeps the whole storage in process memory
// Fast and deterministic stand-in for postgres in service and handler tests
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/models"
	"github.com/nkiryanov/ridehail/internal/repository"
)

type state struct {
	accounts  map[uuid.UUID]models.Account
	usernames map[string]uuid.UUID
	rides     map[uuid.UUID]models.Ride
	entries   []models.LedgerEntry
}

func (s *state) clone() *state {
	return &state{
		accounts:  maps.Clone(s.accounts),
		usernames: maps.Clone(s.usernames),
		rides:     maps.Clone(s.rides),
		entries:   slices.Clone(s.entries),
	}
}

type db struct {
	mu    sync.Mutex
	state *state
}

// Storage is safe for concurrent use
// Transactions are serialized: InTx holds the lock till fn returns and works on a copy of the state
type Storage struct {
	db *db

	// Working copy of the state, nil outside of transaction
	tx *state
}

func NewStorage() *Storage {
	return &Storage{
		db: &db{state: &state{
			accounts:  make(map[uuid.UUID]models.Account),
			usernames: make(map[string]uuid.UUID),
			rides:     make(map[uuid.UUID]models.Ride),
		}},
	}
}

func (s *Storage) Account() repository.AccountRepo {
	return &AccountRepo{s: s}
}

func (s *Storage) Ride() repository.RideRepo {
	return &RideRepo{s: s}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{s: s}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Infrastructure(err)
	}

	// Nested transaction is applied to the outer working copy
	if s.tx != nil {
		working := s.tx.clone()
		if err := fn(&Storage{db: s.db, tx: working}); err != nil {
			return err
		}
		*s.tx = *working
		return nil
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	working := s.db.state.clone()
	if err := fn(&Storage{db: s.db, tx: working}); err != nil {
		return err
	}

	// Deadline passed while fn was running, the caller has given up on the result
	if err := ctx.Err(); err != nil {
		return apperrors.Infrastructure(err)
	}

	s.db.state = working
	return nil
}

// Run fn on the working copy or on the committed state under the lock
func (s *Storage) with(fn func(*state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return fn(s.db.state)
}
