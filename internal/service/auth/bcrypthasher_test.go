package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}
	long := strings.Repeat("r", 80)

	t.Run("hash has bcrypt format and cost", func(t *testing.T) {
		hash, err := h.Hash("rider-password")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err, "hash has to be parsable by bcrypt")
		require.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("default cost", func(t *testing.T) {
		hash, err := BcryptHasher{}.Hash("rider-password")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost)
	})

	tests := []struct {
		name     string
		password string
		attempt  string
		match    bool
	}{
		{"same password", "rider-password", "rider-password", true},
		{"wrong password", "rider-password", "driver-password", false},
		{"case matters", "rider-password", "Rider-password", false},
		{"long password same", long + "1", long + "1", true},
		{"long password differs after 72 bytes", long + "1", long + "2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)

			err = h.Compare(hash, tt.attempt)

			if tt.match {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
			}
		})
	}

	t.Run("empty password", func(t *testing.T) {
		_, err := h.Hash("")
		require.ErrorIs(t, err, ErrEmptyPassword)
	})
}
