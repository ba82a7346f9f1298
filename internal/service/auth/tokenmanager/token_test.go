package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ridehail/internal/models"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	principal := models.Principal{ID: uuid.New(), Role: models.RoleDriver}

	newManager := func(t *testing.T, ttl time.Duration) *TokenManager {
		m, err := New(Config{SecretKey: "test-secret-key", AccessTTL: ttl})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "secret", m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new without secret", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})

	t.Run("new with unknown alg", func(t *testing.T) {
		_, err := New(Config{SecretKey: "secret", Alg: "ROT13"})
		require.Error(t, err)
	})

	t.Run("access claims", func(t *testing.T) {
		m := newManager(t, 15*time.Minute)

		issued, err := m.Generate(principal)
		require.NoError(t, err)

		token, err := jwt.ParseWithClaims(issued.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
			return []byte("test-secret-key"), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid, "access token should be valid")

		claims, ok := token.Claims.(*AccessTokenClaims)
		require.True(t, ok, "claims should be of type AccessTokenClaims")
		assert.Equal(t, principal.ID, claims.UserID)
		assert.Equal(t, models.RoleDriver, claims.Role)
		assert.NotEmpty(t, claims.ID, "token has to has jti")
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
		assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, 0)
	})

	t.Run("generate different tokens", func(t *testing.T) {
		m := newManager(t, 15*time.Minute)

		first, err := m.Generate(principal)
		require.NoError(t, err)
		second, err := m.Generate(principal)
		require.NoError(t, err)

		assert.NotEqual(t, first.Value, second.Value, "jti makes every token unique")
	})

	t.Run("Parse", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)
			issued, err := m.Generate(principal)
			require.NoError(t, err)

			got, err := m.Parse(issued.Value)

			require.NoError(t, err)
			require.Equal(t, principal, got)
		})

		t.Run("expired", func(t *testing.T) {
			m := newManager(t, -time.Minute)
			issued, err := m.Generate(principal)
			require.NoError(t, err)

			_, err = m.Parse(issued.Value)

			require.ErrorIs(t, err, jwt.ErrTokenExpired)
		})

		t.Run("signed with other key", func(t *testing.T) {
			other, err := New(Config{SecretKey: "other-key"})
			require.NoError(t, err)
			issued, err := other.Generate(principal)
			require.NoError(t, err)

			_, err = newManager(t, time.Minute).Parse(issued.Value)

			require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
		})

		t.Run("garbage", func(t *testing.T) {
			_, err := newManager(t, time.Minute).Parse("not-a-token")
			require.Error(t, err)
		})

		t.Run("unknown role", func(t *testing.T) {
			m := newManager(t, time.Minute)
			issued, err := m.Generate(models.Principal{ID: uuid.New(), Role: models.Role("admin")})
			require.NoError(t, err)

			_, err = m.Parse(issued.Value)

			require.Error(t, err)
		})
	})
}
