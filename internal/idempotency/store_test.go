package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ridehail/internal/testutil"
)

func TestRedisStore(t *testing.T) {
	t.Parallel()

	rc := testutil.StartRedisContainer(t)
	t.Cleanup(rc.Terminate)

	store := NewRedisStore(rc.Client)

	t.Run("missing response", func(t *testing.T) {
		_, ok, err := store.Get(t.Context(), "missing")

		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("save and get", func(t *testing.T) {
		want := Response{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"1"}`), RequestHash: "44136fa355b3678a"}
		require.NoError(t, store.Save(t.Context(), "save-key", want))

		got, ok, err := store.Get(t.Context(), "save-key")

		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got)

		ttl, err := rc.Client.TTL(t.Context(), responsePrefix+"save-key").Result()
		require.NoError(t, err)
		require.Greater(t, ttl, DefaultResponseTTL-time.Minute, "response must expire")
	})

	t.Run("lock once", func(t *testing.T) {
		ok, err := store.Lock(t.Context(), "lock-key")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.Lock(t.Context(), "lock-key")
		require.NoError(t, err)
		require.False(t, ok, "key is held by the first request")

		require.NoError(t, store.Unlock(t.Context(), "lock-key"))
		ok, err = store.Lock(t.Context(), "lock-key")
		require.NoError(t, err)
		require.True(t, ok, "released key may be taken again")
	})

	t.Run("connect", func(t *testing.T) {
		client, err := Connect(t.Context(), rc.Addr)
		require.NoError(t, err)
		require.NoError(t, client.Close())

		_, err = Connect(t.Context(), "127.0.0.1:1")
		require.Error(t, err)
	})
}
