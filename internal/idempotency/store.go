// Package idempotency keeps responses of completed requests, so a retried request gets the same answer
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultResponseTTL = 24 * time.Hour

	// Request holding the key has to finish in that time, otherwise the key is released
	DefaultLockTTL = 30 * time.Second
)

const (
	responsePrefix = "idempotency:response:"
	lockPrefix     = "idempotency:lock:"
)

// Response as it was written to the client
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`

	// Hex sha256 of the request body the response was given to
	RequestHash string `json:"request_hash"`
}

// RedisStore keeps responses in redis
type RedisStore struct {
	client      redis.UniversalClient
	responseTTL time.Duration
	lockTTL     time.Duration
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client:      client,
		responseTTL: DefaultResponseTTL,
		lockTTL:     DefaultLockTTL,
	}
}

// Get returns stored response, ok is false if there is none
func (s *RedisStore) Get(ctx context.Context, key string) (resp Response, ok bool, err error) {
	data, err := s.client.Get(ctx, responsePrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return resp, false, nil
	case err != nil:
		return resp, false, fmt.Errorf("redis error: %w", err)
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, false, fmt.Errorf("stored response is broken: %w", err)
	}

	return resp, true, nil
}

// Lock marks the key as being processed
// Returns false if another request holds the key already
func (s *RedisStore) Lock(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockPrefix+key, "1", s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Unlock(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockPrefix+key).Err()
}

// Save response for the key
func (s *RedisStore) Save(ctx context.Context, key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, responsePrefix+key, data, s.responseTTL).Err()
}

// Connect to redis and check it is reachable
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis is not reachable. Err: %w", err)
	}
	return client, nil
}
