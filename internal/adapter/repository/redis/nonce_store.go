package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "nonce:"

// NonceStore records tokens with SET NX so that replicas sharing one Redis
// see the same history. A zero ttl keeps tokens forever.
type NonceStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewNonceStore(client redis.UniversalClient, ttl time.Duration) *NonceStore {
	return &NonceStore{client: client, ttl: ttl}
}

func (s *NonceStore) Add(ctx context.Context, token string) (bool, error) {
	added, err := s.client.SetNX(ctx, keyPrefix+token, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record nonce: %w", err)
	}
	return added, nil
}
