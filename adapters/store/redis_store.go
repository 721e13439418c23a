package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the nonce and token stores on redis. Keys carry a
// TTL so stale nonces and expired revocations clean themselves up.
type RedisStore struct {
	client      *redis.Client
	noncePrefix string
	tokenPrefix string
}

// NewRedisStore creates a redis-backed nonce/token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:      client,
		noncePrefix: "veristamp:nonce:",
		tokenPrefix: "veristamp:invalidated:",
	}
}

func (s *RedisStore) SaveNonce(ctx context.Context, address, nonce string, ttl time.Duration) error {
	// Addresses are keyed lowercase so checksum case variants hit one slot.
	key := s.noncePrefix + strings.ToLower(address)
	if err := s.client.Set(ctx, key, nonce, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	return nil
}

// consumeNonceScript checks and deletes in one round trip so two logins
// racing on the same nonce cannot both succeed.
var consumeNonceScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisStore) ConsumeNonce(ctx context.Context, address, nonce string) (bool, error) {
	key := s.noncePrefix + strings.ToLower(address)
	n, err := consumeNonceScript.Run(ctx, s.client, []string{key}, nonce).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.tokenPrefix + tokenID
	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.tokenPrefix + tokenID
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return val > 0, nil
}
