// internal/credentials/tokens.go
package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenTTL is the exact lifetime of a reset token.
const ResetTokenTTL = 24 * time.Hour

// TokenStore persists single-use reset tokens. Consume must be atomic:
// a token can be redeemed at most once even under concurrent confirms.
type TokenStore interface {
	// Put stores token for the credential identity with ResetTokenTTL.
	Put(ctx context.Context, identity, token string, expiry time.Time) error

	// Consume redeems token for identity. Returns false when the token
	// is unknown, expired or already consumed.
	Consume(ctx context.Context, identity, token string) (bool, error)
}

// RedisTokenStore keeps tokens in Redis under a per-identity key with
// the TTL enforcing expiry.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(identity string) string {
	return "reset-token:" + identity
}

func (s *RedisTokenStore) Put(ctx context.Context, identity, token string, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return fmt.Errorf("token expiry is in the past")
	}
	if err := s.client.Set(ctx, tokenKey(identity), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// consumeScript compares and deletes in one round trip so concurrent
// confirms cannot both redeem the same token.
var consumeScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

func (s *RedisTokenStore) Consume(ctx context.Context, identity, token string) (bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{tokenKey(identity)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return res == 1, nil
}
