package goPortal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errTrustRedisUnavailable = errors.New("trust redis unavailable")

// trustStore persists device-trust markers. A marker records that the
// principal completed a challenge from a given device binding; its presence
// lets later logins from the same binding skip the challenge step.
type trustStore struct {
	redis  *redis.Client
	prefix string
}

func newTrustStore(redisClient *redis.Client, prefix string) *trustStore {
	return &trustStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *trustStore) key(principalID string, binding [32]byte) string {
	return s.prefix + ":" + principalID + ":" + hex.EncodeToString(binding[:8])
}

// Mark records a trusted device binding for a principal. ttl of zero means
// the marker does not expire.
func (s *trustStore) Mark(ctx context.Context, principalID string, binding [32]byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(principalID, binding), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errTrustRedisUnavailable, err)
	}
	return nil
}

// Check reports whether a trusted marker exists for the binding.
func (s *trustStore) Check(ctx context.Context, principalID string, binding [32]byte) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(principalID, binding)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errTrustRedisUnavailable, err)
	}
	return n > 0, nil
}

// ClearAll removes every trusted marker for a principal. Clearing when no
// markers exist is not an error.
func (s *trustStore) ClearAll(ctx context.Context, principalID string) error {
	pattern := s.prefix + ":" + principalID + ":*"
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", errTrustRedisUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", errTrustRedisUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
