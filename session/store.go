package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the portal engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

const minSlidingTTL = time.Second

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store that handles persistence, idle
// expiration, and sliding window renewal.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	sliding bool
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; sliding controls whether reads renew
// the idle window.
func NewStore(redis redis.UniversalClient, prefix string, sliding bool) *Store {
	return &Store{
		redis:   redis,
		prefix:  prefix,
		sliding: sliding,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) principalKey(principalID string) string {
	return s.prefix + "u:" + principalID
}

// Save persists a [Session] to Redis with the given idle TTL.
//
//	Performance: 2 Redis commands (SET + index SADD).
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	sessionKey := s.key(sess.SessionID)
	principalKey := s.principalKey(sess.PrincipalID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey, data, ttl)
		pipe.SAdd(ctx, principalKey, sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by ID. When sliding renewal is enabled the idle
// window is reset to idleTTL, capped by the session's absolute expiry.
// Returns redis.Nil when the session does not exist or is past its absolute
// expiry.
//
//	Performance: 1 Redis GET (+1 EXPIRE when sliding).
func (s *Store) Get(ctx context.Context, sessionID string, idleTTL time.Duration) (*Session, error) {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	now := time.Now()
	remainingAbsolute := time.Unix(sess.ExpiresAt, 0).Sub(now)
	if remainingAbsolute <= 0 {
		if err := s.deleteSessionAndIndex(ctx, sess.PrincipalID, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	if s.sliding {
		nextTTL := idleTTL
		if nextTTL > remainingAbsolute {
			nextTTL = remainingAbsolute
		}
		if nextTTL < minSlidingTTL {
			nextTTL = minSlidingTTL
		}
		if err := s.redis.Expire(ctx, key, nextTTL).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return sess, nil
}

// Touch re-encodes the session with an updated LastActivity stamp and resets
// the idle window. Callers pass the session returned by a prior Get.
func (s *Store) Touch(ctx context.Context, sess *Session, idleTTL time.Duration) error {
	sess.LastActivity = time.Now().Unix()

	remainingAbsolute := time.Unix(sess.ExpiresAt, 0).Sub(time.Now())
	if remainingAbsolute <= 0 {
		return s.deleteSessionAndIndex(ctx, sess.PrincipalID, sess.SessionID)
	}
	nextTTL := idleTTL
	if nextTTL > remainingAbsolute {
		nextTTL = remainingAbsolute
	}
	if nextTTL < minSlidingTTL {
		nextTTL = minSlidingTTL
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, nextTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a session from Redis and its per-principal index entry.
// Deleting a missing session is not an error.
//
//	Performance: 1 GET + 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}

	return s.deleteSessionAndIndex(ctx, sess.PrincipalID, sessionID)
}

// DeleteAllForPrincipal removes all tracked sessions for a principal.
//
// ATOMICITY NOTE: this reads the index set then deletes members; a session
// created between the read and the delete is not captured and will expire on
// its own idle window.
func (s *Store) DeleteAllForPrincipal(ctx context.Context, principalID string) error {
	principalKey := s.principalKey(principalID)

	sessionIDs, err := s.redis.SMembers(ctx, principalKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionKeys = append(sessionKeys, s.key(sessionID))
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, principalKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ActiveSessionIDs returns tracked session IDs for a principal.
func (s *Store) ActiveSessionIDs(ctx context.Context, principalID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.principalKey(principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// GetReadOnly fetches a session without mutating TTL or index state.
func (s *Store) GetReadOnly(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID
	if time.Now().Unix() > sess.ExpiresAt {
		return nil, redis.Nil
	}

	return sess, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) deleteSessionAndIndex(ctx context.Context, principalID, sessionID string) error {
	key := s.key(sessionID)
	principalKey := s.principalKey(principalID)

	_, err := deleteSessionLua.Run(ctx, s.redis, []string{key, principalKey}, sessionID).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
