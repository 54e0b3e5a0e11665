package goPortal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errStagedNotFound         = errors.New("staged change not found")
	errStagedRedisUnavailable = errors.New("staged change redis unavailable")
)

// stagedChangeRecord is the persisted form of a profile update waiting for
// its confirmation code. TargetEmail is where the code went: the new
// address when the change includes one, the address on record otherwise.
// Optional-field diffs encode cleanly as JSON; this record is never on a
// hot path.
type stagedChangeRecord struct {
	Diff        ProfileDiff `json:"diff"`
	TargetEmail string      `json:"targetEmail"`
	Verified    bool        `json:"verified,omitempty"`
	ExpiresAt   int64       `json:"expiresAt"`
}

type stagedChangeStore struct {
	redis  *redis.Client
	prefix string
}

func newStagedChangeStore(redisClient *redis.Client, prefix string) *stagedChangeStore {
	return &stagedChangeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *stagedChangeStore) key(principalID string) string {
	return s.prefix + ":" + principalID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *stagedChangeStore) Save(ctx context.Context, principalID string, record *stagedChangeRecord, ttl time.Duration) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(principalID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errStagedRedisUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *stagedChangeStore) Get(ctx context.Context, principalID string) (*stagedChangeRecord, error) {
	data, err := s.redis.Get(ctx, s.key(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errStagedNotFound
		}
		return nil, fmt.Errorf("%w: %v", errStagedRedisUnavailable, err)
	}

	var record stagedChangeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		_ = s.redis.Del(ctx, s.key(principalID)).Err()
		return nil, errStagedNotFound
	}
	return &record, nil
}

// Delete removes a staged change. Deleting a missing record is not an error.
func (s *stagedChangeStore) Delete(ctx context.Context, principalID string) error {
	if err := s.redis.Del(ctx, s.key(principalID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errStagedRedisUnavailable, err)
	}
	return nil
}
