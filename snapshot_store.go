package goPortal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/internal/seal"
)

var (
	errSnapshotNotFound         = errors.New("snapshot not found")
	errSnapshotRedisUnavailable = errors.New("snapshot redis unavailable")
)

// snapshotStore persists the sealed directory profile captured at login so a
// token resume does not need a directory round-trip. Records are encrypted
// at rest; a leaked Redis dump exposes no employee PII.
type snapshotStore struct {
	redis  *redis.Client
	sealer *seal.Sealer
	prefix string
}

func newSnapshotStore(redisClient *redis.Client, sealer *seal.Sealer, namespace string) *snapshotStore {
	return &snapshotStore{
		redis:  redisClient,
		sealer: sealer,
		prefix: namespace + ":snap",
	}
}

func (s *snapshotStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *snapshotStore) Save(ctx context.Context, sessionID string, principal *Principal, ttl time.Duration) error {
	plain, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sessionID), sealed, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errSnapshotRedisUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *snapshotStore) Get(ctx context.Context, sessionID string) (*Principal, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errSnapshotNotFound
		}
		return nil, fmt.Errorf("%w: %v", errSnapshotRedisUnavailable, err)
	}

	plain, err := s.sealer.Open(data)
	if err != nil {
		return nil, err
	}

	var principal Principal
	if err := json.Unmarshal(plain, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *snapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errSnapshotRedisUnavailable, err)
	}
	return nil
}
