package goPortal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errResendCoolingDown = errors.New("resend cooling down")

// resendLimiter enforces the per-principal cooldown between challenge sends.
// A fixed window keyed by principal and purpose; the first send in a window
// arms the cooldown, later sends inside it are refused with the remaining
// wait time.
type resendLimiter struct {
	redis    *redis.Client
	prefix   string
	cooldown time.Duration
}

func newResendLimiter(redisClient *redis.Client, prefix string, cooldown time.Duration) *resendLimiter {
	return &resendLimiter{
		redis:    redisClient,
		prefix:   prefix,
		cooldown: cooldown,
	}
}

func (l *resendLimiter) key(principalID string, purpose Purpose) string {
	return l.prefix + "cd:" + purpose.String() + ":" + principalID
}

// Reserve arms the cooldown window for a principal and purpose. Returns
// errResendCoolingDown with the remaining wait when already armed.
func (l *resendLimiter) Reserve(ctx context.Context, principalID string, purpose Purpose) (time.Duration, error) {
	if l.cooldown <= 0 {
		return 0, nil
	}

	key := l.key(principalID, purpose)
	ok, err := l.redis.SetNX(ctx, key, 1, l.cooldown).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}
	if ok {
		return 0, nil
	}

	remaining, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining, errResendCoolingDown
}

// Release clears an armed cooldown. Used when delivery fails after the
// window was reserved, so the caller can retry immediately.
func (l *resendLimiter) Release(ctx context.Context, principalID string, purpose Purpose) error {
	if err := l.redis.Del(ctx, l.key(principalID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}
	return nil
}
