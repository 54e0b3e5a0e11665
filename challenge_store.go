package goPortal

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeRecordVersionV1 = 1

var (
	errChallengeNotFound         = errors.New("challenge record not found")
	errChallengeSecretMismatch   = errors.New("challenge secret mismatch")
	errChallengeAttemptsExceeded = errors.New("challenge attempts exceeded")
	errChallengeRedisUnavailable = errors.New("challenge redis unavailable")
)

// challengeRecord is the persisted shape of an issued challenge. The code
// itself is never stored; only its SHA-256 digest survives issuance.
type challengeRecord struct {
	PrincipalID string
	TargetEmail string
	SecretHash  [32]byte
	ExpiresAt   int64
	Attempts    uint16
	Purpose     Purpose
}

type challengeStore struct {
	redis  *redis.Client
	prefix string
}

func newChallengeStore(redisClient *redis.Client, prefix string) *challengeStore {
	return &challengeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

// One active challenge per principal and purpose; issuing again overwrites.
func (s *challengeStore) key(principalID string, purpose Purpose) string {
	return s.prefix + ":" + purpose.String() + ":" + principalID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *challengeStore) Save(
	ctx context.Context,
	record *challengeRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(record.PrincipalID, record.Purpose), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}

	return nil
}

// Drop removes the active challenge slot without consuming it. Used when a
// delivery attempt fails after persistence.
func (s *challengeStore) Drop(ctx context.Context, principalID string, purpose Purpose) error {
	if err := s.redis.Del(ctx, s.key(principalID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}
	return nil
}

// Consume describes the consume operation and its observable behavior.
//
// Consume may return an error when input validation, dependency calls, or security checks fail.
// Consume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *challengeStore) Consume(
	ctx context.Context,
	principalID string,
	purpose Purpose,
	providedHash [32]byte,
	maxAttempts int,
) (*challengeRecord, error) {
	const maxRetries = 4
	key := s.key(principalID, purpose)

	for i := 0; i < maxRetries; i++ {
		var matched *challengeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeChallengeRecord(data)
			if err != nil {
				return err
			}

			now := time.Now()
			if now.Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errChallengeNotFound
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errChallengeAttemptsExceeded
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errChallengeNotFound
				}

				updated, err := encodeChallengeRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return errChallengeSecretMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, errChallengeNotFound), errors.Is(err, errChallengeSecretMismatch), errors.Is(err, errChallengeAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errChallengeNotFound
}

// Peek reads the active challenge without touching attempt state. Used by
// resend to recover the delivery target.
func (s *challengeStore) Peek(ctx context.Context, principalID string, purpose Purpose) (*challengeRecord, error) {
	data, err := s.redis.Get(ctx, s.key(principalID, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}

	record, err := decodeChallengeRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		return nil, errChallengeNotFound
	}
	return record, nil
}

func encodeChallengeRecord(record *challengeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersionV1)
	buf.WriteByte(byte(record.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.PrincipalID) > 65535 {
		return nil, errors.New("challenge record principal id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.PrincipalID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.PrincipalID)

	if len(record.TargetEmail) > 65535 {
		return nil, errors.New("challenge record target email too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.TargetEmail))); err != nil {
		return nil, err
	}
	buf.WriteString(record.TargetEmail)

	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersionV1 {
		return nil, errors.New("invalid challenge record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &challengeRecord{
		Purpose: Purpose(purpose),
	}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var principalLen uint16
	if err := binary.Read(reader, binary.BigEndian, &principalLen); err != nil {
		return nil, err
	}
	principalID := make([]byte, principalLen)
	if _, err := io.ReadFull(reader, principalID); err != nil {
		return nil, err
	}
	record.PrincipalID = string(principalID)

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.TargetEmail = string(email)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
