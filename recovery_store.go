package goPortal

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const recoveryRecordVersionV1 = 1

var (
	errRecoveryRecordNotFound    = errors.New("recovery record not found")
	errRecoveryRedisUnavailable  = errors.New("recovery redis unavailable")
	errRecoveryRecordVersion     = errors.New("invalid recovery record version")
	errRecoveryRecordFieldLength = errors.New("recovery record field too long")
)

// recoveryRecord is the persisted wizard state between recovery steps.
type recoveryRecord struct {
	CandidateUID string
	TargetEmail  string
	Stage        RecoveryStage
	ExpiresAt    int64
}

type recoveryStore struct {
	redis  *redis.Client
	prefix string
}

func newRecoveryStore(redisClient *redis.Client, prefix string) *recoveryStore {
	return &recoveryStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *recoveryStore) key(recoveryID string) string {
	return s.prefix + ":" + recoveryID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *recoveryStore) Save(ctx context.Context, recoveryID string, record *recoveryRecord, ttl time.Duration) error {
	encoded, err := encodeRecoveryRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(recoveryID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRecoveryRedisUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *recoveryStore) Get(ctx context.Context, recoveryID string) (*recoveryRecord, error) {
	data, err := s.redis.Get(ctx, s.key(recoveryID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errRecoveryRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", errRecoveryRedisUnavailable, err)
	}

	record, err := decodeRecoveryRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		_ = s.redis.Del(ctx, s.key(recoveryID)).Err()
		return nil, errRecoveryRecordNotFound
	}
	return record, nil
}

// Delete removes a wizard record. Deleting a missing record is not an error.
func (s *recoveryStore) Delete(ctx context.Context, recoveryID string) error {
	if err := s.redis.Del(ctx, s.key(recoveryID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRecoveryRedisUnavailable, err)
	}
	return nil
}

func encodeRecoveryRecord(record *recoveryRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recoveryRecordVersionV1)
	buf.WriteByte(byte(record.Stage))

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.CandidateUID, record.TargetEmail} {
		if len(field) > 65535 {
			return nil, errRecoveryRecordFieldLength
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeRecoveryRecord(data []byte) (*recoveryRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recoveryRecordVersionV1 {
		return nil, errRecoveryRecordVersion
	}

	stage, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &recoveryRecord{Stage: RecoveryStage(stage)}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	fields := make([]string, 2)
	for i := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}
	record.CandidateUID = fields[0]
	record.TargetEmail = fields[1]

	return record, nil
}
