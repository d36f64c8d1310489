package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// StateStore is the durable key/value surface recording hashes and
// timestamps for idempotent, resumable detection across invocations.
type StateStore interface {
	Get(ctx context.Context) (*domain.NotificationState, error)
	// RecordChange compares hash against the last observed schedule hash and,
	// when it differs, transitions the record to PENDING in a single atomic
	// write. Returns whether a change was recorded.
	RecordChange(ctx context.Context, hash string) (bool, error)
	// MarkPending transitions to PENDING without consulting the last hash;
	// used by producers that already know a change happened (the save path).
	MarkPending(ctx context.Context, hash string) error
	// ClearPending ends the pending cycle, recording consumedHash as the
	// last notified hash when set.
	ClearPending(ctx context.Context, consumedHash string) error
}

// Field names of the state record. Shared with the original deployment's
// data, so they must not change.
const (
	fieldLastHash     = "last_schedule_hash"
	fieldPendingHash  = "pending_schedule_hash"
	fieldPendingFlag  = "pending_notification"
	fieldNotifiedHash = "last_notified_hash"
	fieldLastChangeAt = "last_schedule_change_at"
	fieldNotifiedAt   = "last_notified_at"
	fieldUpdatedAt    = "updated_at"
)

const recordChangeRetries = 3

// RedisStateStore keeps the state record in one Redis hash. HSET merge-
// updates individual fields without clobbering the rest; RecordChange runs
// under WATCH so concurrent detections settle to a single winner.
type RedisStateStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisStateStore(client *redis.Client, key string, timeout time.Duration) *RedisStateStore {
	return &RedisStateStore{
		client:  client,
		key:     key,
		timeout: timeout,
	}
}

func (s *RedisStateStore) Get(ctx context.Context) (*domain.NotificationState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	return &domain.NotificationState{
		LastScheduleHash: fields[fieldLastHash],
		PendingHash:      fields[fieldPendingHash],
		PendingFlag:      fields[fieldPendingFlag] == "true",
		LastNotifiedHash: fields[fieldNotifiedHash],
		LastChangeAt:     fields[fieldLastChangeAt],
		LastNotifiedAt:   fields[fieldNotifiedAt],
		UpdatedAt:        fields[fieldUpdatedAt],
	}, nil
}

func (s *RedisStateStore) RecordChange(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changed := false
	txn := func(tx *redis.Tx) error {
		last, err := tx.HGet(ctx, s.key, fieldLastHash).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if last == hash {
			changed = false
			return nil
		}

		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, map[string]any{
				fieldLastHash:     hash,
				fieldPendingHash:  hash,
				fieldPendingFlag:  "true",
				fieldLastChangeAt: now,
				fieldUpdatedAt:    now,
			})
			return nil
		})
		if err != nil {
			return err
		}
		changed = true
		return nil
	}

	for i := 0; i < recordChangeRetries; i++ {
		err := s.client.Watch(ctx, txn, s.key)
		if err == nil {
			return changed, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Another invocation touched the record; re-read and retry.
			continue
		}
		return false, err
	}

	return false, redis.TxFailedErr
}

func (s *RedisStateStore) MarkPending(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	return s.client.HSet(ctx, s.key, map[string]any{
		fieldPendingHash:  hash,
		fieldPendingFlag:  "true",
		fieldLastChangeAt: now,
		fieldUpdatedAt:    now,
	}).Err()
}

func (s *RedisStateStore) ClearPending(ctx context.Context, consumedHash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	fields := map[string]any{
		fieldPendingFlag: "false",
		fieldNotifiedAt:  now,
		fieldUpdatedAt:   now,
	}
	if consumedHash != "" {
		fields[fieldNotifiedHash] = consumedHash
	}
	return s.client.HSet(ctx, s.key, fields).Err()
}
