package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"telecom-network/pkg/utils"
)

var ErrSaveInProgress = errors.New("snapshot: another save is in progress")

// RedisStore keeps the latest snapshot under one key. Saves from several
// processes are serialized with a one-slot lease.
type RedisStore struct {
	rdb      *redis.Client
	key      string
	leaseTTL time.Duration
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "network:snapshot"
	}
	return &RedisStore{rdb: rdb, key: key, leaseTTL: 30 * time.Second}
}

func (r *RedisStore) leaseKey() string { return r.key + ":lease" }

func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}

	ok, err := utils.AcquireSlot(ctx, r.rdb, r.leaseKey(), 1, r.leaseTTL)
	if err != nil {
		return fmt.Errorf("acquire save lease: %w", err)
	}
	if !ok {
		return ErrSaveInProgress
	}
	defer func() { _ = utils.ReleaseSlot(context.WithoutCancel(ctx), r.rdb, r.leaseKey()) }()

	if err := r.rdb.Set(ctx, r.key, buf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	body, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode(bytes.NewReader(body))
}
