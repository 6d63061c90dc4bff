package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"bankpro/internal/model"

	"github.com/go-redis/redis/v8"
)

// RedisStore 快照 JSON 存在 key 下，版本号存在 key+":version" 下
// Save 使用 WATCH/MULTI，版本号在检查之后被改动时事务失败
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*model.State, error) {
	return loadOrSeed(ctx, s, s.read)
}

func (s *RedisStore) read(ctx context.Context) (*model.State, bool, error) {
	values, err := s.client.MGet(ctx, s.key, s.versionKey()).Result()
	if err != nil {
		return nil, false, fmt.Errorf("读取快照失败: %w", err)
	}
	payload, ok := values[0].(string)
	if !ok {
		return nil, false, nil
	}

	var version int64
	if raw, ok := values[1].(string); ok {
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("解析快照版本失败: %w", err)
		}
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, false, fmt.Errorf("解析快照失败: %w", err)
	}
	return model.NewState(snap, version), true, nil
}

func (s *RedisStore) Save(ctx context.Context, st *model.State) error {
	payload, err := json.Marshal(st.Snapshot())
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	var next int64
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.currentVersion(ctx, tx)
		if err != nil {
			return err
		}
		if current != st.Version {
			return ErrVersionConflict
		}
		next = current + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			pipe.Set(ctx, s.versionKey(), next, 0)
			return nil
		})
		return err
	}, s.versionKey())
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrVersionConflict
		}
		return err
	}

	st.Version = next
	return nil
}

// Close 客户端可能与分布式锁共用，由创建方关闭
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) versionKey() string {
	return s.key + ":version"
}

func (s *RedisStore) currentVersion(ctx context.Context, tx *redis.Tx) (int64, error) {
	v, err := tx.Get(ctx, s.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
