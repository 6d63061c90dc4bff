package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bankpro/internal/model"

	"go.etcd.io/bbolt"
)

const stateBucket = "state"

// BoltStore 基于 bbolt 文件的快照存储
// 快照 JSON 存在 key 下，版本号存在 key+":version" 下
type BoltStore struct {
	db  *bbolt.DB
	key string
}

// OpenBoltStore 打开（必要时创建）bbolt 文件
func OpenBoltStore(path, key string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if key == "" {
		key = DefaultSnapshotKey
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &BoltStore{db: db, key: key}
	if err := store.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BoltStore) Load(ctx context.Context) (*model.State, error) {
	return loadOrSeed(ctx, s, s.read)
}

func (s *BoltStore) read(ctx context.Context) (*model.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var (
		st    *model.State
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		payload := bucket.Get([]byte(s.key))
		if payload == nil {
			return nil
		}
		version, err := readVersion(bucket, s.versionKey())
		if err != nil {
			return err
		}
		var snap model.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return fmt.Errorf("unmarshal snapshot: %w", err)
		}
		st = model.NewState(snap, version)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return st, found, nil
}

func (s *BoltStore) Save(ctx context.Context, st *model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(st.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var next int64
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		current, err := readVersion(bucket, s.versionKey())
		if err != nil {
			return err
		}
		if current != st.Version {
			return ErrVersionConflict
		}
		next = current + 1
		if err := bucket.Put([]byte(s.key), payload); err != nil {
			return err
		}
		return bucket.Put(s.versionKey(), []byte(strconv.FormatInt(next, 10)))
	})
	if err != nil {
		return err
	}
	st.Version = next
	return nil
}

// Close closes the underlying BoltDB database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) ensureBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(stateBucket)); err != nil {
			return fmt.Errorf("create state bucket: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) versionKey() []byte {
	return []byte(s.key + ":version")
}

func readVersion(bucket *bbolt.Bucket, key []byte) (int64, error) {
	raw := bucket.Get(key)
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snapshot version: %w", err)
	}
	return v, nil
}
