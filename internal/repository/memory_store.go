package repository

import (
	"context"
	"sync"

	"bankpro/internal/model"
)

// MemoryStore 进程内快照存储，进程退出即丢失
type MemoryStore struct {
	mu      sync.Mutex
	snap    *model.Snapshot
	version int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*model.State, error) {
	return loadOrSeed(ctx, s, s.read)
}

func (s *MemoryStore) read(ctx context.Context) (*model.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, false, nil
	}
	return model.NewState(*s.snap, s.version), true, nil
}

func (s *MemoryStore) Save(ctx context.Context, st *model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Version != s.version {
		return ErrVersionConflict
	}
	snap := st.Snapshot()
	s.snap = &snap
	s.version++
	st.Version = s.version
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
