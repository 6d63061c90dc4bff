package repository

import (
	"context"
	"errors"

	"bankpro/internal/model"
)

var (
	ErrVersionConflict = errors.New("快照版本冲突，请重试")
)

// DefaultSnapshotKey 快照在键值类存储中的键
const DefaultSnapshotKey = "bankpro_v1"

// StateStore 快照存储
//
// Load 返回当前快照；存储为空时写入演示数据后返回。
// Save 整体替换上一份快照，不做部分写入或合并。
// st.Version 必须等于存储中的版本号，否则返回 ErrVersionConflict 且不写入；
// 保存成功后 st.Version 更新为新版本号。
type StateStore interface {
	Load(ctx context.Context) (*model.State, error)
	Save(ctx context.Context, st *model.State) error
	Close() error
}

// loadOrSeed 公共的"读取，不存在则写入演示数据"流程
// read 在存储为空时返回 found=false
func loadOrSeed(ctx context.Context, store StateStore, read func(ctx context.Context) (*model.State, bool, error)) (*model.State, error) {
	st, found, err := read(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return st, nil
	}

	seed := model.NewState(model.DefaultSnapshot(), 0)
	if err := store.Save(ctx, seed); err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		// 并发写入了演示数据，以对方写入的为准
		st, found, err = read(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrVersionConflict
		}
		return st, nil
	}
	return seed, nil
}
