package service

import (
	"context"
	"fmt"

	"bankpro/internal/infrastructure/lock"
	"bankpro/internal/model"
	"bankpro/internal/repository"
)

// Ledger 账本状态句柄，由各个服务共享
//
// 所有写操作都走 Update：加锁 -> 加载快照 -> 修改 -> 保存 -> 解锁。
// fn 返回错误时不保存，快照保持原样。
type Ledger struct {
	store  repository.StateStore
	locker lock.Locker
}

func NewLedger(store repository.StateStore, locker lock.Locker) *Ledger {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Ledger{store: store, locker: locker}
}

// Read 加载当前快照，只读场景使用
func (l *Ledger) Read(ctx context.Context) (*model.State, error) {
	st, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载快照失败: %w", err)
	}
	return st, nil
}

// Update 在锁内执行一次读-改-写
func (l *Ledger) Update(ctx context.Context, fn func(st *model.State) error) error {
	release, err := l.locker.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer release()

	st, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("加载快照失败: %w", err)
	}
	if err := fn(st); err != nil {
		return err
	}
	if err := l.store.Save(ctx, st); err != nil {
		return fmt.Errorf("保存快照失败: %w", err)
	}
	return nil
}
