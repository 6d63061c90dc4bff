package repository

import (
	"context"
	"errors"
	"fmt"

	"bankpro/internal/infrastructure/database"
	"bankpro/internal/model"

	"gorm.io/gorm"
)

// GormStore 关系型数据库上的快照存储（MySQL / sqlite）
//
// 每类实体一张表，计数器、会话和版本号存在 ledger_meta 的唯一一行中。
// Save 在一个数据库事务内完成：
//  1. 按版本号更新 ledger_meta（乐观锁，影响行数为 0 即冲突）
//  2. 清空实体表并整体写入新快照
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context) (*model.State, error) {
	return loadOrSeed(ctx, s, s.read)
}

func (s *GormStore) read(ctx context.Context) (*model.State, bool, error) {
	db := s.db.WithContext(ctx)

	var meta database.LedgerMeta
	err := db.Where("id = ?", database.LedgerMetaID).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("查询快照元数据失败: %w", err)
	}

	snap := model.Snapshot{
		NextID: model.NextID{
			User:    meta.NextUserID,
			Account: meta.NextAccountID,
			Card:    meta.NextCardID,
			Tx:      meta.NextTxID,
		},
		Session: model.Session{UserID: meta.SessionUserID},
	}
	if err := db.Order("id ASC").Find(&snap.Users).Error; err != nil {
		return nil, false, fmt.Errorf("查询用户失败: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.Accounts).Error; err != nil {
		return nil, false, fmt.Errorf("查询账户失败: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.Cards).Error; err != nil {
		return nil, false, fmt.Errorf("查询银行卡失败: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.Transactions).Error; err != nil {
		return nil, false, fmt.Errorf("查询流水失败: %w", err)
	}
	for i := range snap.Transactions {
		snap.Transactions[i].Timestamp = snap.Transactions[i].Timestamp.UTC()
	}

	return model.NewState(snap, meta.Version), true, nil
}

func (s *GormStore) Save(ctx context.Context, st *model.State) error {
	snap := st.Snapshot()
	next := st.Version + 1

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bumpMeta(tx, snap, st.Version); err != nil {
			return err
		}

		// 整体替换，不做合并
		for _, m := range []any{&model.User{}, &model.Account{}, &model.Card{}, &model.Transaction{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return fmt.Errorf("清空快照表失败: %w", err)
			}
		}
		if err := createAll(tx, snap.Users); err != nil {
			return fmt.Errorf("写入用户失败: %w", err)
		}
		if err := createAll(tx, snap.Accounts); err != nil {
			return fmt.Errorf("写入账户失败: %w", err)
		}
		if err := createAll(tx, snap.Cards); err != nil {
			return fmt.Errorf("写入银行卡失败: %w", err)
		}
		if err := createAll(tx, snap.Transactions); err != nil {
			return fmt.Errorf("写入流水失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	st.Version = next
	return nil
}

func (s *GormStore) bumpMeta(tx *gorm.DB, snap model.Snapshot, version int64) error {
	if version == 0 {
		// 首次写入：元数据行不能已存在
		var count int64
		if err := tx.Model(&database.LedgerMeta{}).Where("id = ?", database.LedgerMetaID).Count(&count).Error; err != nil {
			return fmt.Errorf("查询快照元数据失败: %w", err)
		}
		if count > 0 {
			return ErrVersionConflict
		}
		meta := database.LedgerMeta{
			ID:            database.LedgerMetaID,
			NextUserID:    snap.NextID.User,
			NextAccountID: snap.NextID.Account,
			NextCardID:    snap.NextID.Card,
			NextTxID:      snap.NextID.Tx,
			SessionUserID: snap.Session.UserID,
			Version:       1,
		}
		if err := tx.Create(&meta).Error; err != nil {
			return fmt.Errorf("写入快照元数据失败: %w", err)
		}
		return nil
	}

	result := tx.Model(&database.LedgerMeta{}).
		Where("id = ? AND version = ?", database.LedgerMetaID, version).
		Updates(map[string]interface{}{
			"next_user_id":    snap.NextID.User,
			"next_account_id": snap.NextID.Account,
			"next_card_id":    snap.NextID.Card,
			"next_tx_id":      snap.NextID.Tx,
			"session_user_id": snap.Session.UserID,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("更新快照元数据失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// createAll gorm 不接受空切片的批量插入
func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, 200).Error
}
