package model

import (
	"time"
)

// ============================================================================
// 交易状态与转账类型常量
// ============================================================================

const (
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusFailed  = "FAILED" // 预留：失败的转账不会落库
)

const (
	TransferTypeSameBank  = "SAME"
	TransferTypeOtherBank = "OTHER"
)

const (
	DescriptionSameBank  = "Same-bank transfer"
	DescriptionOtherBank = "Different-bank transfer"
)

// DefaultDescription 根据调用方给出的转账类型返回默认备注
// 类型由调用方决定，不根据银行名称推断
func DefaultDescription(transferType string) string {
	if transferType == TransferTypeSameBank {
		return DescriptionSameBank
	}
	return DescriptionOtherBank
}

// ============================================================================
// 交易流水实体
// ============================================================================

// Transaction 转账流水
//
// 【重要】流水设计原则：
// 1. 只追加，不修改，不删除
// 2. 通过账号（而不是账户ID）引用两端账户
// 3. 只有成功的转账才会记录
type Transaction struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FromAccount string    `gorm:"type:varchar(32);index;not null" json:"fromAccount"`
	ToAccount   string    `gorm:"type:varchar(32);index;not null" json:"toAccount"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Timestamp   time.Time `gorm:"column:tx_time;precision:6;index;not null" json:"timestamp"`
	Description string    `gorm:"type:varchar(256)" json:"description"`
	Status      string    `gorm:"type:varchar(20);not null" json:"status"`
}

func (Transaction) TableName() string {
	return "bank_transaction"
}

// Involves 流水是否涉及指定账号（转出或转入）
func (t Transaction) Involves(accountNumber string) bool {
	return t.FromAccount == accountNumber || t.ToAccount == accountNumber
}
