package database

// LedgerMetaID ledger_meta 表只有一行
const LedgerMetaID = 1

// LedgerMeta 快照中非列表部分：ID 计数器、会话、快照版本号
// Version 作为乐观锁，每次保存加一
type LedgerMeta struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false"`
	NextUserID    int64  `gorm:"not null"`
	NextAccountID int64  `gorm:"not null"`
	NextCardID    int64  `gorm:"not null"`
	NextTxID      int64  `gorm:"not null"`
	SessionUserID *int64 `gorm:"column:session_user_id"`
	Version       int64  `gorm:"not null;default:0"`
}

func (LedgerMeta) TableName() string {
	return "ledger_meta"
}
