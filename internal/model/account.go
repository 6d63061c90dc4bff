package model

// Account 银行账户
// 余额只能由转账修改，任何已提交的转账之后都满足 balance >= 0
type Account struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	AccountNumber string `gorm:"type:varchar(32);uniqueIndex;not null" json:"accountNumber"` // 对外账号，流水通过账号引用账户
	BankName      string `gorm:"type:varchar(64);not null" json:"bankName"`
	Balance       int64  `gorm:"not null;default:0" json:"balance"`
	OwnerID       int64  `gorm:"index;not null" json:"ownerId"`
}

func (Account) TableName() string {
	return "bank_account"
}
