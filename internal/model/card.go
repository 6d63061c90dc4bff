package model

const (
	CardTypeVisa       = "VISA"
	CardTypeMasterCard = "MasterCard"
)

// Card 银行卡
// Blocked 只会从 false 变为 true，卡片不会被删除
type Card struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CardNumber string `gorm:"type:varchar(32);uniqueIndex;not null" json:"cardNumber"`
	CardType   string `gorm:"type:varchar(20);not null" json:"cardType"`
	Blocked    bool   `gorm:"not null;default:false" json:"blocked"`
	OwnerID    int64  `gorm:"index;not null" json:"ownerId"`
}

func (Card) TableName() string {
	return "bank_card"
}
