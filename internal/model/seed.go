package model

// DefaultSnapshot 首次加载时写入的演示数据
// 两个用户、三个账户、两张卡，流水为空，计数器越过已占用的 ID，未登录
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Users: []User{
			{ID: 1, Username: "sharmila", Password: "password123", FullName: "Sharmila R"},
			{ID: 2, Username: "john", Password: "johnpwd", FullName: "John Doe"},
		},
		Accounts: []Account{
			{ID: 1, AccountNumber: "SBIN0001001", BankName: "SameBank", Balance: 50000, OwnerID: 1},
			{ID: 2, AccountNumber: "SBIN0001002", BankName: "SameBank", Balance: 15000, OwnerID: 1},
			{ID: 3, AccountNumber: "HDFC0002001", BankName: "OtherBank", Balance: 20000, OwnerID: 2},
		},
		Cards: []Card{
			{ID: 1, CardNumber: "4123456789012345", CardType: CardTypeVisa, Blocked: false, OwnerID: 1},
			{ID: 2, CardNumber: "5123456789012346", CardType: CardTypeMasterCard, Blocked: false, OwnerID: 2},
		},
		Transactions: []Transaction{},
		NextID:       NextID{User: 3, Account: 4, Card: 3, Tx: 1},
		Session:      Session{},
	}
}
