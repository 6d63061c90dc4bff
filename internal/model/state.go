package model

import (
	"slices"
)

// NextID 各类实体的自增计数器，只增不减，分配过的 ID 永不复用
type NextID struct {
	User    int64 `json:"user"`
	Account int64 `json:"account"`
	Card    int64 `json:"card"`
	Tx      int64 `json:"tx"`
}

// Snapshot 持久化快照，即存储层的完整契约
// 各列表按 ID 升序排列
type Snapshot struct {
	Users        []User        `json:"users"`
	Accounts     []Account     `json:"accounts"`
	Cards        []Card        `json:"cards"`
	Transactions []Transaction `json:"transactions"`
	NextID       NextID        `json:"nextId"`
	Session      Session       `json:"session"`
}

// State 内存中的账本状态
//
// 【设计思考】账户和银行卡按账号/卡号建索引，修改时整条记录替换，
// 调用方拿到的永远是值拷贝，不会出现多处引用同一对象的问题。
//
// Version 为加载时存储层的快照版本号，保存时用于乐观锁校验。
type State struct {
	Users        []User
	Transactions []Transaction
	NextID       NextID
	Session      Session
	Version      int64

	accounts map[string]Account
	cards    map[string]Card
}

// NewState 由快照构建内存状态，快照中的切片会被复制
func NewState(snap Snapshot, version int64) *State {
	st := &State{
		Users:        slices.Clone(snap.Users),
		Transactions: slices.Clone(snap.Transactions),
		NextID:       snap.NextID,
		Session:      cloneSession(snap.Session),
		Version:      version,
		accounts:     make(map[string]Account, len(snap.Accounts)),
		cards:        make(map[string]Card, len(snap.Cards)),
	}
	for _, a := range snap.Accounts {
		st.accounts[a.AccountNumber] = a
	}
	for _, c := range snap.Cards {
		st.cards[c.CardNumber] = c
	}
	return st
}

// Snapshot 导出可持久化的快照（深拷贝）
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Users:        slices.Clone(s.Users),
		Accounts:     make([]Account, 0, len(s.accounts)),
		Cards:        make([]Card, 0, len(s.cards)),
		Transactions: slices.Clone(s.Transactions),
		NextID:       s.NextID,
		Session:      cloneSession(s.Session),
	}
	for _, a := range s.accounts {
		snap.Accounts = append(snap.Accounts, a)
	}
	for _, c := range s.cards {
		snap.Cards = append(snap.Cards, c)
	}
	slices.SortFunc(snap.Accounts, func(a, b Account) int { return compareID(a.ID, b.ID) })
	slices.SortFunc(snap.Cards, func(a, b Card) int { return compareID(a.ID, b.ID) })
	if snap.Users == nil {
		snap.Users = []User{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []Transaction{}
	}
	return snap
}

// ============================================================================
// 用户
// ============================================================================

func (s *State) UserByID(id int64) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// UserByCredentials 用户名和密码都精确匹配（区分大小写）
func (s *State) UserByCredentials(username, password string) (User, bool) {
	for _, u := range s.Users {
		if u.Username == username && u.Password == password {
			return u, true
		}
	}
	return User{}, false
}

// ============================================================================
// 账户
// ============================================================================

func (s *State) Account(accountNumber string) (Account, bool) {
	a, ok := s.accounts[accountNumber]
	return a, ok
}

// PutAccount 以账号为键写入账户记录，已存在则整条替换
func (s *State) PutAccount(a Account) {
	s.accounts[a.AccountNumber] = a
}

// AccountsOwnedBy 返回用户名下账户，按 ID 升序
func (s *State) AccountsOwnedBy(userID int64) []Account {
	out := make([]Account, 0)
	for _, a := range s.accounts {
		if a.OwnerID == userID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Account) int { return compareID(a.ID, b.ID) })
	return out
}

// ============================================================================
// 银行卡
// ============================================================================

func (s *State) Card(cardNumber string) (Card, bool) {
	c, ok := s.cards[cardNumber]
	return c, ok
}

func (s *State) PutCard(c Card) {
	s.cards[c.CardNumber] = c
}

func (s *State) CardsOwnedBy(userID int64) []Card {
	out := make([]Card, 0)
	for _, c := range s.cards {
		if c.OwnerID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Card) int { return compareID(a.ID, b.ID) })
	return out
}

// ============================================================================
// 流水
// ============================================================================

// AppendTransaction 追加一条流水，流水一经追加不再修改
func (s *State) AppendTransaction(tx Transaction) {
	s.Transactions = append(s.Transactions, tx)
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneSession(s Session) Session {
	if s.UserID == nil {
		return Session{}
	}
	id := *s.UserID
	return Session{UserID: &id}
}
