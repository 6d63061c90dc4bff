package service

import (
	"context"
	"log"

	"bankpro/internal/model"
)

// SessionService 登录认证与当前会话
type SessionService struct {
	ledger *Ledger
}

func NewSessionService(ledger *Ledger) *SessionService {
	return &SessionService{ledger: ledger}
}

// Authenticate 用户名和密码精确匹配（区分大小写，明文比对）
func (s *SessionService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	st, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := st.UserByCredentials(username, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Login 将会话切换为该用户并持久化
func (s *SessionService) Login(ctx context.Context, user model.User) error {
	return s.ledger.Update(ctx, func(st *model.State) error {
		id := user.ID
		st.Session = model.Session{UserID: &id}
		return nil
	})
}

// Logout 清空会话并持久化
func (s *SessionService) Logout(ctx context.Context) error {
	return s.ledger.Update(ctx, func(st *model.State) error {
		st.Session = model.Session{}
		return nil
	})
}

// SignIn 认证成功后登录；认证失败时会话保持不变
func (s *SessionService) SignIn(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.Login(ctx, *user); err != nil {
		return nil, err
	}
	log.Printf("[SessionService] 用户登录: userID=%d, username=%s", user.ID, user.Username)
	return user, nil
}

// CurrentUser 未登录或会话中的用户已不存在时返回 nil
func (s *SessionService) CurrentUser(ctx context.Context) (*model.User, error) {
	st, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, err
	}
	return currentUser(st), nil
}

// Accounts 用户名下的账户，按 ID 升序
func (s *SessionService) Accounts(ctx context.Context, user model.User) ([]model.Account, error) {
	st, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, err
	}
	return st.AccountsOwnedBy(user.ID), nil
}

// Cards 用户名下的银行卡，按 ID 升序
func (s *SessionService) Cards(ctx context.Context, user model.User) ([]model.Card, error) {
	st, err := s.ledger.Read(ctx)
	if err != nil {
		return nil, err
	}
	return st.CardsOwnedBy(user.ID), nil
}

func currentUser(st *model.State) *model.User {
	if !st.Session.LoggedIn() {
		return nil
	}
	user, ok := st.UserByID(*st.Session.UserID)
	if !ok {
		return nil
	}
	return &user
}
