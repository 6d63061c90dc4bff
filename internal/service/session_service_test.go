package service

import (
	"context"
	"errors"
	"testing"

	"bankpro/internal/model"
)

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.ledger)
	ctx := context.Background()

	user, err := svc.SignIn(ctx, "sharmila", "password123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.ID != 1 || user.FullName != "Sharmila R" {
		t.Fatalf("unexpected user: %+v", user)
	}

	st := f.state(t)
	if !st.Session.LoggedIn() || *st.Session.UserID != 1 {
		t.Fatalf("expected persisted session for user 1, got %+v", st.Session)
	}

	current, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current == nil || current.Username != "sharmila" {
		t.Fatalf("unexpected current user: %+v", current)
	}
}

func TestSignInWrongPasswordLeavesSessionUnset(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.ledger)
	ctx := context.Background()

	for _, creds := range [][2]string{
		{"sharmila", "wrong"},
		{"Sharmila", "password123"},
		{"nobody", "password123"},
		{"", ""},
	} {
		if _, err := svc.SignIn(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%v: expected ErrInvalidCredentials, got %v", creds, err)
		}
	}

	if f.state(t).Session.LoggedIn() {
		t.Fatal("expected session to stay empty")
	}
	current, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current != nil {
		t.Fatalf("expected no current user, got %+v", current)
	}
}

func TestFailedSignInKeepsPreviousSession(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.ledger)
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, "john", "johnpwd"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := svc.SignIn(ctx, "sharmila", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	current, _ := svc.CurrentUser(ctx)
	if current == nil || current.ID != 2 {
		t.Fatalf("expected john to stay signed in, got %+v", current)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.ledger)
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, "john", "johnpwd"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.state(t).Session.LoggedIn() {
		t.Fatal("expected session cleared")
	}

	// 未登录时登出同样成功
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestCurrentUserForUnknownSessionUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.ledger.Update(ctx, func(st *model.State) error {
		missing := int64(99)
		st.Session = model.Session{UserID: &missing}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := NewSessionService(f.ledger).CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current != nil {
		t.Fatalf("expected nil for dangling session, got %+v", current)
	}
}

func TestOwnedAccountsAndCards(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.ledger)
	ctx := context.Background()

	accounts, err := svc.Accounts(ctx, f.user(t, 1))
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[0].AccountNumber != "SBIN0001001" || accounts[1].AccountNumber != "SBIN0001002" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}

	cards, err := svc.Cards(ctx, f.user(t, 2))
	if err != nil {
		t.Fatalf("cards: %v", err)
	}
	if len(cards) != 1 || cards[0].CardNumber != "5123456789012346" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
}
