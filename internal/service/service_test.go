package service

import (
	"context"
	"sync"
	"testing"

	"bankpro/internal/config"
	"bankpro/internal/infrastructure/lock"
	"bankpro/internal/model"
	"bankpro/internal/repository"
)

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.LedgerEvent
}

func (p *recordingPublisher) Publish(evt model.LedgerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) Events() []model.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.LedgerEvent, len(p.events))
	copy(out, p.events)
	return out
}

type fixture struct {
	store     *repository.MemoryStore
	ledger    *Ledger
	cfg       *config.Config
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	return &fixture{
		store:     store,
		ledger:    NewLedger(store, lock.NewLocalLocker()),
		cfg:       config.Default(),
		publisher: &recordingPublisher{},
	}
}

func (f *fixture) state(t *testing.T) *model.State {
	t.Helper()
	st, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return st
}

func (f *fixture) balance(t *testing.T, accountNumber string) int64 {
	t.Helper()
	a, ok := f.state(t).Account(accountNumber)
	if !ok {
		t.Fatalf("account %s not found", accountNumber)
	}
	return a.Balance
}

func (f *fixture) user(t *testing.T, id int64) model.User {
	t.Helper()
	u, ok := f.state(t).UserByID(id)
	if !ok {
		t.Fatalf("user %d not found", id)
	}
	return u
}
