package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"bankpro/internal/model"
)

var cardNumberPattern = regexp.MustCompile(`^4\d{15}$`)

func TestIssueCard(t *testing.T) {
	f := newFixture(t)
	svc := NewCardService(f.ledger, f.publisher, f.cfg)
	ctx := context.Background()

	card, err := svc.Issue(ctx, f.user(t, 2), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !cardNumberPattern.MatchString(card.CardNumber) {
		t.Fatalf("unexpected card number %q", card.CardNumber)
	}
	if card.ID != 3 || card.CardType != model.CardTypeVisa || card.Blocked || card.OwnerID != 2 {
		t.Fatalf("unexpected card: %+v", card)
	}

	st := f.state(t)
	if st.NextID.Card != 4 {
		t.Fatalf("expected next card id 4, got %d", st.NextID.Card)
	}
	if got := st.CardsOwnedBy(2); len(got) != 2 || got[1] != *card {
		t.Fatalf("expected issued card persisted for owner, got %+v", got)
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0].Type != model.EventCardIssued || events[0].Key != card.CardNumber {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestIssueCardWithType(t *testing.T) {
	f := newFixture(t)
	svc := NewCardService(f.ledger, nil, f.cfg)

	card, err := svc.Issue(context.Background(), f.user(t, 1), model.CardTypeMasterCard)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if card.CardType != model.CardTypeMasterCard {
		t.Fatalf("expected MasterCard, got %q", card.CardType)
	}
}

func TestIssueCardRetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	numbers := []string{"4123456789012345", "4123456789012345", "4000000000000007"}
	calls := 0
	svc := NewCardService(f.ledger, nil, f.cfg).WithGenerator(func(prefix string) string {
		n := numbers[calls]
		calls++
		return n
	})

	card, err := svc.Issue(context.Background(), f.user(t, 1), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if card.CardNumber != "4000000000000007" || calls != 3 {
		t.Fatalf("expected third candidate after 3 calls, got %q after %d", card.CardNumber, calls)
	}
}

func TestIssueCardGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	svc := NewCardService(f.ledger, f.publisher, f.cfg).WithGenerator(func(string) string {
		return "4123456789012345"
	})

	if _, err := svc.Issue(context.Background(), f.user(t, 1), ""); !errors.Is(err, errCardNumberExhausted) {
		t.Fatalf("expected errCardNumberExhausted, got %v", err)
	}
	if st := f.state(t); st.NextID.Card != 3 || len(st.Snapshot().Cards) != 2 {
		t.Fatalf("expected no card issued, got %+v", st.Snapshot().Cards)
	}
	if len(f.publisher.Events()) != 0 {
		t.Fatal("expected no events")
	}
}

func TestBlockCard(t *testing.T) {
	f := newFixture(t)
	svc := NewCardService(f.ledger, f.publisher, f.cfg)
	ctx := context.Background()

	card, err := svc.Block(ctx, "5123456789012346")
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !card.Blocked || card.ID != 2 {
		t.Fatalf("unexpected card: %+v", card)
	}

	// 重复冻结不报错，卡保持冻结
	card, err = svc.Block(ctx, "5123456789012346")
	if err != nil {
		t.Fatalf("second block: %v", err)
	}
	if !card.Blocked {
		t.Fatal("expected card to remain blocked")
	}

	stored, ok := f.state(t).Card("5123456789012346")
	if !ok || !stored.Blocked {
		t.Fatalf("expected persisted blocked card, got %+v", stored)
	}
	other, _ := f.state(t).Card("4123456789012345")
	if other.Blocked {
		t.Fatal("expected other card untouched")
	}

	events := f.publisher.Events()
	if len(events) != 1 || events[0].Type != model.EventCardBlocked {
		t.Fatalf("expected a single blocked event, got %+v", events)
	}
}

func TestBlockUnknownCard(t *testing.T) {
	f := newFixture(t)
	svc := NewCardService(f.ledger, f.publisher, f.cfg)

	card, err := svc.Block(context.Background(), "4000000000000000")
	if !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	if card != nil {
		t.Fatalf("expected nil card, got %+v", card)
	}
}

func TestCardEventsUseServiceClock(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	svc := NewCardService(f.ledger, f.publisher, f.cfg).WithClock(func() time.Time { return at })
	ctx := context.Background()

	card, err := svc.Issue(ctx, f.user(t, 1), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Block(ctx, card.CardNumber); err != nil {
		t.Fatalf("block: %v", err)
	}

	events := f.publisher.Events()
	if len(events) != 2 {
		t.Fatalf("expected issued and blocked events, got %+v", events)
	}
	for _, evt := range events {
		if !evt.OccurredAt.Equal(at) {
			t.Fatalf("%s: expected occurred at %v, got %v", evt.Type, at, evt.OccurredAt)
		}
	}
}
