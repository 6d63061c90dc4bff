package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"bankpro/internal/config"
	"bankpro/internal/model"
	"bankpro/pkg/idgen"
)

// maxCardNumberAttempts 卡号冲突时的最大重试次数
const maxCardNumberAttempts = 10

var errCardNumberExhausted = errors.New("无法生成唯一卡号")

type CardService struct {
	ledger    *Ledger
	publisher EventPublisher
	cfg       *config.Config
	generate  func(prefix string) string
	now       func() time.Time
}

func NewCardService(ledger *Ledger, publisher EventPublisher, cfg *config.Config) *CardService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &CardService{
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		generate:  idgen.GenerateCardNumber,
		now:       time.Now,
	}
}

// WithClock 替换时间来源（测试使用）
func (s *CardService) WithClock(now func() time.Time) *CardService {
	s.now = now
	return s
}

// WithGenerator 替换卡号生成器（测试使用）
func (s *CardService) WithGenerator(generate func(prefix string) string) *CardService {
	s.generate = generate
	return s
}

// Issue 为用户申请新卡，卡类型为空时使用配置的默认类型
func (s *CardService) Issue(ctx context.Context, actor model.User, cardType string) (*model.Card, error) {
	cardType = strings.TrimSpace(cardType)
	if cardType == "" {
		cardType = s.cfg.Business.DefaultCardType
	}

	var issued model.Card
	err := s.ledger.Update(ctx, func(st *model.State) error {
		number, err := s.uniqueNumber(st)
		if err != nil {
			return err
		}
		issued = model.Card{
			ID:         st.NextID.Card,
			CardNumber: number,
			CardType:   cardType,
			Blocked:    false,
			OwnerID:    actor.ID,
		}
		st.NextID.Card++
		st.PutCard(issued)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CardService] 申请新卡成功: cardID=%d, type=%s, owner=%d", issued.ID, issued.CardType, issued.OwnerID)
	s.publisher.Publish(model.LedgerEvent{
		Type:       model.EventCardIssued,
		Topic:      s.cfg.Kafka.Topic.Card,
		Key:        issued.CardNumber,
		OccurredAt: s.now().UTC().Truncate(time.Millisecond),
		Payload:    issued,
	})
	return &issued, nil
}

// Block 冻结银行卡
// 对已冻结的卡重复调用不报错，卡保持冻结；只有首次冻结会发出事件
func (s *CardService) Block(ctx context.Context, cardNumber string) (*model.Card, error) {
	var (
		blocked    model.Card
		transition bool
	)
	err := s.ledger.Update(ctx, func(st *model.State) error {
		card, ok := st.Card(cardNumber)
		if !ok {
			return ErrCardNotFound
		}
		transition = !card.Blocked
		card.Blocked = true
		st.PutCard(card)
		blocked = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transition {
		log.Printf("[CardService] 银行卡已冻结: cardID=%d, owner=%d", blocked.ID, blocked.OwnerID)
		s.publisher.Publish(model.LedgerEvent{
			Type:       model.EventCardBlocked,
			Topic:      s.cfg.Kafka.Topic.Card,
			Key:        blocked.CardNumber,
			OccurredAt: s.now().UTC().Truncate(time.Millisecond),
			Payload:    blocked,
		})
	}
	return &blocked, nil
}

func (s *CardService) uniqueNumber(st *model.State) (string, error) {
	for i := 0; i < maxCardNumberAttempts; i++ {
		number := s.generate(s.cfg.Business.CardPrefix)
		if _, exists := st.Card(number); !exists {
			return number, nil
		}
	}
	return "", errCardNumberExhausted
}
