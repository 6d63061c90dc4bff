package service

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"bankpro/internal/config"
	"bankpro/internal/model"
)

type TransferService struct {
	ledger    *Ledger
	publisher EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewTransferService(ledger *Ledger, publisher EventPublisher, cfg *config.Config) *TransferService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &TransferService{
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock 替换时间来源（测试使用）
func (s *TransferService) WithClock(now func() time.Time) *TransferService {
	s.now = now
	return s
}

type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      int64
	Type        string // SAME / OTHER，只用于选择默认备注
	Description string
}

// Transfer 转账
//
// 【校验顺序】第一个失败的校验决定返回的错误，失败时不产生任何修改：
//  1. 两个账号非空且金额大于 0           -> ErrInvalidInput
//  2. 转出账户存在                       -> ErrSourceNotFound
//  3. 收款账户存在                       -> ErrDestinationNotFound
//  4. （可选）转出账户属于当前用户        -> ErrSourceNotOwned
//  5. 转出账户余额不小于金额              -> ErrInsufficientFunds
//
// 默认不校验转出账户归属，由调用方只提供本人账户供选择；
// 开启 business.enforce_source_ownership 后增加第 4 步。
// 允许转给自己：余额不变，但会记录一条流水。
//
// 【注意】转账不是幂等的，调用方确认上次结果之前不要重试。
func (s *TransferService) Transfer(ctx context.Context, actor model.User, req TransferRequest) (*model.Transaction, error) {
	from := strings.TrimSpace(req.FromAccount)
	to := strings.TrimSpace(req.ToAccount)
	if from == "" || to == "" || req.Amount <= 0 {
		return nil, ErrInvalidInput
	}

	var committed model.Transaction
	err := s.ledger.Update(ctx, func(st *model.State) error {
		src, ok := st.Account(from)
		if !ok {
			return ErrSourceNotFound
		}
		if _, ok := st.Account(to); !ok {
			return ErrDestinationNotFound
		}
		if s.cfg.Business.EnforceSourceOwnership && src.OwnerID != actor.ID {
			return ErrSourceNotOwned
		}
		if src.Balance < req.Amount {
			return ErrInsufficientFunds
		}

		// 先扣款再入账；转给自己时入账读到的是扣款后的记录
		src.Balance -= req.Amount
		st.PutAccount(src)
		dst, _ := st.Account(to)
		dst.Balance += req.Amount
		st.PutAccount(dst)

		description := strings.TrimSpace(req.Description)
		if description == "" {
			description = model.DefaultDescription(req.Type)
		}

		committed = model.Transaction{
			ID:          st.NextID.Tx,
			FromAccount: from,
			ToAccount:   to,
			Amount:      req.Amount,
			Timestamp:   s.now().UTC().Truncate(time.Millisecond),
			Description: description,
			Status:      model.TransactionStatusSuccess,
		}
		st.NextID.Tx++
		st.AppendTransaction(committed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[TransferService] 转账成功: txID=%d, from=%s, to=%s, amount=%d, actor=%d",
		committed.ID, committed.FromAccount, committed.ToAccount, committed.Amount, actor.ID)

	s.publisher.Publish(model.LedgerEvent{
		Type:       model.EventTransferCompleted,
		Topic:      s.cfg.Kafka.Topic.Transfer,
		Key:        strconv.FormatInt(committed.ID, 10),
		OccurredAt: committed.Timestamp,
		Payload:    committed,
	})

	return &committed, nil
}
