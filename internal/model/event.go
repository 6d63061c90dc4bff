package model

import (
	"time"
)

const (
	EventTransferCompleted = "transfer.completed"
	EventCardIssued        = "card.issued"
	EventCardBlocked       = "card.blocked"
)

// LedgerEvent 账本变更通知，在快照保存成功之后发出
// Payload 序列化为 JSON 作为消息体，Key 作为消息键（流水号或卡号）
type LedgerEvent struct {
	Type       string    `json:"type"`
	Topic      string    `json:"-"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}
