package service

import (
	"bankpro/internal/model"
)

// EventPublisher 账本事件出口，Publish 不得阻塞调用方
type EventPublisher interface {
	Publish(evt model.LedgerEvent)
}

// NopPublisher 未启用消息队列时使用
type NopPublisher struct{}

func (NopPublisher) Publish(model.LedgerEvent) {}
