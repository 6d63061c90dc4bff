package job

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"bankpro/internal/config"
	"bankpro/internal/model"
)

// Sender 消息发送方，mq.KafkaProducer 实现了该接口
type Sender interface {
	Send(ctx context.Context, topic, key string, value []byte) error
}

const defaultQueueSize = 1024

type pendingEvent struct {
	event      model.LedgerEvent
	payload    []byte
	retryCount int
}

// EventDispatcher 账本事件的异步投递
//
// 业务在快照保存成功后调用 Publish，事件先放入内存队列，
// 由后台任务按批发送；发送失败会留在队列中重试，
// 超过 business.max_retry_count 次后丢弃并记录日志。
// 投递失败不影响已提交的账本状态。
type EventDispatcher struct {
	sender    Sender
	cfg       *config.Config
	stopCh    chan struct{}
	stopOnce  sync.Once
	interval  time.Duration
	batchSize int
	queueSize int

	mu      sync.Mutex
	pending []*pendingEvent
}

func NewEventDispatcher(sender Sender, cfg *config.Config) *EventDispatcher {
	return &EventDispatcher{
		sender:    sender,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		interval:  100 * time.Millisecond,
		batchSize: 100,
		queueSize: defaultQueueSize,
	}
}

// Publish 入队，不阻塞调用方；队列已满时丢弃
func (d *EventDispatcher) Publish(evt model.LedgerEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[EventDispatcher] 事件序列化失败: type=%s, key=%s, err=%v", evt.Type, evt.Key, err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) >= d.queueSize {
		log.Printf("[EventDispatcher] 队列已满，丢弃事件: type=%s, key=%s", evt.Type, evt.Key)
		return
	}
	d.pending = append(d.pending, &pendingEvent{event: evt, payload: payload})
}

// Pending 队列中待发送的事件数
func (d *EventDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *EventDispatcher) Start(ctx context.Context) {
	log.Println("[EventDispatcher] 事件投递任务启动")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[EventDispatcher] 收到停止信号，任务退出")
			return
		case <-d.stopCh:
			d.drain(context.Background())
			log.Println("[EventDispatcher] 任务停止")
			return
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

func (d *EventDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Flush 发送一批待投递事件，返回成功发送的条数
func (d *EventDispatcher) Flush(ctx context.Context) int {
	batch := d.takeBatch()
	if len(batch) == 0 {
		return 0
	}

	sent := 0
	var retry []*pendingEvent
	for _, p := range batch {
		if d.send(ctx, p) {
			sent++
			continue
		}
		if p.retryCount < d.cfg.Business.MaxRetryCount {
			retry = append(retry, p)
		}
	}

	if len(retry) > 0 {
		d.mu.Lock()
		d.pending = append(retry, d.pending...)
		d.mu.Unlock()
	}
	return sent
}

// drain 退出前逐批发送，直到队列为空或一整批都发送失败；
// 剩余事件丢弃并记录日志
func (d *EventDispatcher) drain(ctx context.Context) {
	for d.Pending() > 0 {
		if d.Flush(ctx) == 0 {
			break
		}
	}

	d.mu.Lock()
	remaining := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(remaining) > 0 {
		log.Printf("[EventDispatcher] 停止时仍有 %d 条事件未发送，已丢弃", len(remaining))
		for _, p := range remaining {
			log.Printf("[EventDispatcher] 丢弃事件: type=%s, key=%s, retry=%d", p.event.Type, p.event.Key, p.retryCount)
		}
	}
}

func (d *EventDispatcher) takeBatch() []*pendingEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := min(d.batchSize, len(d.pending))
	batch := d.pending[:n:n]
	d.pending = d.pending[n:]
	return batch
}

func (d *EventDispatcher) send(ctx context.Context, p *pendingEvent) bool {
	err := d.sender.Send(ctx, p.event.Topic, p.event.Key, p.payload)
	if err == nil {
		log.Printf("[EventDispatcher] 事件发送成功: type=%s, topic=%s, key=%s", p.event.Type, p.event.Topic, p.event.Key)
		return true
	}

	p.retryCount++
	log.Printf("[EventDispatcher] 事件发送失败: type=%s, key=%s, retry=%d, err=%v", p.event.Type, p.event.Key, p.retryCount, err)
	if p.retryCount >= d.cfg.Business.MaxRetryCount {
		log.Printf("[EventDispatcher] 超过最大重试次数，丢弃事件: type=%s, key=%s", p.event.Type, p.event.Key)
	}
	return false
}
