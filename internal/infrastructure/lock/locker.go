package lock

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker 账本写操作的互斥边界
// Acquire 成功后必须调用返回的 release
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLocker 进程内互斥锁，单进程部署时使用
// 容量为 1 的信号量，等待期间 ctx 取消会立即返回
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}

// RedisLocker 基于 DistributedLock，每次 Acquire 使用新的持有者标识
type RedisLocker struct {
	client        *redis.Client
	key           string
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

func NewRedisLocker(client *redis.Client, key string, expiration, retryInterval time.Duration, maxRetries int) *RedisLocker {
	return &RedisLocker{
		client:        client,
		key:           key,
		expiration:    expiration,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	dl := NewDistributedLock(l.client, l.key, uuid.NewString(), l.expiration)
	if err := dl.Lock(ctx, l.retryInterval, l.maxRetries); err != nil {
		return nil, err
	}
	return func() {
		// 调用方的 ctx 可能已取消，释放锁使用独立的超时
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := dl.Unlock(ctx); err != nil {
			log.Printf("[RedisLocker] 释放锁失败: key=%s, err=%v", l.key, err)
		}
	}, nil
}
