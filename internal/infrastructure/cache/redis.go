package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"bankpro/internal/config"

	"github.com/go-redis/redis/v8"
)

// InitRedis 初始化 Redis 连接，连接失败直接退出
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	client, err := NewRedis(cfg)
	if err != nil {
		log.Fatalf("连接 Redis 失败: %v", err)
	}
	log.Println("Redis 连接成功")
	return client
}

// NewRedis 创建 Redis 客户端并 Ping 一次
func NewRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
