package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankpro/internal/config"
	"bankpro/internal/handler"
	"bankpro/internal/infrastructure/cache"
	"bankpro/internal/infrastructure/database"
	"bankpro/internal/infrastructure/lock"
	"bankpro/internal/infrastructure/mq"
	"bankpro/internal/job"
	"bankpro/internal/repository"
	"bankpro/internal/service"
	"bankpro/pkg/idgen"

	"github.com/go-redis/redis/v8"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 初始化 ID 生成器（卡号）
	if err := idgen.Init(1); err != nil {
		log.Fatalf("ID 生成器初始化失败: %v", err)
	}

	// Redis 仅在存储或锁使用时初始化
	var redisClient *redis.Client
	if cfg.Store.Driver == config.StoreDriverRedis || cfg.Lock.Driver == config.LockDriverRedis {
		redisClient = cache.InitRedis(&cfg.Redis)
		defer redisClient.Close()
	}

	// 初始化快照存储
	store, err := openStore(cfg, redisClient)
	if err != nil {
		log.Fatalf("快照存储初始化失败: %v", err)
	}
	defer store.Close()

	ledger := service.NewLedger(store, newLocker(cfg, redisClient))

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 首次启动时写入演示数据
	if _, err := ledger.Read(ctx); err != nil {
		log.Fatalf("加载快照失败: %v", err)
	}

	// 账本事件投递
	var publisher service.EventPublisher = service.NopPublisher{}
	dispatcherDone := make(chan struct{})
	stopDispatcher := func() {}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(&cfg.Kafka)
		if err != nil {
			log.Fatalf("Kafka 初始化失败: %v", err)
		}
		defer producer.Close()

		dispatcher := job.NewEventDispatcher(producer, cfg)
		go func() {
			dispatcher.Start(ctx)
			close(dispatcherDone)
		}()
		stopDispatcher = func() {
			dispatcher.Stop()
			<-dispatcherDone
		}
		publisher = dispatcher
	}

	// 设置路由
	router := handler.SetupRouter(handler.NewHandler(ledger, publisher, cfg))

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("服务启动，监听端口: %d，存储: %s，锁: %s", cfg.Server.Port, cfg.Store.Driver, cfg.Lock.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	// 请求处理完后再停止事件投递，剩余事件在退出前发送
	stopDispatcher()

	log.Println("服务已关闭")
}

// openStore 按 store.driver 选择快照存储
func openStore(cfg *config.Config, redisClient *redis.Client) (repository.StateStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreDriverBolt:
		return repository.OpenBoltStore(cfg.Store.Path, cfg.Store.Key)
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return repository.NewGormStore(db), nil
	case config.StoreDriverMySQL:
		return repository.NewGormStore(database.InitMySQL(&cfg.MySQL)), nil
	case config.StoreDriverRedis:
		return repository.NewRedisStore(redisClient, cfg.Store.Key), nil
	}
	return nil, fmt.Errorf("未知的存储类型: %s", cfg.Store.Driver)
}

// newLocker 按 lock.driver 选择互斥方式
func newLocker(cfg *config.Config, redisClient *redis.Client) lock.Locker {
	if cfg.Lock.Driver == config.LockDriverRedis {
		return lock.NewRedisLocker(
			redisClient,
			cfg.Lock.Key,
			time.Duration(cfg.Lock.ExpireSeconds)*time.Second,
			time.Duration(cfg.Lock.RetryIntervalMS)*time.Millisecond,
			cfg.Lock.MaxRetries,
		)
	}
	return lock.NewLocalLocker()
}
