package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Lock     LockConfig     `mapstructure:"lock"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

const (
	StoreDriverMemory = "memory"
	StoreDriverBolt   = "bolt"
	StoreDriverSQLite = "sqlite"
	StoreDriverMySQL  = "mysql"
	StoreDriverRedis  = "redis"
)

// StoreConfig 快照存储后端
//   - memory: 进程内存，重启即丢失
//   - bolt:   本地 bbolt 文件，Path 为文件路径
//   - sqlite: 本地 sqlite 文件，Path 为文件路径
//   - mysql:  使用 MySQL 段的连接信息
//   - redis:  使用 Redis 段的连接信息，Key 为快照键
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Key    string `mapstructure:"key"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Transfer string `mapstructure:"transfer"`
	Card     string `mapstructure:"card"`
}

const (
	LockDriverLocal = "local"
	LockDriverRedis = "redis"
)

// LockConfig 账本读-改-写的互斥方式
// 单进程使用 local；多个进程共享同一存储时使用 redis 分布式锁
type LockConfig struct {
	Driver          string `mapstructure:"driver"`
	Key             string `mapstructure:"key"`
	ExpireSeconds   int    `mapstructure:"expire_seconds"`
	RetryIntervalMS int    `mapstructure:"retry_interval_ms"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

type BusinessConfig struct {
	DefaultCardType        string `mapstructure:"default_card_type"`
	CardPrefix             string `mapstructure:"card_prefix"`
	EnforceSourceOwnership bool   `mapstructure:"enforce_source_ownership"`
	MaxRetryCount          int    `mapstructure:"max_retry_count"`
	StatementTimezone      string `mapstructure:"statement_timezone"`
	CurrencyLocale         string `mapstructure:"currency_locale"`
}

// Default 返回全部默认值，配置文件中缺失的项以此为准
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Store: StoreConfig{
			Driver: StoreDriverBolt,
			Path:   "data/bankpro.db",
			Key:    "bankpro_v1",
		},
		MySQL: MySQLConfig{
			Host:         "127.0.0.1",
			Port:         3306,
			User:         "root",
			Database:     "bankpro",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{Host: "127.0.0.1", Port: 6379},
		Kafka: KafkaConfig{
			Brokers: []string{"127.0.0.1:9092"},
			Topic: KafkaTopicConfig{
				Transfer: "bankpro.transfer",
				Card:     "bankpro.card",
			},
		},
		Lock: LockConfig{
			Driver:          LockDriverLocal,
			Key:             "bankpro:lock:state",
			ExpireSeconds:   30,
			RetryIntervalMS: 100,
			MaxRetries:      30,
		},
		Business: BusinessConfig{
			DefaultCardType:   "VISA",
			CardPrefix:        "4",
			MaxRetryCount:     3,
			StatementTimezone: "UTC",
			CurrencyLocale:    "en-IN",
		},
	}
}

// Load 读取配置文件，环境变量 BANKPRO_<SECTION>_<KEY> 优先于文件
// configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在很正常，忽略错误
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix("BANKPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}

// LoadConfig 加载配置文件，失败直接退出
func LoadConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.key", d.Store.Key)

	v.SetDefault("mysql.host", d.MySQL.Host)
	v.SetDefault("mysql.port", d.MySQL.Port)
	v.SetDefault("mysql.user", d.MySQL.User)
	v.SetDefault("mysql.password", d.MySQL.Password)
	v.SetDefault("mysql.database", d.MySQL.Database)
	v.SetDefault("mysql.max_open_conns", d.MySQL.MaxOpenConns)
	v.SetDefault("mysql.max_idle_conns", d.MySQL.MaxIdleConns)

	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic.transfer", d.Kafka.Topic.Transfer)
	v.SetDefault("kafka.topic.card", d.Kafka.Topic.Card)

	v.SetDefault("lock.driver", d.Lock.Driver)
	v.SetDefault("lock.key", d.Lock.Key)
	v.SetDefault("lock.expire_seconds", d.Lock.ExpireSeconds)
	v.SetDefault("lock.retry_interval_ms", d.Lock.RetryIntervalMS)
	v.SetDefault("lock.max_retries", d.Lock.MaxRetries)

	v.SetDefault("business.default_card_type", d.Business.DefaultCardType)
	v.SetDefault("business.card_prefix", d.Business.CardPrefix)
	v.SetDefault("business.enforce_source_ownership", d.Business.EnforceSourceOwnership)
	v.SetDefault("business.max_retry_count", d.Business.MaxRetryCount)
	v.SetDefault("business.statement_timezone", d.Business.StatementTimezone)
	v.SetDefault("business.currency_locale", d.Business.CurrencyLocale)
}
