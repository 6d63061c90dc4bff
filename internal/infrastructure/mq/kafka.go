package mq

import (
	"context"
	"log"

	"bankpro/internal/config"

	"github.com/IBM/sarama"
)

// KafkaProducer 同步生产者的薄封装
type KafkaProducer struct {
	producer sarama.SyncProducer
}

// NewKafkaProducer 创建 Kafka 生产者
func NewKafkaProducer(cfg *config.KafkaConfig) (*KafkaProducer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll // 等待所有副本确认
	kafkaConfig.Producer.Retry.Max = 3                    // 重试次数
	kafkaConfig.Producer.Return.Successes = true          // 返回成功消息

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, err
	}

	log.Println("Kafka 生产者创建成功")
	return NewKafkaProducerFrom(producer), nil
}

// NewKafkaProducerFrom 使用已有的 SyncProducer（测试中传入 mocks）
func NewKafkaProducerFrom(producer sarama.SyncProducer) *KafkaProducer {
	return &KafkaProducer{producer: producer}
}

// Send 发送消息到 Kafka
func (p *KafkaProducer) Send(ctx context.Context, topic, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	_, _, err := p.producer.SendMessage(msg)
	return err
}

// Close 关闭 Kafka 生产者
func (p *KafkaProducer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
