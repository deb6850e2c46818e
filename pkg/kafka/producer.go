// Package kafka 提供了聊天事件的对外发布能力。
// 事件流是可选的集成点：未启用时所有发布调用都是空操作。
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"neurosync-go/internal/config"
	"neurosync-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// ChatEvent 是消息持久化后发往 Kafka 的事件载荷，供下游分析消费。
type ChatEvent struct {
	UserID         uint      `json:"userId"`
	ConversationID uint      `json:"conversationId"`
	Role           string    `json:"role"`
	ContentLength  int       `json:"contentLength"`
	Timestamp      time.Time `json:"timestamp"`
}

// InitProducer 初始化 Kafka 生产者。cfg.Enabled 为 false 时不做任何事。
func InitProducer(cfg config.KafkaConfig) {
	if !cfg.Enabled {
		return
	}
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Enabled 报告事件发布是否已配置。
func Enabled() bool {
	return producer != nil
}

// ProduceChatEvent 发送一个聊天事件。发布失败只记录日志，绝不影响请求本身。
func ProduceChatEvent(ctx context.Context, event ChatEvent) {
	if producer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("无法序列化聊天事件: %v", err)
		return
	}
	if err := producer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		log.Errorf("发送聊天事件失败: %v", err)
	}
}

// Close 关闭生产者连接。
func Close() {
	if producer != nil {
		_ = producer.Close()
	}
}
