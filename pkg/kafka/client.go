// Package kafka 将会话生命周期事件发布到 Kafka。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// 会话事件类型。
const (
	EventRestored    = "restored"
	EventLoggedIn    = "logged_in"
	EventLoginFailed = "login_failed"
	EventLoggedOut   = "logged_out"
	EventExpired     = "expired"
)

// SessionEvent 描述一次会话状态迁移。事件中不包含令牌和完整账号。
type SessionEvent struct {
	Type            string    `json:"type"`
	Username        string    `json:"username"`
	MaskedAccountID string    `json:"maskedAccountId,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// Publisher 定义了会话事件的发布接口。
type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher 返回一个丢弃所有事件的 Publisher。
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, SessionEvent) error { return nil }
func (nopPublisher) Close() error                                { return nil }

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher 根据配置创建 Publisher；未启用时返回 no-op 实现。
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled || cfg.Brokers == "" {
		return NewNopPublisher()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		// 事件只是旁路审计，不能拖慢登录/登出
		Async: true,
	}
	log.Infof("Kafka 会话事件发布器初始化成功, topic=%s", cfg.Topic)
	return &kafkaPublisher{writer: w}
}

// Publish 以用户名为 key 发送事件，保证同一用户的事件有序。
func (p *kafkaPublisher) Publish(ctx context.Context, event SessionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Username),
		Value: b,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
