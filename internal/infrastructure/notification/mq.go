package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/pkg/mq"
)

// Publisher 抽象MQ发布，便于测试
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// MQSender 把通知发布到RabbitMQ，routing key 为事件名
// 由独立的notifier进程消费后转发到Telegram
type MQSender struct {
	publisher Publisher
}

func NewMQSender(publisher Publisher) *MQSender {
	return &MQSender{publisher: publisher}
}

func (s *MQSender) Send(ctx context.Context, msg notification.Message) error {
	if err := s.publisher.Publish(ctx, string(msg.Event), msg); err != nil {
		return fmt.Errorf("发布通知失败: %w", err)
	}
	return nil
}

// RelayHandler 消费MQ中的通知并交给下游Sender（通常是Telegram）
// 消息体无法解析时直接确认丢弃，重试无意义
func RelayHandler(sender notification.Sender, logger *zap.Logger) mq.Handler {
	return func(ctx context.Context, d mq.Delivery) error {
		var msg notification.Message
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			logger.Warn("丢弃无法解析的通知", zap.String("routing_key", d.RoutingKey), zap.Error(err))
			return nil
		}
		if msg.Event == "" {
			msg.Event = notification.Event(d.RoutingKey)
		}
		return sender.Send(ctx, msg)
	}
}
