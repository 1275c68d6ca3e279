package notification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/mq"
)

// NewSender 按配置选择投递通道，返回的cleanup用于关闭MQ连接
func NewSender(cfg *config.Config, logger *zap.Logger) (notification.Sender, func(), error) {
	switch cfg.Notifier.Driver {
	case "", "log":
		return NewLogSender(logger), func() {}, nil
	case "rabbitmq":
		pub, err := mq.NewPublisher(cfg.Notifier.AMQPURL, cfg.Notifier.Exchange, "topic", logger)
		if err != nil {
			return nil, nil, err
		}
		return NewMQSender(pub), func() { _ = pub.Close() }, nil
	case "telegram":
		return NewTelegramSender(cfg.Notifier.TelegramToken, cfg.Notifier.TelegramChatID,
			WithAPIURL(cfg.Notifier.TelegramAPI),
		), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("不支持的通知驱动: %s", cfg.Notifier.Driver)
	}
}
