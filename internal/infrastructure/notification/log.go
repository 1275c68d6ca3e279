// Package notification 管理员通知的投递通道：日志、RabbitMQ、Telegram
package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/infrastructure/logger"
)

// LogSender 只写日志，开发环境默认
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg notification.Message) error {
	s.logger.Info("admin notification",
		zap.String("event", string(msg.Event)),
		zap.String("request_id", logger.GetRequestID(ctx)),
		zap.String("text", msg.Text),
	)
	return nil
}
