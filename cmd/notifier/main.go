// notifier 消费RabbitMQ中的管理员通知并转发到Telegram
//
//	library-api ──publish──▶ exchange(topic) ──▶ queue ──▶ notifier ──▶ Telegram Bot
//
// 未配置Telegram时只打印日志，便于本地联调
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	notifyinfra "github.com/xiebiao/library/internal/infrastructure/notification"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("service", "library-notifier"))
	metrics.InitMetrics()

	var sender notification.Sender
	if cfg.Notifier.TelegramToken != "" && cfg.Notifier.TelegramChatID != "" {
		sender = notifyinfra.NewTelegramSender(cfg.Notifier.TelegramToken, cfg.Notifier.TelegramChatID,
			notifyinfra.WithAPIURL(cfg.Notifier.TelegramAPI),
		)
	} else {
		zl.Warn("未配置Telegram，通知只写日志")
		sender = notifyinfra.NewLogSender(zl)
	}

	consumer, err := mq.NewConsumer(cfg.Notifier.AMQPURL, cfg.Notifier.Exchange, "topic",
		cfg.Notifier.Queue, []string{"#"}, zl)
	if err != nil {
		zl.Error("连接RabbitMQ失败", zap.Error(err))
		return
	}
	defer func() { _ = consumer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info("开始消费通知",
		zap.String("exchange", cfg.Notifier.Exchange),
		zap.String("queue", cfg.Notifier.Queue),
	)
	if err := consumer.Consume(ctx, notifyinfra.RelayHandler(sender, zl)); err != nil && ctx.Err() == nil {
		zl.Error("消费中断", zap.Error(err))
	}
	zl.Info("notifier已停止")
}
