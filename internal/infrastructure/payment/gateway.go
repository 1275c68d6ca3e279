// Package payment 支付网关适配器：Stripe Checkout 与本地假网关
package payment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewGateway 按配置创建网关，并加上超时与熔断
func NewGateway(cfg *config.Config, logger *zap.Logger) (payment.Gateway, error) {
	var gw payment.Gateway
	switch cfg.Payment.Provider {
	case "", "fake":
		gw = NewFakeGateway()
	case "stripe":
		gw = NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.Currency)
	default:
		return nil, fmt.Errorf("未知的支付网关: %s", cfg.Payment.Provider)
	}

	logger.Info("支付网关已初始化", zap.String("provider", cfg.Payment.Provider))
	return WithBreaker(gw, BreakerConfig{
		Timeout:  cfg.Payment.Timeout,
		Failures: cfg.Payment.BreakerFailures,
		Open:     cfg.Payment.BreakerTimeout,
		Interval: cfg.Payment.BreakerInterval,
	}, logger), nil
}
