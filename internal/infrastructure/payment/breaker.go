package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
)

// BreakerConfig 熔断与超时
type BreakerConfig struct {
	Timeout  time.Duration // 单次调用超时
	Failures uint32        // 连续失败多少次后熔断
	Open     time.Duration // 熔断持续时间
	Interval time.Duration // 统计窗口
}

// guardedGateway 为外部网关加上超时、熔断和指标
// 所有失败统一转换为 ErrPaymentGateway（HTTP 502）
type guardedGateway struct {
	next    payment.Gateway
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// WithBreaker 包装网关
func WithBreaker(next payment.Gateway, cfg BreakerConfig, logger *zap.Logger) payment.Gateway {
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	cb := circuitbreaker.NewCircuitBreaker("payment-gateway", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Open,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不算下游故障
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitBreakerState(name, int(to))
		logger.Warn("熔断器状态变化",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	return &guardedGateway{next: next, breaker: cb, timeout: cfg.Timeout, logger: logger}
}

func (g *guardedGateway) OpenCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	var session *payment.CheckoutSession
	err := g.call(ctx, "open_session", func(ctx context.Context) error {
		var err error
		session, err = g.next.OpenCheckoutSession(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (g *guardedGateway) ExpireSession(ctx context.Context, sessionID string) error {
	return g.call(ctx, "expire_session", func(ctx context.Context) error {
		return g.next.ExpireSession(ctx, sessionID)
	})
}

func (g *guardedGateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := g.breaker.ExecuteContext(ctx, fn)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	metrics.ObservePaymentGateway(op, result, time.Since(start).Seconds())
	metrics.RecordCircuitBreakerRequest(g.breaker.Name(), result)

	if err != nil {
		counts := g.breaker.Counts()
		g.logger.Warn("支付网关调用失败",
			zap.String("operation", op),
			zap.Float64("failure_rate", counts.FailureRate()),
			zap.Error(err),
		)
		return apperrors.WithCause(apperrors.ErrPaymentGateway, err)
	}
	return nil
}
