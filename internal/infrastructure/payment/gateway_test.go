package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func checkoutRequest() payment.CheckoutRequest {
	return payment.CheckoutRequest{
		Amount:      decimal.RequireFromString("2.10"),
		Description: "Borrowing of Dune",
		SuccessURL:  "http://localhost:8080/api/v1/payments/" + payment.SessionPlaceholder + "/success",
		CancelURL:   "http://localhost:8080/api/v1/payments/" + payment.SessionPlaceholder + "/cancel",
	}
}

func TestFakeGateway(t *testing.T) {
	gw := NewFakeGateway()
	ctx := context.Background()

	s, err := gw.OpenCheckoutSession(ctx, checkoutRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "cs_fake_"))
	assert.Equal(t, "http://localhost:8080/api/v1/payments/"+s.ID+"/success", s.URL)
	assert.Equal(t, 1, gw.Opened())

	req, ok := gw.Request(s.ID)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("2.10").Equal(req.Amount))

	require.NoError(t, gw.ExpireSession(ctx, s.ID))
	assert.True(t, gw.Expired(s.ID))

	gw.FailOpen = ErrFakeUnavailable
	_, err = gw.OpenCheckoutSession(ctx, checkoutRequest())
	assert.ErrorIs(t, err, ErrFakeUnavailable)
	assert.Equal(t, 1, gw.Opened())
}

type stubGateway struct {
	calls int
	err   error
	delay time.Duration
}

func (s *stubGateway) OpenCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &payment.CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1"}, nil
}

func (s *stubGateway) ExpireSession(ctx context.Context, sessionID string) error {
	s.calls++
	return s.err
}

func TestWithBreaker_MapsErrors(t *testing.T) {
	stub := &stubGateway{err: errors.New("connection refused")}
	gw := WithBreaker(stub, BreakerConfig{Failures: 10}, zaptest.NewLogger(t))

	_, err := gw.OpenCheckoutSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodePaymentGateway, appErr.Code)
	assert.Equal(t, 502, appErr.HTTPStatus())
	assert.Contains(t, err.Error(), "connection refused")

	stub.err = nil
	s, err := gw.OpenCheckoutSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
}

func TestWithBreaker_LogsFailureRate(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	stub := &stubGateway{}
	gw := WithBreaker(stub, BreakerConfig{Failures: 10}, zap.New(core))

	_, err := gw.OpenCheckoutSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
	stub.err = errors.New("connection reset")
	_, err = gw.OpenCheckoutSession(context.Background(), checkoutRequest())
	require.Error(t, err)

	logs := recorded.FilterMessage("支付网关调用失败").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "open_session", logs[0].ContextMap()["operation"])
	assert.InDelta(t, 0.5, logs[0].ContextMap()["failure_rate"], 1e-9)
}

func TestWithBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGateway{err: errors.New("503")}
	gw := WithBreaker(stub, BreakerConfig{Failures: 2, Open: time.Minute}, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		_, err := gw.OpenCheckoutSession(context.Background(), checkoutRequest())
		require.Error(t, err)
	}
	assert.Equal(t, 2, stub.calls)

	// 熔断后不再调用下游
	err := gw.ExpireSession(context.Background(), "cs_1")
	require.Error(t, err)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, apperrors.ErrCodePaymentGateway, apperrors.GetAppError(err).Code)
}

func TestWithBreaker_Timeout(t *testing.T) {
	stub := &stubGateway{delay: time.Second}
	gw := WithBreaker(stub, BreakerConfig{Timeout: 20 * time.Millisecond}, zaptest.NewLogger(t))

	_, err := gw.OpenCheckoutSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGateway(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := &config.Config{Payment: config.PaymentConfig{Provider: "fake"}}
	gw, err := NewGateway(cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, gw)

	cfg.Payment = config.PaymentConfig{Provider: "stripe", StripeSecretKey: "sk_test_x", Currency: "usd"}
	gw, err = NewGateway(cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, gw)

	cfg.Payment.Provider = "paypal"
	_, err = NewGateway(cfg, logger)
	assert.Error(t, err)
}
