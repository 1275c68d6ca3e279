package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// CheckoutRequest 开启收银台会话的参数
type CheckoutRequest struct {
	Amount      decimal.Decimal
	Description string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession 支付服务商返回的会话
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway 外部支付服务
// 实现方负责把失败转换为 apperrors.ErrPaymentGateway
type Gateway interface {
	OpenCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// ExpireSession 作废未支付的会话（归还事务失败时的补偿）
	ExpireSession(ctx context.Context, sessionID string) error
}

// SessionPlaceholder 回跳地址中的会话ID占位符，由支付服务商替换为实际会话ID
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"
