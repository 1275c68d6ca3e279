package payment

import (
	"context"

	"github.com/xiebiao/library/internal/domain/query"
)

// Repository 支付仓储接口
type Repository interface {
	Create(ctx context.Context, p *Payment) error

	// FindByID / FindBySessionID 不存在返回ErrPaymentNotFound
	FindByID(ctx context.Context, id uint) (*Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Payment, error)

	// UpdateStatus 条件更新 WHERE status = from，返回是否更新到行
	UpdateStatus(ctx context.Context, id uint, from, to Status) (bool, error)

	List(ctx context.Context, filter query.PaymentFilter, page query.Page) ([]*Payment, int64, error)
	ListByBorrowing(ctx context.Context, borrowingID uint) ([]*Payment, error)
}
