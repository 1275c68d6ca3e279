package borrowing

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/query"
)

// Repository 借阅仓储接口
type Repository interface {
	Create(ctx context.Context, b *Borrowing) error

	// FindByID 预加载图书；不存在返回ErrBorrowingNotFound
	FindByID(ctx context.Context, id uint) (*Borrowing, error)

	// MarkReturned 条件更新：仅当 actual_return_date IS NULL 时写入
	// 没有更新到任何行时返回ErrAlreadyReturned（记录不存在返回ErrBorrowingNotFound）
	MarkReturned(ctx context.Context, id uint, date time.Time) error

	// List 过滤条件须先经过 BorrowingFilter.Authorize
	List(ctx context.Context, filter query.BorrowingFilter, page query.Page) ([]*Borrowing, int64, error)
}
