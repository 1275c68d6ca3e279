package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/query"
)

// Repository 图书仓储接口(依赖倒置原则)
// 由domain层定义接口，infrastructure层实现
type Repository interface {
	Create(ctx context.Context, book *Book) error

	// FindByID 不存在时返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	Update(ctx context.Context, book *Book) error

	// Delete 软删除
	Delete(ctx context.Context, id uint) error

	// List 按过滤条件分页查询，返回当前页和总数
	List(ctx context.Context, filter query.BookFilter, page query.Page) ([]*Book, int64, error)
}

// Ledger 库存账本：可借副本数的原子增减
// 两个方法都会加入ctx中携带的事务
type Ledger interface {
	// Reserve 库存>0时原子减1；库存为0返回ErrOutOfStock，图书不存在返回ErrBookNotFound
	// 检查与扣减在同一条语句中完成，并发借阅同一本书不会超借
	Reserve(ctx context.Context, bookID uint) error

	// Release 库存加1（只对之前Reserve过的图书调用）
	Release(ctx context.Context, bookID uint) error
}
