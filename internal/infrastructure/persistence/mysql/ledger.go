package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ledger 库存账本
// 检查与扣减合并为一条条件UPDATE，只锁定目标图书这一行
type ledger struct {
	db *gorm.DB
}

// NewLedger 创建库存账本
func NewLedger(db *gorm.DB) book.Ledger {
	return &ledger{db: db}
}

// Reserve UPDATE books SET inventory = inventory - 1 WHERE id = ? AND inventory > 0
func (l *ledger) Reserve(ctx context.Context, bookID uint) error {
	db := getDB(ctx, l.db)
	result := db.Model(&BookModel{}).
		Where("id = ? AND inventory > 0", bookID).
		Update("inventory", gorm.Expr("inventory - 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减库存失败")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 没有更新到行：图书不存在，或库存为0
	var count int64
	if err := db.Model(&BookModel{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询图书失败")
	}
	if count == 0 {
		return book.ErrBookNotFound
	}
	return book.ErrOutOfStock
}

// Release UPDATE books SET inventory = inventory + 1 WHERE id = ?
// 软删除的图书也要归还库存
func (l *ledger) Release(ctx context.Context, bookID uint) error {
	result := getDB(ctx, l.db).Unscoped().Model(&BookModel{}).
		Where("id = ?", bookID).
		Update("inventory", gorm.Expr("inventory + 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "归还库存失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}
