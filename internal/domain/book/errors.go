package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrOutOfStock 没有可借的副本
	ErrOutOfStock = apperrors.New(apperrors.ErrCodeOutOfStock, "图书库存不足，暂无可借副本")

	ErrInvalidTitle     = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空且不超过255个字符")
	ErrInvalidAuthor    = apperrors.New(apperrors.ErrCodeInvalidParams, "作者不能为空且不超过255个字符")
	ErrInvalidCover     = apperrors.New(apperrors.ErrCodeInvalidParams, "封面类型只能是HARD或SOFT")
	ErrInvalidInventory = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
	ErrInvalidDailyFee  = apperrors.New(apperrors.ErrCodeInvalidParams, "日租金不能为负数")
)
