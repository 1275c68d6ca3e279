package payment

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "支付记录不存在")

	// ErrInvalidStatus 非法的支付状态或状态转换
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidStatus, "支付状态不允许此操作")

	ErrInvalidAmount  = apperrors.New(apperrors.ErrCodeInvalidParams, "支付金额不能为负数")
	ErrMissingSession = apperrors.New(apperrors.ErrCodeInternal, "缺少支付会话")
)
