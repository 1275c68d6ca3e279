package borrowing

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	// ErrBorrowingNotFound 借阅记录不存在，或当前用户无权查看
	ErrBorrowingNotFound = apperrors.New(apperrors.ErrCodeBorrowingNotFound, "借阅记录不存在")

	// ErrInvalidDates 预计归还日期必须晚于借阅日期
	ErrInvalidDates = apperrors.New(apperrors.ErrCodeInvalidDates, "预计归还日期必须晚于借阅日期")

	// ErrAlreadyReturned 重复归还
	ErrAlreadyReturned = apperrors.New(apperrors.ErrCodeAlreadyReturned, "该借阅已归还")

	// ErrInvalidReturnDate 归还日期早于借阅日期
	ErrInvalidReturnDate = apperrors.New(apperrors.ErrCodeInvalidReturnDate, "归还日期不能早于借阅日期")
)
