package borrowing

import (
	"context"

	paymentapp "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
)

// ListBorrowingsUseCase 借阅列表
// 过滤条件先经过 Authorize：普通用户传入的user_id会被替换为本人
type ListBorrowingsUseCase struct {
	borrowings borrowing.Repository
	clock      Clock
}

func NewListBorrowingsUseCase(borrowings borrowing.Repository, clock Clock) *ListBorrowingsUseCase {
	return &ListBorrowingsUseCase{borrowings: borrowings, clock: clock}
}

// ListBorrowingsRequest nil表示不限制
type ListBorrowingsRequest struct {
	Principal query.Principal
	IsActive  *bool
	UserID    *uint
	Overdue   bool
	Page      query.Page
}

// ListBorrowingsResponse 分页结果
type ListBorrowingsResponse struct {
	List     []BorrowingDTO
	Total    int64
	Page     int
	PageSize int
}

func (uc *ListBorrowingsUseCase) Execute(ctx context.Context, req ListBorrowingsRequest) (*ListBorrowingsResponse, error) {
	filter := query.BorrowingFilter{
		IsActive: req.IsActive,
		UserID:   req.UserID,
		Overdue:  req.Overdue,
		Today:    uc.clock.today(),
	}.Authorize(req.Principal)
	page := req.Page.Normalize()

	list, total, err := uc.borrowings.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	dtos := make([]BorrowingDTO, len(list))
	for i, b := range list {
		dtos[i] = ToDTO(b)
	}
	return &ListBorrowingsResponse{List: dtos, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// GetBorrowingUseCase 借阅详情（含支付记录），不可见时按不存在处理
type GetBorrowingUseCase struct {
	borrowings borrowing.Repository
	payments   payment.Repository
}

func NewGetBorrowingUseCase(borrowings borrowing.Repository, payments payment.Repository) *GetBorrowingUseCase {
	return &GetBorrowingUseCase{borrowings: borrowings, payments: payments}
}

func (uc *GetBorrowingUseCase) Execute(ctx context.Context, p query.Principal, id uint) (*BorrowingDTO, error) {
	b, err := uc.borrowings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.VisibleTo(p) {
		return nil, borrowing.ErrBorrowingNotFound
	}

	payments, err := uc.payments.ListByBorrowing(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(b)
	dto.Payments = paymentapp.ToDTOs(payments)
	return &dto, nil
}
