package payment

import (
	"context"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
)

// PaymentDTO 支付记录
type PaymentDTO struct {
	ID          uint   `json:"id"`
	BorrowingID uint   `json:"borrowing_id"`
	// PAYMENT 即租金支付（RENTAL_PAYMENT），FINE 含逾期罚金
	Type        string `json:"type" enums:"PAYMENT,FINE"`
	Status      string `json:"status" enums:"PENDING,PAID,CANCELLED"`
	MoneyToPay  string `json:"money_to_pay"`
	SessionURL  string `json:"session_url"`
	SessionID   string `json:"session_id"`
}

// ToDTO 领域实体 → DTO
func ToDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		BorrowingID: p.BorrowingID,
		Type:        string(p.Type),
		Status:      string(p.Status),
		MoneyToPay:  p.MoneyToPay.StringFixed(2),
		SessionURL:  p.SessionURL,
		SessionID:   p.SessionID,
	}
}

// ToDTOs 批量转换
func ToDTOs(list []*payment.Payment) []PaymentDTO {
	out := make([]PaymentDTO, len(list))
	for i, p := range list {
		out[i] = ToDTO(p)
	}
	return out
}

// ListPaymentsUseCase 支付列表：非管理员只能看到自己借阅产生的支付
type ListPaymentsUseCase struct {
	repo payment.Repository
}

func NewListPaymentsUseCase(repo payment.Repository) *ListPaymentsUseCase {
	return &ListPaymentsUseCase{repo: repo}
}

// ListPaymentsRequest Status为空表示不限
type ListPaymentsRequest struct {
	Principal query.Principal
	Status    string
	Page      query.Page
}

// ListPaymentsResponse 分页结果
type ListPaymentsResponse struct {
	List     []PaymentDTO
	Total    int64
	Page     int
	PageSize int
}

func (uc *ListPaymentsUseCase) Execute(ctx context.Context, req ListPaymentsRequest) (*ListPaymentsResponse, error) {
	if req.Status != "" {
		if _, err := payment.ParseStatus(req.Status); err != nil {
			return nil, err
		}
	}
	filter := query.PaymentFilter{Status: req.Status}.Authorize(req.Principal)
	page := req.Page.Normalize()

	list, total, err := uc.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &ListPaymentsResponse{
		List:     ToDTOs(list),
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// GetPaymentUseCase 支付详情，不可见时按不存在处理
type GetPaymentUseCase struct {
	repo payment.Repository
}

func NewGetPaymentUseCase(repo payment.Repository) *GetPaymentUseCase {
	return &GetPaymentUseCase{repo: repo}
}

func (uc *GetPaymentUseCase) Execute(ctx context.Context, p query.Principal, id uint) (*PaymentDTO, error) {
	found, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found.VisibleTo(p) {
		return nil, payment.ErrPaymentNotFound
	}
	dto := ToDTO(found)
	return &dto, nil
}
