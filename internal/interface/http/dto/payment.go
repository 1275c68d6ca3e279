package dto

// ListPaymentsRequest 支付列表查询
type ListPaymentsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PAID CANCELLED pending paid cancelled" example:"PENDING"`
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// PaymentCallbackResponse 支付回跳结果
type PaymentCallbackResponse struct {
	PaymentID   uint   `json:"payment_id" example:"1"`
	BorrowingID uint   `json:"borrowing_id" example:"1"`
	Status      string `json:"status" example:"PAID"`
	Message     string `json:"message" example:"Payment completed"`
}
