package borrowing

import (
	"time"

	paymentapp "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/fee"
)

// DateLayout 接口中的日期格式
const DateLayout = "2006-01-02"

// Clock 当前时间，测试中注入固定日期
type Clock func() time.Time

// SystemClock 系统时钟
func SystemClock() Clock {
	return time.Now
}

func (c Clock) today() time.Time {
	return fee.DateOf(c())
}

// BorrowingDTO 借阅记录
type BorrowingDTO struct {
	ID                 uint                    `json:"id"`
	BookID             uint                    `json:"book_id"`
	BookTitle          string                  `json:"book_title,omitempty"`
	UserID             uint                    `json:"user_id"`
	BorrowDate         string                  `json:"borrow_date"`
	ExpectedReturnDate string                  `json:"expected_return_date"`
	ActualReturnDate   *string                 `json:"actual_return_date"`
	Status             string                  `json:"status"`
	Payments           []paymentapp.PaymentDTO `json:"payments,omitempty"`
}

// ToDTO 领域实体 → DTO
func ToDTO(b *borrowing.Borrowing) BorrowingDTO {
	dto := BorrowingDTO{
		ID:                 b.ID,
		BookID:             b.BookID,
		BookTitle:          b.BookTitle(),
		UserID:             b.UserID,
		BorrowDate:         b.BorrowDate.Format(DateLayout),
		ExpectedReturnDate: b.ExpectedReturnDate.Format(DateLayout),
		Status:             string(b.Status()),
	}
	if b.ActualReturnDate != nil {
		s := b.ActualReturnDate.Format(DateLayout)
		dto.ActualReturnDate = &s
	}
	return dto
}

// ReceiptDTO 归还回执：费用明细与支付链接
type ReceiptDTO struct {
	BorrowingID      uint   `json:"borrowing_id"`
	ActualReturnDate string `json:"actual_return_date"`
	RentalCost       string `json:"rental_cost"`
	Fine             string `json:"fine"`
	Total            string `json:"total"`
	PaymentID        uint   `json:"payment_id"`
	PaymentType      string `json:"payment_type" enums:"PAYMENT,FINE"`
	SessionURL       string `json:"session_url"`
	SessionID        string `json:"session_id"`
}
