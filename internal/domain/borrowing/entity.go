package borrowing

import (
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/fee"
	"github.com/xiebiao/library/internal/domain/query"
)

// Status 借阅状态，由实际归还日期推导，不单独存储
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusReturned Status = "RETURNED"
)

// Borrowing 借阅记录(聚合根)
// 不变量:
// 1. ExpectedReturnDate 严格晚于 BorrowDate
// 2. ActualReturnDate 为 nil 表示未归还；一旦设置不再改变，且不早于 BorrowDate
type Borrowing struct {
	ID                 uint
	BookID             uint
	UserID             uint
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time

	// Book 查询时预加载，创建时可为空
	Book *book.Book

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBorrowing 创建借阅记录(工厂方法)，日期统一截断为自然日
func NewBorrowing(bookID, userID uint, borrowDate, expectedReturnDate time.Time) (*Borrowing, error) {
	borrowDate = fee.DateOf(borrowDate)
	expectedReturnDate = fee.DateOf(expectedReturnDate)
	if !expectedReturnDate.After(borrowDate) {
		return nil, ErrInvalidDates
	}
	now := time.Now()
	return &Borrowing{
		BookID:             bookID,
		UserID:             userID,
		BorrowDate:         borrowDate,
		ExpectedReturnDate: expectedReturnDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Status 当前状态
func (b *Borrowing) Status() Status {
	if b.ActualReturnDate == nil {
		return StatusActive
	}
	return StatusReturned
}

// IsActive 是否未归还
func (b *Borrowing) IsActive() bool {
	return b.Status() == StatusActive
}

// CanReturnOn 校验能否在 date 归还
func (b *Borrowing) CanReturnOn(date time.Time) error {
	if !b.IsActive() {
		return ErrAlreadyReturned
	}
	if fee.DateOf(date).Before(b.BorrowDate) {
		return ErrInvalidReturnDate
	}
	return nil
}

// MarkReturned ACTIVE → RETURNED
func (b *Borrowing) MarkReturned(date time.Time) error {
	if err := b.CanReturnOn(date); err != nil {
		return err
	}
	d := fee.DateOf(date)
	b.ActualReturnDate = &d
	b.UpdatedAt = time.Now()
	return nil
}

// IsOverdue 未归还且预计归还日期早于 today
func (b *Borrowing) IsOverdue(today time.Time) bool {
	return b.IsActive() && b.ExpectedReturnDate.Before(fee.DateOf(today))
}

// VisibleTo 管理员可见全部，普通用户只能看到自己的借阅
func (b *Borrowing) VisibleTo(p query.Principal) bool {
	return p.CanSee(b.UserID)
}

// BookTitle 预加载了图书时返回书名
func (b *Borrowing) BookTitle() string {
	if b.Book == nil {
		return ""
	}
	return b.Book.Title
}
