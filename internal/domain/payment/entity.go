package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/query"
)

// Status 支付状态
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus 解析状态字符串，非法值返回ErrInvalidStatus
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusCancelled:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Type 支付类型
type Type string

const (
	// TypeRental 普通租金支付（RENTAL_PAYMENT），对外取值沿用PAYMENT
	TypeRental Type = "PAYMENT"
	// TypeFine 含逾期罚金的支付
	TypeFine Type = "FINE"
)

// TypeFor 按是否包含罚金确定支付类型
func TypeFor(hasFine bool) Type {
	if hasFine {
		return TypeFine
	}
	return TypeRental
}

// 合法的状态转换：只有PENDING可以流转，PAID/CANCELLED为终态
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

// CanTransitionTo 状态机校验
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal 终态不再改变
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Payment 支付记录
// 每次归还生成一条，金额为租金+罚金合计
type Payment struct {
	ID          uint
	BorrowingID uint
	Type        Type
	Status      Status
	MoneyToPay  decimal.Decimal
	SessionURL  string
	SessionID   string

	// OwnerID 借阅人ID，查询时由借阅记录关联得到
	OwnerID uint

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment 创建待支付记录
func NewPayment(borrowingID uint, typ Type, amount decimal.Decimal, session *CheckoutSession) (*Payment, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if session == nil || session.ID == "" {
		return nil, ErrMissingSession
	}
	now := time.Now()
	return &Payment{
		BorrowingID: borrowingID,
		Type:        typ,
		Status:      StatusPending,
		MoneyToPay:  amount.Round(2),
		SessionURL:  session.URL,
		SessionID:   session.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TransitionTo 内存中的状态转换；终态收到重复通知时返回 applied=false 且不报错
func (p *Payment) TransitionTo(target Status) (applied bool, err error) {
	if p.Status == target || p.Status.IsTerminal() {
		return false, nil
	}
	if !p.Status.CanTransitionTo(target) {
		return false, ErrInvalidStatus
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	return true, nil
}

// VisibleTo 借阅人本人或管理员可见
func (p *Payment) VisibleTo(pr query.Principal) bool {
	return pr.CanSee(p.OwnerID)
}
