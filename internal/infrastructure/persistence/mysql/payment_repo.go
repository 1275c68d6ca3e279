package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// paymentRepository 支付仓储实现(MySQL)
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

// paymentRow 支付记录连同借阅人ID
type paymentRow struct {
	PaymentModel
	OwnerID uint
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := &PaymentModel{
		BorrowingID: p.BorrowingID,
		Type:        string(p.Type),
		Status:      string(p.Status),
		MoneyToPay:  p.MoneyToPay,
		SessionURL:  p.SessionURL,
		SessionID:   p.SessionID,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建支付记录失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	return r.findOne(ctx, "payments.id = ?", id)
}

func (r *paymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*payment.Payment, error) {
	return r.findOne(ctx, "payments.session_id = ?", sessionID)
}

func (r *paymentRepository) findOne(ctx context.Context, cond string, arg any) (*payment.Payment, error) {
	var row paymentRow
	err := withOwner(getDB(ctx, r.db)).Where(cond, arg).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付记录失败")
	}
	return toPaymentEntity(&row), nil
}

// UpdateStatus UPDATE payments SET status = ? WHERE id = ? AND status = ?
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uint, from, to payment.Status) (bool, error) {
	result := getDB(ctx, r.db).Model(&PaymentModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "更新支付状态失败")
	}
	return result.RowsAffected == 1, nil
}

func (r *paymentRepository) List(ctx context.Context, filter query.PaymentFilter, page query.Page) ([]*payment.Payment, int64, error) {
	var (
		rows  []paymentRow
		total int64
	)

	q := paymentFilterScope(filter)(joinBorrowings(getDB(ctx, r.db))).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付总数失败")
	}
	if err := paginate(page)(q).Select(ownerColumns).Order("payments.id DESC").Find(&rows).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询支付列表失败")
	}

	list := make([]*payment.Payment, len(rows))
	for i := range rows {
		list[i] = toPaymentEntity(&rows[i])
	}
	return list, total, nil
}

func (r *paymentRepository) ListByBorrowing(ctx context.Context, borrowingID uint) ([]*payment.Payment, error) {
	var rows []paymentRow
	err := withOwner(getDB(ctx, r.db)).
		Where("payments.borrowing_id = ?", borrowingID).
		Order("payments.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询支付记录失败")
	}
	list := make([]*payment.Payment, len(rows))
	for i := range rows {
		list[i] = toPaymentEntity(&rows[i])
	}
	return list, nil
}

func paymentFilterScope(f query.PaymentFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("payments.status = ?", f.Status)
		}
		if f.UserID != nil {
			db = db.Where("borrowings.user_id = ?", *f.UserID)
		}
		return db
	}
}

const ownerColumns = "payments.*, borrowings.user_id AS owner_id"

func joinBorrowings(db *gorm.DB) *gorm.DB {
	return db.Model(&PaymentModel{}).Joins("JOIN borrowings ON borrowings.id = payments.borrowing_id")
}

// withOwner 关联借阅表取出借阅人ID
func withOwner(db *gorm.DB) *gorm.DB {
	return joinBorrowings(db).Select(ownerColumns)
}

func toPaymentEntity(r *paymentRow) *payment.Payment {
	return &payment.Payment{
		ID:          r.ID,
		BorrowingID: r.BorrowingID,
		Type:        payment.Type(r.Type),
		Status:      payment.Status(r.Status),
		MoneyToPay:  r.MoneyToPay,
		SessionURL:  r.SessionURL,
		SessionID:   r.SessionID,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
