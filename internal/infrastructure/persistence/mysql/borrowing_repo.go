package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/fee"
	"github.com/xiebiao/library/internal/domain/query"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// borrowingRepository 借阅仓储实现(MySQL)
type borrowingRepository struct {
	db *gorm.DB
}

// NewBorrowingRepository 创建借阅仓储
func NewBorrowingRepository(db *gorm.DB) borrowing.Repository {
	return &borrowingRepository{db: db}
}

func (r *borrowingRepository) Create(ctx context.Context, b *borrowing.Borrowing) error {
	model := &BorrowingModel{
		BookID:             b.BookID,
		UserID:             b.UserID,
		BorrowDate:         b.BorrowDate,
		ExpectedReturnDate: b.ExpectedReturnDate,
		ActualReturnDate:   b.ActualReturnDate,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *borrowingRepository) FindByID(ctx context.Context, id uint) (*borrowing.Borrowing, error) {
	var model BorrowingModel
	err := withBook(getDB(ctx, r.db)).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrowing.ErrBorrowingNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toBorrowingEntity(&model), nil
}

// MarkReturned UPDATE borrowings SET actual_return_date = ? WHERE id = ? AND actual_return_date IS NULL
// 并发归还同一条记录时只有一个能更新成功
func (r *borrowingRepository) MarkReturned(ctx context.Context, id uint, date time.Time) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BorrowingModel{}).
		Where("id = ? AND actual_return_date IS NULL", id).
		Update("actual_return_date", fee.DateOf(date))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新归还日期失败")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&BorrowingModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询借阅记录失败")
	}
	if count == 0 {
		return borrowing.ErrBorrowingNotFound
	}
	return borrowing.ErrAlreadyReturned
}

func (r *borrowingRepository) List(ctx context.Context, filter query.BorrowingFilter, page query.Page) ([]*borrowing.Borrowing, int64, error) {
	var (
		models []BorrowingModel
		total  int64
	)

	q := borrowingFilterScope(filter)(getDB(ctx, r.db).Model(&BorrowingModel{})).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅总数失败")
	}
	if err := withBook(paginate(page)(q)).Order("id DESC").Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅列表失败")
	}

	list := make([]*borrowing.Borrowing, len(models))
	for i := range models {
		list[i] = toBorrowingEntity(&models[i])
	}
	return list, total, nil
}

// borrowingFilterScope 条件之间为AND，未设置的条件不参与过滤
func borrowingFilterScope(f query.BorrowingFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.IsActive != nil {
			if *f.IsActive {
				db = db.Where("actual_return_date IS NULL")
			} else {
				db = db.Where("actual_return_date IS NOT NULL")
			}
		}
		if f.Overdue {
			db = db.Where("actual_return_date IS NULL AND expected_return_date < ?", fee.DateOf(f.Today))
		}
		return db
	}
}

// withBook 预加载图书（包含已软删除的图书）
func withBook(db *gorm.DB) *gorm.DB {
	return db.Preload("Book", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

func toBorrowingEntity(m *BorrowingModel) *borrowing.Borrowing {
	b := &borrowing.Borrowing{
		ID:                 m.ID,
		BookID:             m.BookID,
		UserID:             m.UserID,
		BorrowDate:         fee.DateOf(m.BorrowDate),
		ExpectedReturnDate: fee.DateOf(m.ExpectedReturnDate),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.ActualReturnDate != nil {
		d := fee.DateOf(*m.ActualReturnDate)
		b.ActualReturnDate = &d
	}
	if m.Book != nil {
		b.Book = toBookEntity(m.Book)
	}
	return b
}
