package borrowing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "borrowing"

// CreateBorrowingUseCase 借书
// 扣减库存与创建借阅在同一事务中完成，库存扣减是一条条件UPDATE：
// 100人同时借最后一本，只有一个UPDATE能命中 inventory > 0
type CreateBorrowingUseCase struct {
	txManager  *mysql.TxManager
	ledger     book.Ledger
	books      book.Repository
	borrowings borrowing.Repository
	users      user.Repository
	notifier   notification.Notifier
	clock      Clock
}

// NewCreateBorrowingUseCase 创建借书用例
func NewCreateBorrowingUseCase(
	txManager *mysql.TxManager,
	ledger book.Ledger,
	books book.Repository,
	borrowings borrowing.Repository,
	users user.Repository,
	notifier notification.Notifier,
	clock Clock,
) *CreateBorrowingUseCase {
	return &CreateBorrowingUseCase{
		txManager:  txManager,
		ledger:     ledger,
		books:      books,
		borrowings: borrowings,
		users:      users,
		notifier:   notifier,
		clock:      clock,
	}
}

// CreateBorrowingRequest UserID来自JWT
type CreateBorrowingRequest struct {
	UserID             uint
	BookID             uint
	ExpectedReturnDate time.Time
}

// Execute 执行借书
func (uc *CreateBorrowingUseCase) Execute(ctx context.Context, req CreateBorrowingRequest) (*BorrowingDTO, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateBorrowing",
		attribute.Int64("book_id", int64(req.BookID)),
		attribute.Int64("user_id", int64(req.UserID)),
	)
	b, err := uc.execute(ctx, req)
	tracing.EndSpan(span, err)
	metrics.RecordBorrowing(metrics.OpCreate, resultOf(err))
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, b)
	dto := ToDTO(b)
	return &dto, nil
}

func (uc *CreateBorrowingUseCase) execute(ctx context.Context, req CreateBorrowingRequest) (*borrowing.Borrowing, error) {
	b, err := borrowing.NewBorrowing(req.BookID, req.UserID, uc.clock.today(), req.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		if err := uc.ledger.Reserve(ctx, req.BookID); err != nil {
			return err
		}
		return uc.borrowings.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if bk, err := uc.books.FindByID(ctx, b.BookID); err == nil {
		b.Book = bk
	}
	return b, nil
}

// notify 事务提交后异步通知，失败只记日志
func (uc *CreateBorrowingUseCase) notify(ctx context.Context, b *borrowing.Borrowing) {
	u, err := uc.users.FindByID(ctx, b.UserID)
	if err != nil {
		logger.FromContext(ctx).Warn("查询借阅人失败，跳过通知", zap.Uint("borrowing_id", b.ID), zap.Error(err))
		return
	}
	uc.notifier.Notify(ctx, notification.NewBorrowingMessage(b.BookTitle(), u.Email, b.BorrowDate, b.ExpectedReturnDate))
}

// resultOf 业务错误记为rejected，其余错误记为failure
func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case isExpected(err):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailure
	}
}

// isExpected 4xx类业务错误
func isExpected(err error) bool {
	return apperrors.GetAppError(err).HTTPStatus() < 500
}
