package borrowing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	paymentapp "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/fee"
	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/saga"
	"github.com/xiebiao/library/pkg/tracing"
)

// ReturnTimeout 归还流程（含支付网关调用）的整体时限
const ReturnTimeout = 30 * time.Second

// ReturnBorrowingUseCase 还书
//
// 流程：
//  1. 校验可见性与状态，按日期计算租金和罚金（写库之前）
//  2. 调用支付服务开启收银台会话（不持有任何行锁）
//  3. 同一事务内：条件UPDATE写入归还日期、创建PENDING支付、库存+1
//
// 第2步失败时什么都不写；第3步失败时作废第2步开启的会话
type ReturnBorrowingUseCase struct {
	txManager  *mysql.TxManager
	ledger     book.Ledger
	books      book.Repository
	borrowings borrowing.Repository
	users      user.Repository
	payments   *paymentapp.Manager
	notifier   notification.Notifier
	clock      Clock
}

// NewReturnBorrowingUseCase 创建还书用例
func NewReturnBorrowingUseCase(
	txManager *mysql.TxManager,
	ledger book.Ledger,
	books book.Repository,
	borrowings borrowing.Repository,
	users user.Repository,
	payments *paymentapp.Manager,
	notifier notification.Notifier,
	clock Clock,
) *ReturnBorrowingUseCase {
	return &ReturnBorrowingUseCase{
		txManager:  txManager,
		ledger:     ledger,
		books:      books,
		borrowings: borrowings,
		users:      users,
		payments:   payments,
		notifier:   notifier,
		clock:      clock,
	}
}

// ReturnBorrowingRequest ActualReturnDate为空表示今天；只有管理员可以指定日期
type ReturnBorrowingRequest struct {
	BorrowingID      uint
	Principal        query.Principal
	ActualReturnDate *time.Time
}

// Execute 执行还书
func (uc *ReturnBorrowingUseCase) Execute(ctx context.Context, req ReturnBorrowingRequest) (*ReceiptDTO, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ReturnBorrowing",
		attribute.Int64("borrowing_id", int64(req.BorrowingID)),
		attribute.Int64("user_id", int64(req.Principal.UserID)),
	)
	b, receipt, err := uc.execute(ctx, req)
	tracing.EndSpan(span, err)
	metrics.RecordBorrowing(metrics.OpReturn, resultOf(err))
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, b)
	return receipt, nil
}

func (uc *ReturnBorrowingUseCase) execute(ctx context.Context, req ReturnBorrowingRequest) (*borrowing.Borrowing, *ReceiptDTO, error) {
	b, err := uc.borrowings.FindByID(ctx, req.BorrowingID)
	if err != nil {
		return nil, nil, err
	}
	if !b.VisibleTo(req.Principal) {
		return nil, nil, borrowing.ErrBorrowingNotFound
	}

	today := uc.clock.today()
	returnDate := today
	if req.ActualReturnDate != nil {
		if !req.Principal.IsAdmin {
			return nil, nil, apperrors.ErrForbidden
		}
		returnDate = fee.DateOf(*req.ActualReturnDate)
		if returnDate.After(today) {
			return nil, nil, borrowing.ErrInvalidReturnDate
		}
	}
	if err := b.CanReturnOn(returnDate); err != nil {
		return nil, nil, err
	}

	if b.Book == nil {
		bk, err := uc.books.FindByID(ctx, b.BookID)
		if err != nil {
			return nil, nil, err
		}
		b.Book = bk
	}

	charge, err := fee.Compute(b.BorrowDate, b.ExpectedReturnDate, returnDate, b.Book.DailyFee)
	if err != nil {
		return nil, nil, err
	}
	typ := payment.TypeFor(charge.HasFine())

	var (
		session *payment.CheckoutSession
		created *payment.Payment
	)
	s := saga.NewSaga("return-borrowing", ReturnTimeout, saga.WithLogger(logger.FromContext(ctx)))
	s.AddStep("open-checkout",
		func(ctx context.Context) error {
			var err error
			session, err = uc.payments.OpenSession(ctx, b, charge.Total)
			return err
		},
		func(ctx context.Context) error {
			return uc.payments.ExpireSession(ctx, session.ID)
		},
	)
	s.AddStep("persist-return", func(ctx context.Context) error {
		return uc.txManager.Transaction(ctx, func(ctx context.Context) error {
			if err := uc.borrowings.MarkReturned(ctx, b.ID, returnDate); err != nil {
				return err
			}
			p, err := uc.payments.Record(ctx, b.ID, typ, charge.Total, session)
			if err != nil {
				return err
			}
			created = p
			return uc.ledger.Release(ctx, b.BookID)
		})
	}, nil)

	if err := s.Execute(ctx); err != nil {
		return nil, nil, err
	}

	if err := b.MarkReturned(returnDate); err != nil {
		return nil, nil, err
	}
	return b, &ReceiptDTO{
		BorrowingID:      b.ID,
		ActualReturnDate: returnDate.Format(DateLayout),
		RentalCost:       charge.Rental.StringFixed(2),
		Fine:             charge.Fine.StringFixed(2),
		Total:            charge.Total.StringFixed(2),
		PaymentID:        created.ID,
		PaymentType:      string(created.Type),
		SessionURL:       created.SessionURL,
		SessionID:        created.SessionID,
	}, nil
}

func (uc *ReturnBorrowingUseCase) notify(ctx context.Context, b *borrowing.Borrowing) {
	u, err := uc.users.FindByID(ctx, b.UserID)
	if err != nil {
		logger.FromContext(ctx).Warn("查询借阅人失败，跳过通知", zap.Uint("borrowing_id", b.ID), zap.Error(err))
		return
	}
	uc.notifier.Notify(ctx, notification.BookReturnedMessage(b.BookTitle(), u.Email, *b.ActualReturnDate))
}
