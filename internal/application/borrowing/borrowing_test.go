package borrowing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	borrowingapp "github.com/xiebiao/library/internal/application/borrowing"
	paymentapp "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
	"github.com/xiebiao/library/internal/domain/user"
	paymentinfra "github.com/xiebiao/library/internal/infrastructure/payment"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Event, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Event
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	now      time.Time
	gateway  *paymentinfra.FakeGateway
	notifier *recordingNotifier

	books      book.Repository
	borrowings borrowing.Repository
	payments   payment.Repository
	users      user.Repository

	create *borrowingapp.CreateBorrowingUseCase
	ret    *borrowingapp.ReturnBorrowingUseCase
	list   *borrowingapp.ListBorrowingsUseCase
	get    *borrowingapp.GetBorrowingUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, mysqltest.New(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		db:       db,
		now:      day(0).Add(10 * time.Hour),
		gateway:  paymentinfra.NewFakeGateway(),
		notifier: &recordingNotifier{},
	}
	f.books = mysql.NewBookRepository(f.db)
	f.borrowings = mysql.NewBorrowingRepository(f.db)
	f.payments = mysql.NewPaymentRepository(f.db)
	f.users = mysql.NewUserRepository(f.db)

	clock := borrowingapp.Clock(func() time.Time { return f.now })
	tx := mysql.NewTxManager(f.db)
	ledger := mysql.NewLedger(f.db)
	gw := paymentinfra.WithBreaker(f.gateway, paymentinfra.BreakerConfig{Failures: 100}, zaptest.NewLogger(t))
	manager := paymentapp.NewManager(f.payments, gw, "http://localhost:8080")

	f.create = borrowingapp.NewCreateBorrowingUseCase(tx, ledger, f.books, f.borrowings, f.users, f.notifier, clock)
	f.ret = borrowingapp.NewReturnBorrowingUseCase(tx, ledger, f.books, f.borrowings, f.users, manager, f.notifier, clock)
	f.list = borrowingapp.NewListBorrowingsUseCase(f.borrowings, clock)
	f.get = borrowingapp.NewGetBorrowingUseCase(f.borrowings, f.payments)
	return f
}

func (f *fixture) seedBook(t *testing.T, inventory int, dailyFee string) *book.Book {
	t.Helper()
	b, err := book.NewBook("Dune", "Frank Herbert", book.CoverHard, inventory, decimal.RequireFromString(dailyFee))
	require.NoError(t, err)
	require.NoError(t, f.books.Create(context.Background(), b))
	return b
}

func (f *fixture) seedUser(t *testing.T, email string) *user.User {
	t.Helper()
	u := user.NewUser(email, "hash", "reader")
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) inventory(t *testing.T, id uint) int {
	t.Helper()
	b, err := f.books.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b.Inventory
}

func (f *fixture) borrow(t *testing.T, u *user.User, b *book.Book, expected time.Time) *borrowingapp.BorrowingDTO {
	t.Helper()
	dto, err := f.create.Execute(context.Background(), borrowingapp.CreateBorrowingRequest{
		UserID: u.ID, BookID: b.ID, ExpectedReturnDate: expected,
	})
	require.NoError(t, err)
	return dto
}

func TestCreateBorrowing(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 2, "0.30")

	dto := f.borrow(t, u, b, day(5))

	assert.NotZero(t, dto.ID)
	assert.Equal(t, "Dune", dto.BookTitle)
	assert.Equal(t, "2024-03-01", dto.BorrowDate)
	assert.Equal(t, "2024-03-06", dto.ExpectedReturnDate)
	assert.Nil(t, dto.ActualReturnDate)
	assert.Equal(t, "ACTIVE", dto.Status)
	assert.Equal(t, 1, f.inventory(t, b.ID))
	assert.Equal(t, []notification.Event{notification.EventBorrowingCreated}, f.notifier.events())
	assert.Contains(t, f.notifier.msgs[0].Text, "reader@example.com")
}

func TestCreateBorrowing_Rejections(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	empty := f.seedBook(t, 0, "1.00")
	ok := f.seedBook(t, 1, "1.00")
	ctx := context.Background()

	tests := []struct {
		name    string
		req     borrowingapp.CreateBorrowingRequest
		wantErr error
	}{
		{"out of stock", borrowingapp.CreateBorrowingRequest{UserID: u.ID, BookID: empty.ID, ExpectedReturnDate: day(3)}, book.ErrOutOfStock},
		{"unknown book", borrowingapp.CreateBorrowingRequest{UserID: u.ID, BookID: 999, ExpectedReturnDate: day(3)}, book.ErrBookNotFound},
		{"expected today", borrowingapp.CreateBorrowingRequest{UserID: u.ID, BookID: ok.ID, ExpectedReturnDate: day(0)}, borrowing.ErrInvalidDates},
		{"expected in past", borrowingapp.CreateBorrowingRequest{UserID: u.ID, BookID: ok.ID, ExpectedReturnDate: day(-1)}, borrowing.ErrInvalidDates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, f.inventory(t, empty.ID))
	assert.Equal(t, 1, f.inventory(t, ok.ID), "失败的借阅不扣库存")
	assert.Empty(t, f.notifier.events())
}

// SQLite单连接下请求实际是串行的，这里只验证结果不变量；
// 库存的原子扣减由 TestCreateBorrowing_ConcurrentLastCopy_MySQL 在真实并发下验证
func TestCreateBorrowing_ConcurrentLastCopy(t *testing.T) {
	concurrentLastCopy(t, newFixture(t))
}

func TestCreateBorrowing_ConcurrentLastCopy_MySQL(t *testing.T) {
	concurrentLastCopy(t, newFixtureOn(t, mysqltest.MySQL(t)))
}

func concurrentLastCopy(t *testing.T, f *fixture) {
	b := f.seedBook(t, 1, "0.50")
	const n = 10
	users := make([]*user.User, n)
	for i := range users {
		users[i] = f.seedUser(t, "reader"+string(rune('a'+i))+"@example.com")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		outOfStk  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(u *user.User) {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), borrowingapp.CreateBorrowingRequest{
				UserID: u.ID, BookID: b.ID, ExpectedReturnDate: day(3),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, book.ErrOutOfStock):
				outOfStk++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(users[i])
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, outOfStk)
	assert.Equal(t, 0, f.inventory(t, b.ID))

	_, total, err := f.borrowings.List(context.Background(), query.BorrowingFilter{}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestReturnBorrowing_LateReturnChargesFine(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))

	f.now = day(7).Add(15 * time.Hour)
	receipt, err := f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID,
		Principal:   query.Principal{UserID: u.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-08", receipt.ActualReturnDate)
	assert.Equal(t, "2.10", receipt.RentalCost)
	assert.Equal(t, "1.20", receipt.Fine)
	assert.Equal(t, "3.30", receipt.Total)
	assert.Equal(t, string(payment.TypeFine), receipt.PaymentType)
	assert.Contains(t, receipt.SessionID, "cs_fake_")
	assert.Equal(t, "http://localhost:8080/api/v1/payments/"+receipt.SessionID+"/success", receipt.SessionURL)

	req, ok := f.gateway.Request(receipt.SessionID)
	require.True(t, ok)
	assert.Equal(t, "3.30", req.Amount.StringFixed(2))
	assert.Equal(t, "Borrowing of Dune", req.Description)

	assert.Equal(t, 1, f.inventory(t, b.ID))

	detail, err := f.get.Execute(context.Background(), query.Principal{UserID: u.ID}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "RETURNED", detail.Status)
	require.NotNil(t, detail.ActualReturnDate)
	assert.Equal(t, "2024-03-08", *detail.ActualReturnDate)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, "PENDING", detail.Payments[0].Status)
	assert.Equal(t, "3.30", detail.Payments[0].MoneyToPay)

	assert.Equal(t, []notification.Event{
		notification.EventBorrowingCreated,
		notification.EventBorrowingReturned,
	}, f.notifier.events())
}

func TestReturnBorrowing_OnTime(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))

	f.now = day(3)
	receipt, err := f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID,
		Principal:   query.Principal{UserID: u.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.90", receipt.RentalCost)
	assert.Equal(t, "0.00", receipt.Fine)
	assert.Equal(t, "0.90", receipt.Total)
	assert.Equal(t, string(payment.TypeRental), receipt.PaymentType)
}

func TestReturnBorrowing_ExplicitDate(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	admin := f.seedUser(t, "admin@example.com")
	b := f.seedBook(t, 3, "0.30")
	created := f.borrow(t, u, b, day(5))
	f.now = day(10)
	ctx := context.Background()

	past := day(7)
	_, err := f.ret.Execute(ctx, borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID}, ActualReturnDate: &past,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "普通用户不能指定归还日期")

	future := day(11)
	_, err = f.ret.Execute(ctx, borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: admin.ID, IsAdmin: true}, ActualReturnDate: &future,
	})
	assert.ErrorIs(t, err, borrowing.ErrInvalidReturnDate)

	beforeBorrow := day(-1)
	_, err = f.ret.Execute(ctx, borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: admin.ID, IsAdmin: true}, ActualReturnDate: &beforeBorrow,
	})
	assert.ErrorIs(t, err, borrowing.ErrInvalidReturnDate)
	assert.Zero(t, f.gateway.Opened())

	receipt, err := f.ret.Execute(ctx, borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: admin.ID, IsAdmin: true}, ActualReturnDate: &past,
	})
	require.NoError(t, err)
	assert.Equal(t, "3.30", receipt.Total)
}

func TestReturnBorrowing_NotVisibleToOtherUser(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "owner@example.com")
	other := f.seedUser(t, "other@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, owner, b, day(5))

	_, err := f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: other.ID},
	})
	assert.ErrorIs(t, err, borrowing.ErrBorrowingNotFound)

	_, err = f.get.Execute(context.Background(), query.Principal{UserID: other.ID}, created.ID)
	assert.ErrorIs(t, err, borrowing.ErrBorrowingNotFound)
}

func TestReturnBorrowing_Twice(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))
	f.now = day(2)
	req := borrowingapp.ReturnBorrowingRequest{BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID}}

	_, err := f.ret.Execute(context.Background(), req)
	require.NoError(t, err)
	_, err = f.ret.Execute(context.Background(), req)
	assert.ErrorIs(t, err, borrowing.ErrAlreadyReturned)

	assert.Equal(t, 1, f.inventory(t, b.ID), "库存只恢复一次")
	assert.Equal(t, 1, f.gateway.Opened())
}

// 同上：SQLite下只验证结果，归还的条件更新在MySQL变体中并发执行
func TestReturnBorrowing_ConcurrentDoubleReturn(t *testing.T) {
	concurrentDoubleReturn(t, newFixture(t))
}

func TestReturnBorrowing_ConcurrentDoubleReturn_MySQL(t *testing.T) {
	concurrentDoubleReturn(t, newFixtureOn(t, mysqltest.MySQL(t)))
}

func concurrentDoubleReturn(t *testing.T, f *fixture) {
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))
	f.now = day(2)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	receipts := make([]*borrowingapp.ReceiptDTO, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
				BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID},
			})
		}(i)
	}
	wg.Wait()

	var winner *borrowingapp.ReceiptDTO
	for i, err := range errs {
		if err == nil {
			require.Nil(t, winner, "只能有一次归还成功")
			winner = receipts[i]
			continue
		}
		assert.ErrorIs(t, err, borrowing.ErrAlreadyReturned)
	}
	require.NotNil(t, winner)

	assert.Equal(t, 1, f.inventory(t, b.ID))
	payments, err := f.payments.ListByBorrowing(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, winner.SessionID, payments[0].SessionID)
	assert.False(t, f.gateway.Expired(winner.SessionID))
}

func TestReturnBorrowing_GatewayFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))
	f.now = day(2)
	f.gateway.FailOpen = paymentinfra.ErrFakeUnavailable

	_, err := f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePaymentGateway, apperrors.GetAppError(err).Code)
	assert.Equal(t, 502, apperrors.GetAppError(err).HTTPStatus())

	got, err := f.borrowings.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
	assert.Equal(t, 0, f.inventory(t, b.ID))
	payments, err := f.payments.ListByBorrowing(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	// 网关恢复后可以正常归还
	f.gateway.FailOpen = nil
	_, err = f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID},
	})
	require.NoError(t, err)
}

func TestReturnBorrowing_PersistFailureExpiresSession(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "reader@example.com")
	b := f.seedBook(t, 1, "0.30")
	created := f.borrow(t, u, b, day(5))
	f.now = day(2)

	// 写支付记录失败，整个事务回滚
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_payments", func(db *gorm.DB) {
		if db.Statement.Table == "payments" {
			_ = db.AddError(errors.New("disk full"))
		}
	}))

	_, err := f.ret.Execute(context.Background(), borrowingapp.ReturnBorrowingRequest{
		BorrowingID: created.ID, Principal: query.Principal{UserID: u.ID},
	})
	require.Error(t, err)
	require.Equal(t, 1, f.gateway.Opened())
	assert.True(t, f.gateway.Expired(f.gateway.LastSessionID()), "已开启的会话被作废")

	got, err := f.borrowings.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive(), "归还日期随事务回滚")
	assert.Equal(t, 0, f.inventory(t, b.ID))
	payments, err := f.payments.ListByBorrowing(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func boolPtr(v bool) *bool { return &v }
func uintPtr(v uint) *uint { return &v }

func TestListBorrowings(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice@example.com")
	bob := f.seedUser(t, "bob@example.com")
	b := f.seedBook(t, 10, "0.30")
	ctx := context.Background()

	a1 := f.borrow(t, alice, b, day(2))
	f.borrow(t, alice, b, day(10))
	f.borrow(t, bob, b, day(2))

	f.now = day(1)
	_, err := f.ret.Execute(ctx, borrowingapp.ReturnBorrowingRequest{BorrowingID: a1.ID, Principal: query.Principal{UserID: alice.ID}})
	require.NoError(t, err)
	f.now = day(5)

	tests := []struct {
		name  string
		req   borrowingapp.ListBorrowingsRequest
		total int64
	}{
		{"alice sees only her own", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{UserID: alice.ID}}, 2},
		{"alice cannot widen to bob", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{UserID: alice.ID}, UserID: uintPtr(bob.ID)}, 2},
		{"alice active only", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{UserID: alice.ID}, IsActive: boolPtr(true)}, 1},
		{"admin sees all", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{UserID: 99, IsAdmin: true}}, 3},
		{"admin filters by user", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{IsAdmin: true}, UserID: uintPtr(bob.ID)}, 1},
		{"admin overdue", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{IsAdmin: true}, Overdue: true}, 1},
		{"admin returned", borrowingapp.ListBorrowingsRequest{Principal: query.Principal{IsAdmin: true}, IsActive: boolPtr(false)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.list.Execute(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.total, resp.Total)
			assert.Len(t, resp.List, int(tt.total))
			assert.Equal(t, query.DefaultPage, resp.Page)
			assert.Equal(t, query.DefaultPageSize, resp.PageSize)
		})
	}
}
