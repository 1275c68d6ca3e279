package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	paymentinfra "github.com/xiebiao/library/internal/infrastructure/payment"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

const adminPassword = "admin12345"

func day(d int) time.Time {
	return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

// memSessions Redis会话存储的内存替身
type memSessions struct {
	mu        sync.Mutex
	blacklist map[string]bool
}

func (m *memSessions) SaveSession(ctx context.Context, userID uint, data map[string]any, ttl time.Duration) error {
	return nil
}

func (m *memSessions) GetSession(ctx context.Context, userID uint) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *memSessions) DeleteSession(ctx context.Context, userID uint) error { return nil }

func (m *memSessions) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[token] = true
	return nil
}

func (m *memSessions) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blacklist[token], nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notification.Message) {}

type server struct {
	engine  *gin.Engine
	gateway *paymentinfra.FakeGateway
	now     time.Time
	admin   string
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{now: day(0), gateway: paymentinfra.NewFakeGateway()}

	cfg, err := config.LoadFrom(t.TempDir())
	require.NoError(t, err)
	cfg.Server.Mode = gin.TestMode
	log := zaptest.NewLogger(t)

	db := mysqltest.New(t)
	users := mysql.NewUserRepository(db)
	books := mysql.NewBookRepository(db)
	borrowings := mysql.NewBorrowingRepository(db)
	payments := mysql.NewPaymentRepository(db)
	tx := mysql.NewTxManager(db)
	ledger := mysql.NewLedger(db)

	sessions := &memSessions{blacklist: map[string]bool{}}
	jwtManager := jwt.NewManager("router-test-secret", time.Hour, 24*time.Hour)
	userService := user.NewService(users, user.WithBcryptCost(bcrypt.MinCost))
	bookService := book.NewService(books)
	clock := appborrowing.Clock(func() time.Time { return s.now })
	manager := apppayment.NewManager(payments, s.gateway, "http://library.test")

	_, err = userService.EnsureAdmin(context.Background(), "admin@example.com", adminPassword, "admin")
	require.NoError(t, err)

	handlers := &router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			appuser.NewLoginUseCase(userService, jwtManager, sessions),
			appuser.NewRefreshUseCase(users, jwtManager, sessions),
			appuser.NewLogoutUseCase(sessions),
			appuser.NewMeUseCase(users),
		),
		Book: handler.NewBookHandler(
			appbook.NewListBooksUseCase(bookService),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewCreateBookUseCase(bookService),
			appbook.NewUpdateBookUseCase(bookService),
			appbook.NewDeleteBookUseCase(bookService),
		),
		Borrowing: handler.NewBorrowingHandler(
			appborrowing.NewCreateBorrowingUseCase(tx, ledger, books, borrowings, users, nopNotifier{}, clock),
			appborrowing.NewReturnBorrowingUseCase(tx, ledger, books, borrowings, users, manager, nopNotifier{}, clock),
			appborrowing.NewListBorrowingsUseCase(borrowings, clock),
			appborrowing.NewGetBorrowingUseCase(borrowings, payments),
		),
		Payment: handler.NewPaymentHandler(
			manager,
			apppayment.NewListPaymentsUseCase(payments),
			apppayment.NewGetPaymentUseCase(payments),
		),
	}

	s.engine = router.New(cfg, log, handlers, middleware.NewAuthMiddleware(jwtManager, sessions))
	s.admin = s.login(t, "admin@example.com", adminPassword)
	return s
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *server) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	return decode[appuser.TokenResponse](t, env.Data).AccessToken
}

func (s *server) register(t *testing.T, email string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"email": email, "password": "reader12345", "nickname": "reader",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return s.login(t, email, "reader12345")
}

func (s *server) createBook(t *testing.T, inventory int, dailyFee string) appbook.BookDTO {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/books", s.admin, map[string]any{
		"title": "Dune", "author": "Frank Herbert", "cover": "HARD",
		"inventory": inventory, "daily_fee": dailyFee,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return decode[appbook.BookDTO](t, env.Data)
}

func TestPing(t *testing.T) {
	s := newServer(t)
	status, env := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
}

func TestBorrowAndReturnLate_EndToEnd(t *testing.T) {
	s := newServer(t)
	reader := s.register(t, "reader@example.com")
	bk := s.createBook(t, 1, "0.30")

	status, env := s.do(t, http.MethodPost, "/api/v1/borrowings", reader, map[string]any{
		"book_id": bk.ID, "expected_return_date": "2024-03-06",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	borrowed := decode[appborrowing.BorrowingDTO](t, env.Data)
	assert.Equal(t, "2024-03-01", borrowed.BorrowDate)
	assert.Equal(t, "ACTIVE", borrowed.Status)

	// 库存为0，再借失败
	status, env = s.do(t, http.MethodPost, "/api/v1/borrowings", reader, map[string]any{
		"book_id": bk.ID, "expected_return_date": "2024-03-06",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.ErrCodeOutOfStock, env.Code)

	// 逾期两天归还：租金 7×0.30，罚金 2×0.30×2
	s.now = day(7)
	status, env = s.do(t, http.MethodPost, "/api/v1/borrowings/"+itoa(borrowed.ID)+"/return", reader, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	receipt := decode[appborrowing.ReceiptDTO](t, env.Data)
	assert.Equal(t, "2024-03-08", receipt.ActualReturnDate)
	assert.Equal(t, "2.10", receipt.RentalCost)
	assert.Equal(t, "1.20", receipt.Fine)
	assert.Equal(t, "3.30", receipt.Total)
	assert.Equal(t, "FINE", receipt.PaymentType)
	assert.NotEmpty(t, receipt.SessionURL)

	status, env = s.do(t, http.MethodGet, "/api/v1/books/"+itoa(bk.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[appbook.BookDTO](t, env.Data).Inventory, "归还后库存恢复")

	// 再次归还
	status, _ = s.do(t, http.MethodPost, "/api/v1/borrowings/"+itoa(borrowed.ID)+"/return", reader, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// 回跳不登录，用支付ID无法定位记录
	status, _ = s.do(t, http.MethodGet, "/api/v1/payments/"+itoa(receipt.PaymentID)+"/success", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, env = s.do(t, http.MethodGet, "/api/v1/payments/"+itoa(receipt.PaymentID), reader, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "PENDING", decode[apppayment.PaymentDTO](t, env.Data).Status)

	// 支付回跳是公开接口，重复调用结果一致
	for i := 0; i < 2; i++ {
		status, env = s.do(t, http.MethodGet, "/api/v1/payments/"+receipt.SessionID+"/success", "", nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		cb := decode[map[string]any](t, env.Data)
		assert.Equal(t, "PAID", cb["status"])
	}
	status, env = s.do(t, http.MethodGet, "/api/v1/payments/"+receipt.SessionID+"/cancel", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PAID", decode[map[string]any](t, env.Data)["status"], "已支付不会被取消")

	status, env = s.do(t, http.MethodGet, "/api/v1/borrowings/"+itoa(borrowed.ID), reader, nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[appborrowing.BorrowingDTO](t, env.Data)
	assert.Equal(t, "RETURNED", detail.Status)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, "3.30", detail.Payments[0].MoneyToPay)
}

func TestPaymentCancelClosesSession(t *testing.T) {
	s := newServer(t)
	reader := s.register(t, "reader@example.com")
	bk := s.createBook(t, 1, "1.00")

	status, env := s.do(t, http.MethodPost, "/api/v1/borrowings", reader, map[string]any{
		"book_id": bk.ID, "expected_return_date": "2024-03-03",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	borrowed := decode[appborrowing.BorrowingDTO](t, env.Data)

	s.now = day(2)
	status, env = s.do(t, http.MethodPost, "/api/v1/borrowings/"+itoa(borrowed.ID)+"/return", reader, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	receipt := decode[appborrowing.ReceiptDTO](t, env.Data)

	status, env = s.do(t, http.MethodGet, "/api/v1/payments/"+receipt.SessionID+"/cancel", "", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	cb := decode[map[string]any](t, env.Data)
	assert.Equal(t, "CANCELLED", cb["status"])
	assert.NotContains(t, cb["message"], "later")
	assert.True(t, s.gateway.Expired(receipt.SessionID), "取消后会话作废，不能再付款")

	status, env = s.do(t, http.MethodGet, "/api/v1/payments/"+receipt.SessionID+"/success", "", nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "CANCELLED", decode[map[string]any](t, env.Data)["status"])
}

func itoa(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestAuthorization(t *testing.T) {
	s := newServer(t)
	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	bk := s.createBook(t, 5, "1.00")

	t.Run("未登录", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/borrowings", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)
	})

	t.Run("普通用户不能管理图书", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/v1/books", alice, map[string]any{
			"title": "X", "author": "Y", "cover": "SOFT", "inventory": 1, "daily_fee": "1.00",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	status, env := s.do(t, http.MethodPost, "/api/v1/borrowings", alice, map[string]any{
		"book_id": bk.ID, "expected_return_date": "2024-03-03",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	aliceBorrowing := decode[appborrowing.BorrowingDTO](t, env.Data)

	t.Run("他人的借阅不可见", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/api/v1/borrowings/"+itoa(aliceBorrowing.ID), bob, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = s.do(t, http.MethodPost, "/api/v1/borrowings/"+itoa(aliceBorrowing.ID)+"/return", bob, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("user_id过滤对普通用户无效", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/borrowings?user_id="+itoa(aliceBorrowing.UserID), bob, nil)
		require.Equal(t, http.StatusOK, status)
		page := decode[struct {
			Total int64 `json:"total"`
		}](t, env.Data)
		assert.Zero(t, page.Total)
	})

	t.Run("管理员可以看到所有借阅", func(t *testing.T) {
		status, env := s.do(t, http.MethodGet, "/api/v1/borrowings?is_active=true", s.admin, nil)
		require.Equal(t, http.StatusOK, status)
		page := decode[struct {
			Total int64 `json:"total"`
		}](t, env.Data)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("普通用户不能指定归还日期", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/api/v1/borrowings/"+itoa(aliceBorrowing.ID)+"/return", alice,
			map[string]string{"actual_return_date": "2024-03-01"})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("登出后Token失效", func(t *testing.T) {
		token := s.register(t, "carol@example.com")
		status, _ := s.do(t, http.MethodPost, "/api/v1/users/logout", token, nil)
		require.Equal(t, http.StatusOK, status)

		status, _ = s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestValidationAndNotFound(t *testing.T) {
	s := newServer(t)
	reader := s.register(t, "reader@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
	}{
		{"过去的应还日期", http.MethodPost, "/api/v1/borrowings", reader,
			map[string]any{"book_id": 1, "expected_return_date": "2024-02-01"}, http.StatusBadRequest},
		{"日期格式错误", http.MethodPost, "/api/v1/borrowings", reader,
			map[string]any{"book_id": 1, "expected_return_date": "03/06/2024"}, http.StatusBadRequest},
		{"图书不存在", http.MethodPost, "/api/v1/borrowings", reader,
			map[string]any{"book_id": 999, "expected_return_date": "2024-03-06"}, http.StatusNotFound},
		{"负库存", http.MethodPost, "/api/v1/books", s.admin,
			map[string]any{"title": "X", "author": "Y", "cover": "HARD", "inventory": -1, "daily_fee": "1.00"}, http.StatusBadRequest},
		{"非法ID", http.MethodGet, "/api/v1/books/abc", "", nil, http.StatusBadRequest},
		{"支付记录不存在", http.MethodGet, "/api/v1/payments/cs_unknown/success", "", nil, http.StatusNotFound},
		{"非法状态过滤", http.MethodGet, "/api/v1/payments?status=REFUNDED", reader, nil, http.StatusBadRequest},
		{"未知路由", http.MethodGet, "/api/v1/nothing", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, status, env.Message)
			assert.NotZero(t, env.Code)
		})
	}
}
