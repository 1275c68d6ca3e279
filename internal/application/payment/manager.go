package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/saga"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "payment"

// Manager 支付记录管理
// 1. OpenSession 调用外部支付服务，不涉及数据库
// 2. Record 只写数据库，可以放在调用方的事务里
// 3. MarkPaid / MarkCancelled 幂等：终态收到重复通知直接返回当前记录
type Manager struct {
	repo      payment.Repository
	gateway   payment.Gateway
	publicURL string
}

// NewManager 创建支付管理器，publicURL 为对外访问地址（拼接回跳链接）
func NewManager(repo payment.Repository, gateway payment.Gateway, publicURL string) *Manager {
	return &Manager{
		repo:      repo,
		gateway:   gateway,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// redirectURL /api/v1/payments/{CHECKOUT_SESSION_ID}/success|cancel
func (m *Manager) redirectURL(action string) string {
	return fmt.Sprintf("%s/api/v1/payments/%s/%s", m.publicURL, payment.SessionPlaceholder, action)
}

// OpenSession 为借阅开启收银台会话
func (m *Manager) OpenSession(ctx context.Context, b *borrowing.Borrowing, amount decimal.Decimal) (*payment.CheckoutSession, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "OpenSession",
		attribute.Int64("borrowing_id", int64(b.ID)),
		attribute.String("amount", amount.StringFixed(2)),
	)
	session, err := m.gateway.OpenCheckoutSession(ctx, payment.CheckoutRequest{
		Amount:      amount,
		Description: "Borrowing of " + b.BookTitle(),
		SuccessURL:  m.redirectURL("success"),
		CancelURL:   m.redirectURL("cancel"),
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ExpireSession 作废会话（补偿）
func (m *Manager) ExpireSession(ctx context.Context, sessionID string) error {
	return m.gateway.ExpireSession(ctx, sessionID)
}

// Record 持久化PENDING支付记录（加入ctx中的事务）
func (m *Manager) Record(ctx context.Context, borrowingID uint, typ payment.Type, amount decimal.Decimal, session *payment.CheckoutSession) (*payment.Payment, error) {
	p, err := payment.NewPayment(borrowingID, typ, amount, session)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePayment 开启会话并记录支付；记录失败时作废已开启的会话
func (m *Manager) CreatePayment(ctx context.Context, b *borrowing.Borrowing, typ payment.Type, amount decimal.Decimal) (*payment.Payment, error) {
	var (
		session *payment.CheckoutSession
		created *payment.Payment
	)

	s := saga.NewSaga("create-payment", 0, saga.WithLogger(logger.FromContext(ctx)))
	s.AddStep("open-checkout",
		func(ctx context.Context) error {
			var err error
			session, err = m.OpenSession(ctx, b, amount)
			return err
		},
		func(ctx context.Context) error {
			return m.ExpireSession(ctx, session.ID)
		},
	)
	s.AddStep("record-payment", func(ctx context.Context) error {
		var err error
		created, err = m.Record(ctx, b.ID, typ, amount, session)
		return err
	}, nil)

	if err := s.Execute(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// MarkPaid PENDING → PAID
func (m *Manager) MarkPaid(ctx context.Context, paymentID uint) (*payment.Payment, error) {
	return m.transition(ctx, paymentID, payment.StatusPaid)
}

// MarkCancelled PENDING → CANCELLED；已支付的记录保持PAID
// 先作废支付会话再落库，作废失败时记录保持PENDING，取消回跳可以重试
func (m *Manager) MarkCancelled(ctx context.Context, paymentID uint) (*payment.Payment, error) {
	return m.transition(ctx, paymentID, payment.StatusCancelled)
}

func (m *Manager) transition(ctx context.Context, paymentID uint, target payment.Status) (*payment.Payment, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Transition",
		attribute.Int64("payment_id", int64(paymentID)),
		attribute.String("target", string(target)),
	)
	p, err := m.doTransition(ctx, paymentID, target)
	tracing.EndSpan(span, err)
	return p, err
}

func (m *Manager) doTransition(ctx context.Context, paymentID uint, target payment.Status) (*payment.Payment, error) {
	p, err := m.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status.IsTerminal() {
		metrics.RecordPaymentTransition(string(target), false)
		logger.FromContext(ctx).Info("支付已是终态，忽略状态变更",
			zap.Uint("payment_id", p.ID),
			zap.String("status", string(p.Status)),
			zap.String("target", string(target)),
		)
		return p, nil
	}

	if target == payment.StatusCancelled && p.SessionID != "" {
		if err := m.gateway.ExpireSession(ctx, p.SessionID); err != nil {
			logger.FromContext(ctx).Warn("作废支付会话失败，取消未生效",
				zap.Uint("payment_id", p.ID),
				zap.String("session_id", p.SessionID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	applied, err := m.repo.UpdateStatus(ctx, p.ID, payment.StatusPending, target)
	if err != nil {
		return nil, err
	}
	metrics.RecordPaymentTransition(string(target), applied)
	if !applied {
		// 并发的另一个通知先完成了状态变更
		return m.repo.FindByID(ctx, p.ID)
	}

	if _, err := p.TransitionTo(target); err != nil {
		return nil, err
	}
	return p, nil
}

// FindBySession 按支付会话ID查找
// 回跳地址不需要登录，只接受支付服务生成的会话ID，不接受自增的支付ID
func (m *Manager) FindBySession(ctx context.Context, sessionID string) (*payment.Payment, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, payment.ErrPaymentNotFound
	}
	return m.repo.FindBySessionID(ctx, sessionID)
}

// ConfirmBySession 支付成功回跳
func (m *Manager) ConfirmBySession(ctx context.Context, sessionID string) (*payment.Payment, error) {
	p, err := m.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.MarkPaid(ctx, p.ID)
}

// CancelBySession 支付取消回跳
func (m *Manager) CancelBySession(ctx context.Context, sessionID string) (*payment.Payment, error) {
	p, err := m.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.MarkCancelled(ctx, p.ID)
}
