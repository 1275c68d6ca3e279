package payment

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xiebiao/library/internal/domain/payment"
)

// FakeGateway 本地开发与测试用的支付网关：会话ID为uuid，收银台地址直接指向成功回跳
type FakeGateway struct {
	mu       sync.Mutex
	sessions map[string]payment.CheckoutRequest
	expired  map[string]bool
	last     string

	// FailOpen / FailExpire 非nil时对应调用返回该错误
	FailOpen   error
	FailExpire error
}

// NewFakeGateway 创建假网关
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		sessions: make(map[string]payment.CheckoutRequest),
		expired:  make(map[string]bool),
	}
}

// ErrFakeUnavailable 测试中模拟网关故障
var ErrFakeUnavailable = errors.New("fake gateway unavailable")

func (g *FakeGateway) OpenCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailOpen != nil {
		return nil, g.FailOpen
	}

	id := "cs_fake_" + uuid.NewString()
	g.sessions[id] = req
	g.last = id
	return &payment.CheckoutSession{
		ID:  id,
		URL: strings.ReplaceAll(req.SuccessURL, payment.SessionPlaceholder, id),
	}, nil
}

func (g *FakeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailExpire != nil {
		return g.FailExpire
	}
	g.expired[sessionID] = true
	return nil
}

// Opened 已开启的会话数
func (g *FakeGateway) Opened() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// LastSessionID 最近一次开启的会话
func (g *FakeGateway) LastSessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Request 返回开启会话时的请求
func (g *FakeGateway) Request(sessionID string) (payment.CheckoutRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.sessions[sessionID]
	return req, ok
}

// Expired 会话是否已被作废
func (g *FakeGateway) Expired(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expired[sessionID]
}
