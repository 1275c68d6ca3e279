package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/pkg/metrics"
)

// AsyncNotifier 在后台goroutine中投递，业务请求不等待通知结果
type AsyncNotifier struct {
	sender  notification.Sender
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewAsyncNotifier(sender notification.Sender, timeout time.Duration, logger *zap.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncNotifier{sender: sender, timeout: timeout, logger: logger}
}

// Notify 立即返回；请求ctx取消不影响投递，但保留其中的值（request_id、trace）
func (n *AsyncNotifier) Notify(ctx context.Context, msg notification.Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.sender.Send(ctx, msg); err != nil {
			metrics.RecordNotification(string(msg.Event), metrics.ResultFailure)
			n.logger.Warn("通知投递失败", zap.String("event", string(msg.Event)), zap.Error(err))
			return
		}
		metrics.RecordNotification(string(msg.Event), metrics.ResultSuccess)
	}()
}

// Wait 等待所有在途通知完成，退出前调用
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}
