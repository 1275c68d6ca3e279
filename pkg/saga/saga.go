// Package saga 本地Saga编排：按顺序执行步骤，失败时逆序执行已完成步骤的补偿
//
// 典型用法是把"外部调用"和"本地事务"串起来：
//
//	s := saga.NewSaga("return-borrowing", 30*time.Second, saga.WithLogger(logger))
//	s.AddStep("open-checkout", openSession, expireSession)
//	s.AddStep("persist-return", persistInTx, nil)
//	err := s.Execute(ctx)
//
// 补偿必须幂等；补偿失败不会中断后续补偿，错误会汇总在返回值里。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/metrics"
)

// ErrCompensationFailed 补偿阶段出现错误（需要人工介入）
var ErrCompensationFailed = errors.New("saga compensation failed")

// Step Saga中的一个步骤，Action和Compensate都可以为nil
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 一次Saga执行，不可复用
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// Option Saga配置项
type Option func(*Saga)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(s *Saga) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSaga 创建Saga，timeout<=0 表示不额外限制时长
func NewSaga(name string, timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		name:    name,
		steps:   make([]Step, 0, 4),
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 添加步骤（按添加顺序执行，按逆序补偿）
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga
// 某步失败时先补偿已完成的步骤，再返回包装了原始错误的error（可用errors.Is/As判断）
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, start, fmt.Errorf("saga[%s]超时: %w", s.name, err))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.logger.Warn("saga step failed",
					zap.String("saga", s.name),
					zap.Int("step_index", i),
					zap.String("step", step.Name),
					zap.Error(err),
				)
				return s.fail(ctx, start, fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err))
			}
		}
		s.executed = append(s.executed, step)
	}

	metrics.RecordSaga(s.name, metrics.ResultSuccess, time.Since(start).Seconds())
	return nil
}

func (s *Saga) fail(ctx context.Context, start time.Time, cause error) error {
	// 补偿不受原请求取消/超时影响，但保留ctx中的值（request_id、trace）
	compErr := s.compensate(context.WithoutCancel(ctx))
	metrics.RecordSaga(s.name, metrics.ResultFailure, time.Since(start).Seconds())
	if compErr != nil {
		return multierr.Append(cause, fmt.Errorf("%w: %w", ErrCompensationFailed, compErr))
	}
	return cause
}

func (s *Saga) compensate(ctx context.Context) error {
	var errs error
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		metrics.RecordSagaCompensation()
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", step.Name, err))
			continue
		}
		s.logger.Info("saga step compensated",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
		)
	}
	s.executed = nil
	return errs
}
