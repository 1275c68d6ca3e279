// Package metrics 基于Prometheus的指标收集
//
// 指标类型约定：
//   - Counter 以 _total 结尾，只增不减（借阅数、支付状态迁移数）
//   - Histogram 以单位结尾（_seconds），用于耗时分布
//   - Gauge 表示瞬时值（处理中的请求数、熔断器状态）
//
// 标签只使用有限取值的维度（method、status、result），不要用user_id这类高基数字段。
//
// 使用方式：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	metrics.RecordBorrowing(metrics.OpCreate, metrics.ResultSuccess)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务操作与结果标签取值
const (
	OpCreate = "create"
	OpReturn = "return"

	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

var (
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 借阅业务指标

	// BorrowingsTotal 借阅/归还操作总数，标签：operation（create/return）、result
	BorrowingsTotal *prometheus.CounterVec

	// PaymentTransitionsTotal 支付状态迁移总数，标签：status（PAID/CANCELLED）、result（applied/noop）
	PaymentTransitionsTotal *prometheus.CounterVec

	// PaymentGatewayDuration 支付网关调用耗时，标签：operation、result
	PaymentGatewayDuration *prometheus.HistogramVec

	// NotificationsTotal 通知投递总数，标签：event、result
	NotificationsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数，标签：saga、result
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaExecutionDuration Saga执行耗时
	SagaExecutionDuration prometheus.Histogram

	// SagaCompensationsTotal Saga补偿执行总数
	SagaCompensationsTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数，标签：exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数，标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 初始化并注册所有指标（多次调用只生效一次）
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	BorrowingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_borrowings_total",
			Help: "借阅与归还操作总数",
		},
		[]string{"operation", "result"},
	)

	PaymentTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_payment_transitions_total",
			Help: "支付状态迁移总数",
		},
		[]string{"status", "result"},
	)

	PaymentGatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "library_payment_gateway_duration_seconds",
			Help: "支付网关调用耗时（秒）",
			// 外部HTTP调用，通常在几百毫秒量级
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_notifications_total",
			Help: "通知投递总数",
		},
		[]string{"event", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"saga", "result"},
	)

	SagaExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_execution_duration_seconds",
			Help:    "Saga执行耗时（秒）",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	SagaCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// =========================================
// 业务埋点便捷函数
// =========================================

// RecordBorrowing 记录一次借阅/归还操作
func RecordBorrowing(operation, result string) {
	InitMetrics()
	BorrowingsTotal.WithLabelValues(operation, result).Inc()
}

// RecordPaymentTransition 记录支付状态迁移；applied=false 表示幂等空操作
func RecordPaymentTransition(status string, applied bool) {
	InitMetrics()
	result := "applied"
	if !applied {
		result = "noop"
	}
	PaymentTransitionsTotal.WithLabelValues(status, result).Inc()
}

// ObservePaymentGateway 记录支付网关调用耗时
func ObservePaymentGateway(operation, result string, seconds float64) {
	InitMetrics()
	PaymentGatewayDuration.WithLabelValues(operation, result).Observe(seconds)
}

// RecordNotification 记录通知投递结果
func RecordNotification(event, result string) {
	InitMetrics()
	NotificationsTotal.WithLabelValues(event, result).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest 记录熔断器请求结果
func RecordCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordSaga 记录Saga执行结果与耗时
func RecordSaga(name, result string, seconds float64) {
	InitMetrics()
	SagaExecutionsTotal.WithLabelValues(name, result).Inc()
	SagaExecutionDuration.Observe(seconds)
}

// RecordSagaCompensation 记录一次补偿执行
func RecordSagaCompensation() {
	InitMetrics()
	SagaCompensationsTotal.Inc()
}

// RecordPublish 记录消息发布
func RecordPublish(exchange, routingKey string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey).Inc()
}

// RecordConsume 记录消息消费结果与耗时
func RecordConsume(queue, result string, seconds float64) {
	InitMetrics()
	MessagesConsumedTotal.WithLabelValues(queue, result).Inc()
	MessageProcessingDuration.Observe(seconds)
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}
