package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, BorrowingsTotal)
	assert.NotNil(t, PaymentTransitionsTotal)
	assert.NotNil(t, CircuitBreakerState)
}

func TestRecordBorrowing(t *testing.T) {
	InitMetrics()
	before := counterVecValue(t, BorrowingsTotal, OpCreate, ResultSuccess)

	RecordBorrowing(OpCreate, ResultSuccess)
	RecordBorrowing(OpCreate, ResultSuccess)
	RecordBorrowing(OpCreate, ResultFailure)

	assert.Equal(t, before+2, counterVecValue(t, BorrowingsTotal, OpCreate, ResultSuccess))
}

func TestRecordPaymentTransition_Noop(t *testing.T) {
	InitMetrics()
	before := counterVecValue(t, PaymentTransitionsTotal, "PAID", "noop")

	RecordPaymentTransition("PAID", false)

	assert.Equal(t, before+1, counterVecValue(t, PaymentTransitionsTotal, "PAID", "noop"))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("payment-gateway", 1)

	var m dto.Metric
	require.NoError(t, CircuitBreakerState.WithLabelValues("payment-gateway").Write(&m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())
}

func TestGaugeIncDec(t *testing.T) {
	InitMetrics()
	HTTPRequestsInProgress.Set(0)

	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)

	var m dto.Metric
	require.NoError(t, HTTPRequestsInProgress.Write(&m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())
}

func TestObservePaymentGateway(t *testing.T) {
	ObservePaymentGateway("open_session", ResultSuccess, 0.2)

	var m dto.Metric
	h := PaymentGatewayDuration.WithLabelValues("open_session", ResultSuccess).(prometheus.Histogram)
	require.NoError(t, h.Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&m))
	return m.GetCounter().GetValue()
}
