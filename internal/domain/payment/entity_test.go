package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/query"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("PAID")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("paid")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTypeFor(t *testing.T) {
	assert.Equal(t, TypeFine, TypeFor(true))
	assert.Equal(t, TypeRental, TypeFor(false))
	// 租金支付对外的取值是PAYMENT
	assert.Equal(t, Type("PAYMENT"), TypeRental)
	assert.Equal(t, Type("FINE"), TypeFine)
}

func TestNewPayment(t *testing.T) {
	session := &CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}

	p, err := NewPayment(3, TypeFine, decimal.RequireFromString("3.30"), session)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "3.30", p.MoneyToPay.StringFixed(2))
	assert.Equal(t, "cs_1", p.SessionID)

	_, err = NewPayment(3, TypeFine, decimal.NewFromInt(-1), session)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(3, TypeFine, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestPayment_TransitionTo(t *testing.T) {
	p := &Payment{Status: StatusPending}

	applied, err := p.TransitionTo(StatusPaid)
	require.NoError(t, err)
	assert.True(t, applied)

	// 迟到的取消通知不影响已支付的记录
	applied, err = p.TransitionTo(StatusCancelled)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, StatusPaid, p.Status)

	applied, err = p.TransitionTo(StatusPaid)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = (&Payment{Status: StatusPending}).TransitionTo(StatusPending)
	assert.NoError(t, err)
}

func TestPayment_VisibleTo(t *testing.T) {
	p := &Payment{OwnerID: 4}
	assert.True(t, p.VisibleTo(query.Principal{UserID: 4}))
	assert.False(t, p.VisibleTo(query.Principal{UserID: 5}))
	assert.True(t, p.VisibleTo(query.Principal{UserID: 5, IsAdmin: true}))
}
