package fee

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRentalCost(t *testing.T) {
	tests := []struct {
		name string
		days int
		fee  string
		want string
	}{
		{name: "same day is free", days: 0, fee: "0.30", want: "0.00"},
		{name: "one day", days: 1, fee: "0.30", want: "0.30"},
		{name: "seven days", days: 7, fee: "0.30", want: "2.10"},
		{name: "linear in days", days: 14, fee: "0.30", want: "4.20"},
		{name: "zero fee", days: 5, fee: "0", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RentalCost(day0, dayN(tt.days), money(tt.fee))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestRentalCost_ReturnBeforeBorrow(t *testing.T) {
	_, err := RentalCost(dayN(3), dayN(2), money("1.00"))
	assert.ErrorIs(t, err, ErrNegativePeriod)
}

func TestRentalCost_IgnoresTimeOfDay(t *testing.T) {
	borrow := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	ret := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	got, err := RentalCost(borrow, ret, money("0.30"))
	require.NoError(t, err)
	assert.Equal(t, "0.30", got.StringFixed(2))
}

func TestRentalCost_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("时区数据不可用")
	}
	// 2024-03-10 美东进入夏令时，当天只有23小时
	borrow := time.Date(2024, 3, 9, 12, 0, 0, 0, ny)
	ret := time.Date(2024, 3, 11, 12, 0, 0, 0, ny)

	assert.Equal(t, int64(2), Days(borrow, ret))
}

// 四舍五入规则：half away from zero，0.005 → 0.01（不是银行家舍入的 0.00）
func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, "0.01", Round(money("0.005")).StringFixed(2))
	assert.Equal(t, "0.03", Round(money("0.025")).StringFixed(2))
	assert.Equal(t, "0.01", Round(money("0.0149")).StringFixed(2))

	got, err := RentalCost(day0, dayN(3), money("0.335"))
	require.NoError(t, err)
	assert.Equal(t, "1.01", got.StringFixed(2)) // 1.005 → 1.01
}

func TestLateFine(t *testing.T) {
	tests := []struct {
		name     string
		expected int
		actual   int
		fee      string
		want     string
	}{
		{name: "on time", expected: 5, actual: 5, fee: "0.30", want: "0.00"},
		{name: "early", expected: 5, actual: 3, fee: "0.30", want: "0.00"},
		{name: "two days late", expected: 5, actual: 7, fee: "0.30", want: "1.20"},
		{name: "one day late", expected: 5, actual: 6, fee: "1.25", want: "2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LateFine(dayN(tt.expected), dayN(tt.actual), money(tt.fee), FineMultiplier)
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.False(t, got.IsNegative())
		})
	}
}

func TestLateFine_CustomMultiplier(t *testing.T) {
	got := LateFine(dayN(1), dayN(4), money("0.50"), 3)
	assert.Equal(t, "4.50", got.StringFixed(2))

	assert.True(t, LateFine(dayN(1), dayN(4), money("0.50"), 0).IsZero())
}

// 场景：日租金0.30，第0天借，预计第5天还，第7天归还
func TestCompute_LateReturnScenario(t *testing.T) {
	charge, err := Compute(day0, dayN(5), dayN(7), money("0.30"))
	require.NoError(t, err)

	assert.Equal(t, "2.10", charge.Rental.StringFixed(2))
	assert.Equal(t, "1.20", charge.Fine.StringFixed(2))
	assert.Equal(t, "3.30", charge.Total.StringFixed(2))
	assert.True(t, charge.HasFine())
}

func TestCompute_OnTime(t *testing.T) {
	charge, err := Compute(day0, dayN(5), dayN(4), money("0.30"))
	require.NoError(t, err)

	assert.Equal(t, "1.20", charge.Total.StringFixed(2))
	assert.False(t, charge.HasFine())
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2024, 3, 1, 1, 30, 0, 0, loc)

	got := DateOf(in)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
