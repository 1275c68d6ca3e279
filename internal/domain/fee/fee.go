// Package fee 借阅费用计算：租金与逾期罚金
//
// 全部为纯函数。日期按自然日计算（只看年月日，忽略时分秒与时区偏移），
// 金额保留2位小数，四舍五入（half away from zero，对非负金额即 half-up）。
package fee

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// FineMultiplier 逾期罚金倍数：每逾期一天按日租金的2倍收取
const FineMultiplier int64 = 2

// Places 金额小数位
const Places int32 = 2

// ErrNegativePeriod 结束日期早于开始日期
var ErrNegativePeriod = apperrors.New(apperrors.ErrCodeInvalidReturnDate, "归还日期不能早于借阅日期")

// Charge 一次归还产生的费用明细
type Charge struct {
	Rental decimal.Decimal // 租金
	Fine   decimal.Decimal // 逾期罚金
	Total  decimal.Decimal // 合计
}

// HasFine 是否包含罚金
func (c Charge) HasFine() bool {
	return c.Fine.IsPositive()
}

// DateOf 截取日期部分，统一为 UTC 00:00
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days from 到 to 相差的自然日数，to 早于 from 时为负数
func Days(from, to time.Time) int64 {
	// 两端都是UTC零点，差值必为整天，不受夏令时影响
	return int64(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// Round 金额四舍五入到分
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// RentalCost 租金 = 借阅天数 × 日租金
// 同一天借还为 0.00；归还早于借阅返回 ErrNegativePeriod
func RentalCost(borrowDate, returnDate time.Time, dailyFee decimal.Decimal) (decimal.Decimal, error) {
	days := Days(borrowDate, returnDate)
	if days < 0 {
		return decimal.Zero, ErrNegativePeriod
	}
	return Round(dailyFee.Mul(decimal.NewFromInt(days))), nil
}

// LateFine 逾期罚金 = 逾期天数 × 日租金 × multiplier
// 未逾期（actual <= expected）时恰好为 0.00，结果不会为负
func LateFine(expected, actual time.Time, dailyFee decimal.Decimal, multiplier int64) decimal.Decimal {
	overdue := Days(expected, actual)
	if overdue <= 0 || multiplier <= 0 || dailyFee.IsNegative() {
		return decimal.Zero
	}
	return Round(dailyFee.Mul(decimal.NewFromInt(overdue)).Mul(decimal.NewFromInt(multiplier)))
}

// Compute 计算一次归还的完整费用（默认罚金倍数）
func Compute(borrowDate, expected, actual time.Time, dailyFee decimal.Decimal) (Charge, error) {
	rental, err := RentalCost(borrowDate, actual, dailyFee)
	if err != nil {
		return Charge{}, err
	}
	fine := LateFine(expected, actual, dailyFee, FineMultiplier)
	return Charge{
		Rental: rental,
		Fine:   fine,
		Total:  rental.Add(fine),
	}, nil
}
