package indicators

import (
	"github.com/shopspring/decimal"
)

// SMA 计算序列末尾period个价格的简单移动平均
// 数据不足时返回ErrInsufficientData
func SMA(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, ErrInvalidPeriod
	}
	if len(prices) < period {
		return decimal.Zero, ErrInsufficientData
	}

	recent := prices[len(prices)-period:]
	sum := decimal.Zero
	for _, price := range recent {
		sum = sum.Add(price)
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}
