package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

// Metrics 回测绩效指标
// 全部是权益曲线/成交记录的纯归约，空输入返回零值而不是报错
type Metrics struct {
	TotalReturn decimal.Decimal `json:"total_return"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
	Sharpe      decimal.Decimal `json:"sharpe"`
	WinRate     decimal.Decimal `json:"win_rate"`
	TradeCount  int             `json:"trade_count"`
}

// Calculate 从成交记录和权益曲线计算绩效指标
func Calculate(ledger *Ledger) *Metrics {
	metrics := &Metrics{
		TotalReturn: decimal.Zero,
		MaxDrawdown: decimal.Zero,
		Sharpe:      decimal.Zero,
		WinRate:     decimal.Zero,
	}
	if ledger == nil {
		return metrics
	}

	metrics.TradeCount = len(ledger.Fills)
	metrics.TotalReturn = totalReturn(ledger.EquityCurve)
	metrics.MaxDrawdown = maxDrawdown(ledger.EquityCurve)
	metrics.Sharpe = sharpeRatio(ledger.EquityCurve)
	metrics.WinRate = winRate(ledger.Fills)
	return metrics
}

// totalReturn 总收益率 = (末期权益 - 初期权益) / 初期权益
func totalReturn(curve []EquityPoint) decimal.Decimal {
	if len(curve) < 2 {
		return decimal.Zero
	}
	first := curve[0].Equity
	if first.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return curve[len(curve)-1].Equity.Sub(first).Div(first)
}

// maxDrawdown 最大回撤：历史峰值到谷底的最大百分比跌幅
// 权益不减时为0；取值范围[0, 1]
func maxDrawdown(curve []EquityPoint) decimal.Decimal {
	maxDD := decimal.Zero
	if len(curve) == 0 {
		return maxDD
	}

	peak := curve[0].Equity
	for _, point := range curve {
		if point.Equity.GreaterThan(peak) {
			peak = point.Equity
		}
		if peak.GreaterThan(decimal.Zero) {
			dd := peak.Sub(point.Equity).Div(peak)
			if dd.GreaterThan(maxDD) {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio 夏普比率：逐步收益率的均值除以样本标准差
// 标准差为0（曲线平坦或点数不足）时定义为0，避免除零
func sharpeRatio(curve []EquityPoint) decimal.Decimal {
	returns := stepReturns(curve)
	if len(returns) < 2 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, r := range returns {
		sum = sum.Add(r)
	}
	count := decimal.NewFromInt(int64(len(returns)))
	mean := sum.Div(count)

	varianceSum := decimal.Zero
	for _, r := range returns {
		diff := r.Sub(mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	variance := varianceSum.Div(decimal.NewFromInt(int64(len(returns) - 1)))

	// decimal没有开方，借道float64再转回，与存储精度相比误差可忽略
	varianceFloat, _ := variance.Float64()
	std := decimal.NewFromFloat(math.Sqrt(varianceFloat))
	if std.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return mean.Div(std)
}

// stepReturns 相邻权益点之间的百分比变化序列
func stepReturns(curve []EquityPoint) []decimal.Decimal {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]decimal.Decimal, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev.LessThanOrEqual(decimal.Zero) {
			returns = append(returns, decimal.Zero)
			continue
		}
		returns = append(returns, curve[i].Equity.Sub(prev).Div(prev))
	}
	return returns
}

// winRate 胜率：已平仓回合（买入→卖出配对）中实现盈利的比例
// 没有完成任何回合时为0
func winRate(fills []*Fill) decimal.Decimal {
	var entry *Fill
	rounds := 0
	wins := 0

	for _, fill := range fills {
		switch fill.Side {
		case "buy":
			entry = fill
		case "sell":
			if entry == nil {
				continue
			}
			rounds++
			cost := entry.Price.Mul(fill.Quantity).Add(entry.Fee)
			proceeds := fill.Price.Mul(fill.Quantity).Sub(fill.Fee)
			if proceeds.GreaterThan(cost) {
				wins++
			}
			entry = nil
		}
	}

	if rounds == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(rounds)))
}
