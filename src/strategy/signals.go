package strategy

import (
	"ensemblebot/src/candle"
	"ensemblebot/src/indicators"

	"github.com/shopspring/decimal"
)

// 信号值常量
const (
	SignalSell = -1
	SignalHold = 0
	SignalBuy  = 1
)

// 策略名称
// 固定六个策略，权重和信号都以此为键
const (
	NameTrend       = "trend"
	NameMomentum    = "momentum"
	NameSwing       = "swing"
	NameScalping    = "scalping"
	NameDay         = "day"
	NamePriceAction = "price_action"
)

// Names 按固定顺序返回全部策略名称
// 顺序固定是为了让权重网格和参数搜索结果可复现
func Names() []string {
	return []string{NameTrend, NameMomentum, NameSwing, NameScalping, NameDay, NamePriceAction}
}

// SignalFunc 信号函数签名
// 输入以当前时点结尾的K线窗口，输出-1/0/+1
// 必须是纯函数：参数搜索会在重叠窗口上反复调用，结果必须逐位可复现
type SignalFunc func(window []*candle.Candle) int

// SignalVector 每个策略在同一时点的信号值
type SignalVector map[string]int

// Registry 返回策略名称到信号函数的映射
func Registry() map[string]SignalFunc {
	return map[string]SignalFunc{
		NameTrend:       Trend,
		NameMomentum:    Momentum,
		NameSwing:       Swing,
		NameScalping:    Scalping,
		NameDay:         Day,
		NamePriceAction: PriceAction,
	}
}

// Evaluate 计算窗口末尾时点的完整信号向量
func Evaluate(window []*candle.Candle) SignalVector {
	vector := make(SignalVector, 6)
	for name, fn := range Registry() {
		vector[name] = fn(window)
	}
	return vector
}

// Trend 趋势策略：当前收盘价与上一根收盘价比较
func Trend(window []*candle.Candle) int {
	if len(window) < 2 {
		return SignalHold
	}
	last := window[len(window)-1].Close
	prev := window[len(window)-2].Close
	return sign(last.Sub(prev))
}

// Momentum 动量策略：当前收盘价与5根前收盘价比较
func Momentum(window []*candle.Candle) int {
	const lookback = 6
	if len(window) < lookback {
		return SignalHold
	}
	last := window[len(window)-1].Close
	ref := window[len(window)-lookback].Close
	return sign(last.Sub(ref))
}

// Swing 波段策略：5周期均线与20周期均线的金叉/死叉
func Swing(window []*candle.Candle) int {
	const (
		shortPeriod = 5
		longPeriod  = 20
	)
	if len(window) < longPeriod {
		return SignalHold
	}
	closes := candle.Closes(window)
	shortSMA, err := indicators.SMA(closes, shortPeriod)
	if err != nil {
		return SignalHold
	}
	longSMA, err := indicators.SMA(closes, longPeriod)
	if err != nil {
		return SignalHold
	}
	return sign(shortSMA.Sub(longSMA))
}

// scalpingRatio 剥头皮策略的单根涨跌幅阈值（0.1%）
var scalpingRatio = decimal.NewFromFloat(0.001)

// Scalping 剥头皮策略：单根K线涨跌幅超过0.1%才给出信号
func Scalping(window []*candle.Candle) int {
	if len(window) < 2 {
		return SignalHold
	}
	last := window[len(window)-1].Close
	prev := window[len(window)-2].Close
	if prev.LessThanOrEqual(decimal.Zero) {
		return SignalHold
	}
	change := last.Sub(prev).Div(prev)
	if change.GreaterThanOrEqual(scalpingRatio) {
		return SignalBuy
	}
	if change.LessThanOrEqual(scalpingRatio.Neg()) {
		return SignalSell
	}
	return SignalHold
}

// Day 日内策略：规则与Trend相同，但作为独立策略注册
// 上游系统用它承接不同时间粒度的K线，这里保留两个独立实例而不合并
func Day(window []*candle.Candle) int {
	if len(window) < 2 {
		return SignalHold
	}
	last := window[len(window)-1].Close
	prev := window[len(window)-2].Close
	return sign(last.Sub(prev))
}

// PriceActionLookback 价格行为策略默认回看根数
const PriceActionLookback = 20

// Warmup 全部策略都具备足够历史所需的最少K线根数
// 以回看最长的价格行为策略为准：前20根加当前一根
func Warmup() int {
	return PriceActionLookback + 1
}

// PriceAction 价格行为策略：收盘价突破前N根最高价/最低价
func PriceAction(window []*candle.Candle) int {
	return PriceActionN(window, PriceActionLookback)
}

// PriceActionN 可配置回看根数的价格行为策略
func PriceActionN(window []*candle.Candle, lookback int) int {
	if lookback < 1 || len(window) < lookback+1 {
		return SignalHold
	}
	last := window[len(window)-1].Close
	prior := window[len(window)-1-lookback : len(window)-1]

	prevHigh := prior[0].High
	prevLow := prior[0].Low
	for _, c := range prior[1:] {
		if c.High.GreaterThan(prevHigh) {
			prevHigh = c.High
		}
		if c.Low.LessThan(prevLow) {
			prevLow = c.Low
		}
	}

	if last.GreaterThan(prevHigh) {
		return SignalBuy
	}
	if last.LessThan(prevLow) {
		return SignalSell
	}
	return SignalHold
}

// sign 符号函数：正数+1，负数-1，零0
func sign(d decimal.Decimal) int {
	switch d.Sign() {
	case 1:
		return SignalBuy
	case -1:
		return SignalSell
	default:
		return SignalHold
	}
}
