package ensemble

import (
	"ensemblebot/src/candle"
	"ensemblebot/src/strategy"

	"github.com/shopspring/decimal"
)

// Decision 交易决策
type Decision string

const (
	DecisionBuy  Decision = "buy"
	DecisionSell Decision = "sell"
	DecisionHold Decision = "hold"
)

// Score 计算加权信号得分
// score = Σ weights[s] * signal[s]，权重表或信号向量中缺失的策略按0处理
func Score(vector strategy.SignalVector, weights map[string]decimal.Decimal) decimal.Decimal {
	score := decimal.Zero
	for _, name := range strategy.Names() {
		w, ok := weights[name]
		if !ok {
			continue
		}
		sig, ok := vector[name]
		if !ok || sig == 0 {
			continue
		}
		score = score.Add(w.Mul(decimal.NewFromInt(int64(sig))))
	}
	return score
}

// Decide 根据得分和阈值给出决策
// 阈值对称作用于买卖两个方向：score >= threshold 买入，score <= -threshold 卖出
// 得分恰好为0永远持有，即使阈值被调成0
func Decide(score, threshold decimal.Decimal) Decision {
	if score.IsZero() {
		return DecisionHold
	}
	if score.GreaterThanOrEqual(threshold) {
		return DecisionBuy
	}
	if score.LessThanOrEqual(threshold.Neg()) {
		return DecisionSell
	}
	return DecisionHold
}

// Evaluate 对窗口末尾时点完成一次完整决策
// 纯函数，每根新K线调用一次，也被回测引擎逐根调用
func Evaluate(window []*candle.Candle, params *ParameterSet) Decision {
	vector := strategy.Evaluate(window)
	return Decide(Score(vector, params.Weights), params.Threshold)
}
