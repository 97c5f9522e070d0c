package backtest

import (
	"fmt"
	"time"

	"ensemblebot/src/candle"
	"ensemblebot/src/ensemble"
	"ensemblebot/src/strategy"

	"github.com/shopspring/decimal"
)

// 价格和数量的小数位数，与K线存储精度一致
const pricePrecision = 8

// Config 模拟器配置
type Config struct {
	InitialCash    decimal.Decimal // 初始资金
	Lookback       int             // 信号计算窗口（K线根数），<=0时取默认200
	MinOrderAmount decimal.Decimal // 最小下单金额（计价货币），低于该金额跳过下单
}

// DefaultLookback 默认信号窗口
const DefaultLookback = 200

// Fill 一笔模拟成交
type Fill struct {
	Timestamp time.Time       `json:"timestamp"`
	Side      string          `json:"side"` // "buy" or "sell"
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Fee       decimal.Decimal `json:"fee"`
}

// EquityPoint 权益曲线上的一个点
// Equity恒等于Cash + Position*MarkPrice，按构造保证
type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Cash      decimal.Decimal `json:"cash"`
	Position  decimal.Decimal `json:"position"`
	MarkPrice decimal.Decimal `json:"mark_price"`
	Equity    decimal.Decimal `json:"equity"`
}

// Ledger 一次模拟的完整结果：成交记录加权益曲线
// 模拟结束后只读
type Ledger struct {
	Fills       []*Fill       `json:"fills"`
	EquityCurve []EquityPoint `json:"equity_curve"`
}

// Run 在历史K线上确定性地重放集成决策
// 从InitialCash和零持仓出发，逐根K线计算信号向量和决策。
// 前strategy.Warmup()根是热身期，只记权益点不交易：
// 空仓遇到买入信号则全仓买入（按aggressiveness向下偏移的限价），
// 持仓遇到卖出信号则全部卖出；其余组合不动作。
// 每根K线处理完毕追加一个权益点，标记价取该根收盘价。
// 相同输入两次运行产生逐字节相同的结果。
func Run(candles []*candle.Candle, params *ensemble.ParameterSet, cfg Config) (*Ledger, error) {
	if params == nil {
		return nil, fmt.Errorf("parameter set is required")
	}
	if cfg.InitialCash.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("initial cash must be positive, got %s", cfg.InitialCash)
	}

	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	cash := cfg.InitialCash
	position := decimal.Zero

	ledger := &Ledger{
		Fills:       make([]*Fill, 0),
		EquityCurve: make([]EquityPoint, 0, len(candles)),
	}

	one := decimal.NewFromInt(1)
	// 买入数量预留手续费和缓冲：qty = cash / (price * (1 + fee_rate + fee_buffer))
	costFactor := one.Add(params.FeeRate).Add(params.FeeBuffer)

	warmup := strategy.Warmup()

	for i, current := range candles {
		// 热身期内不交易：部分策略还没有足够历史时信号缺席，
		// 集成得分会被短回看策略单方面拉动
		if i+1 < warmup {
			ledger.EquityCurve = append(ledger.EquityCurve, EquityPoint{
				Timestamp: current.OpenTime,
				Cash:      cash,
				Position:  position,
				MarkPrice: current.Close,
				Equity:    cash.Add(position.Mul(current.Close)),
			})
			continue
		}

		// 信号只用到当前时点（含）为止的K线，绝不前视
		window := candle.Window(candles, i, lookback)
		decision := ensemble.Evaluate(window, params)

		switch {
		case decision == ensemble.DecisionBuy && position.IsZero():
			// 限价向下偏移，模拟"挂在市价下方稍有利的位置"
			price := current.Close.Mul(one.Sub(params.Aggressiveness)).Round(pricePrecision)
			if price.GreaterThan(decimal.Zero) {
				quantity := cash.Div(price.Mul(costFactor)).RoundDown(pricePrecision)
				spend := price.Mul(quantity)
				if quantity.GreaterThan(decimal.Zero) && spend.GreaterThanOrEqual(cfg.MinOrderAmount) {
					fee := spend.Mul(params.FeeRate).Round(pricePrecision)
					cash = cash.Sub(spend).Sub(fee)
					position = quantity
					ledger.Fills = append(ledger.Fills, &Fill{
						Timestamp: current.OpenTime,
						Side:      "buy",
						Price:     price,
						Quantity:  quantity,
						Fee:       fee,
					})
				}
			}

		case decision == ensemble.DecisionSell && position.GreaterThan(decimal.Zero):
			price := current.Close.Mul(one.Add(params.Aggressiveness)).Round(pricePrecision)
			proceeds := price.Mul(position)
			if proceeds.GreaterThanOrEqual(cfg.MinOrderAmount) {
				fee := proceeds.Mul(params.FeeRate).Round(pricePrecision)
				cash = cash.Add(proceeds).Sub(fee)
				ledger.Fills = append(ledger.Fills, &Fill{
					Timestamp: current.OpenTime,
					Side:      "sell",
					Price:     price,
					Quantity:  position,
					Fee:       fee,
				})
				position = decimal.Zero
			}
		}

		equity := cash.Add(position.Mul(current.Close))
		ledger.EquityCurve = append(ledger.EquityCurve, EquityPoint{
			Timestamp: current.OpenTime,
			Cash:      cash,
			Position:  position,
			MarkPrice: current.Close,
			Equity:    equity,
		})
	}

	return ledger, nil
}
