package trader

import (
	"context"
	"fmt"

	"ensemblebot/src/candle"
	"ensemblebot/src/ensemble"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// 下单数量的小数位数
const quantityPrecision = 8

// OrderIntent 一次下单意图
// 只描述"想以什么价格买卖多少"，真正下单和跟单由外部执行方完成
type OrderIntent struct {
	Market    string          `json:"market"`
	Side      string          `json:"side"` // "buy" or "sell"
	OrderType string          `json:"order_type"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Config 实盘决策配置
type Config struct {
	Market         string
	PriceTick      decimal.Decimal // 价格最小变动单位
	MinOrderAmount decimal.Decimal // 最小下单金额（计价货币）
}

// Decide 用最新K线和现役参数做一次实盘决策
// 返回nil表示本轮不下单（无信号、余额不足或金额太小），这是正常结果。
// 实盘挂单价与回测相反地穿越盘口：买单上浮、卖单下压aggressiveness，
// 以提升限价单的成交概率；价格按tick对不利方向取整
func Decide(ctx context.Context, candles []*candle.Candle, params *ensemble.ParameterSet,
	quoteBalance, baseBalance decimal.Decimal, cfg Config) (*OrderIntent, error) {

	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("Trader")

	if params == nil {
		return nil, fmt.Errorf("parameter set is required")
	}
	if cfg.PriceTick.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("price tick must be positive")
	}
	if len(candles) < 3 {
		logger.Info("not enough candles for a decision", "got", len(candles))
		return nil, nil
	}

	lastPrice := candles[len(candles)-1].Close
	decision := ensemble.Evaluate(candles, params)

	switch decision {
	case ensemble.DecisionBuy:
		return buyIntent(ctx, lastPrice, quoteBalance, params, cfg)
	case ensemble.DecisionSell:
		return sellIntent(ctx, lastPrice, baseBalance, params, cfg)
	default:
		return nil, nil
	}
}

// buyIntent 计算买入意图：可用资金扣除手续费和缓冲后全仓买入
func buyIntent(ctx context.Context, lastPrice, quoteBalance decimal.Decimal,
	params *ensemble.ParameterSet, cfg Config) (*OrderIntent, error) {

	_, logger := log.WithCtx(ctx)
	if quoteBalance.LessThanOrEqual(cfg.MinOrderAmount) {
		logger.Info("buy signal but quote balance too small", "balance", quoteBalance.String())
		return nil, nil
	}

	one := decimal.NewFromInt(1)
	targetPrice := roundToTickUp(lastPrice.Mul(one.Add(params.Aggressiveness)), cfg.PriceTick)

	effectiveUnitCost := targetPrice.Mul(one.Add(params.FeeRate).Add(params.FeeBuffer))
	if effectiveUnitCost.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	volume := quoteBalance.Div(effectiveUnitCost).RoundDown(quantityPrecision)
	if volume.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	if targetPrice.Mul(volume).LessThanOrEqual(cfg.MinOrderAmount) {
		logger.Info("buy skipped, order amount below minimum",
			"price", targetPrice.String(), "volume", volume.String())
		return nil, nil
	}

	return &OrderIntent{
		Market:    cfg.Market,
		Side:      "buy",
		OrderType: "limit",
		Price:     targetPrice,
		Quantity:  volume,
	}, nil
}

// sellIntent 计算卖出意图：持仓全部卖出
func sellIntent(ctx context.Context, lastPrice, baseBalance decimal.Decimal,
	params *ensemble.ParameterSet, cfg Config) (*OrderIntent, error) {

	_, logger := log.WithCtx(ctx)
	if baseBalance.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	one := decimal.NewFromInt(1)
	targetPrice := roundToTickDown(lastPrice.Mul(one.Sub(params.Aggressiveness)), cfg.PriceTick)
	if targetPrice.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	// 持仓市值低于最小下单金额时交易所会拒单，直接跳过
	if baseBalance.Mul(targetPrice).LessThanOrEqual(cfg.MinOrderAmount) {
		logger.Info("sell skipped, position value below minimum",
			"price", targetPrice.String(), "quantity", baseBalance.String())
		return nil, nil
	}

	return &OrderIntent{
		Market:    cfg.Market,
		Side:      "sell",
		OrderType: "limit",
		Price:     targetPrice,
		Quantity:  baseBalance,
	}, nil
}

// roundToTickUp 把价格上取整到tick的整数倍
func roundToTickUp(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Ceil().Mul(tick)
}

// roundToTickDown 把价格下取整到tick的整数倍
func roundToTickDown(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Floor().Mul(tick)
}
