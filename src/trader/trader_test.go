package trader

import (
	"context"
	"testing"
	"time"

	"ensemblebot/src/candle"
	"ensemblebot/src/ensemble"
	"ensemblebot/src/strategy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes ...float64) []*candle.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*candle.Candle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		candles[i] = &candle.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price, High: price, Low: price, Close: price,
			Volume: decimal.NewFromInt(1),
		}
	}
	return candles
}

func testParams(t *testing.T) *ensemble.ParameterSet {
	t.Helper()
	weights := make(map[string]decimal.Decimal, 6)
	for _, name := range strategy.Names() {
		weights[name] = decimal.NewFromInt(1)
	}
	params, err := ensemble.NewParameterSet(weights,
		decimal.NewFromFloat(0.5),
		decimal.NewFromFloat(0.0015),
		decimal.NewFromFloat(0.0005),
		decimal.NewFromFloat(0.0005))
	require.NoError(t, err)
	return params
}

func testTraderConfig() Config {
	return Config{
		Market:         "BTCUSDT",
		PriceTick:      decimal.NewFromFloat(0.01),
		MinOrderAmount: decimal.NewFromInt(10),
	}
}

// risingCloses trend/day/scalping三个策略共同触发买入
func risingCloses() []float64 {
	return []float64{100, 101.5, 103, 104.8, 106.5}
}

// fallingCloses 对称的卖出行情
func fallingCloses() []float64 {
	return []float64{106.5, 104.8, 103, 101.5, 100}
}

func TestDecideBuy(t *testing.T) {
	intent, err := Decide(context.Background(), candlesFromCloses(risingCloses()...), testParams(t),
		decimal.NewFromInt(10000), decimal.Zero, testTraderConfig())
	require.NoError(t, err)
	require.NotNil(t, intent)

	assert.Equal(t, "buy", intent.Side)
	assert.Equal(t, "limit", intent.OrderType)
	assert.Equal(t, "BTCUSDT", intent.Market)

	// 买单上浮aggressiveness并按tick向上取整：106.5*1.0015=106.659750 → 106.66
	assert.True(t, intent.Price.Equal(decimal.NewFromFloat(106.66)), "price %s", intent.Price)

	// 数量为手续费和缓冲留足余量后，成本不超过可用资金
	cost := intent.Price.Mul(intent.Quantity).
		Mul(decimal.NewFromFloat(1.001)) // fee_rate + fee_buffer
	assert.True(t, cost.LessThanOrEqual(decimal.NewFromInt(10000)), "cost %s", cost)
	assert.True(t, intent.Quantity.GreaterThan(decimal.Zero))
}

func TestDecideSell(t *testing.T) {
	intent, err := Decide(context.Background(), candlesFromCloses(fallingCloses()...), testParams(t),
		decimal.Zero, decimal.NewFromInt(2), testTraderConfig())
	require.NoError(t, err)
	require.NotNil(t, intent)

	assert.Equal(t, "sell", intent.Side)
	// 卖单下压并向下取整：100*0.9985=99.85
	assert.True(t, intent.Price.Equal(decimal.NewFromFloat(99.85)), "price %s", intent.Price)
	// 全仓卖出
	assert.True(t, intent.Quantity.Equal(decimal.NewFromInt(2)))
}

func TestDecideHold(t *testing.T) {
	// 平盘无信号，不下单
	intent, err := Decide(context.Background(), candlesFromCloses(100, 100, 100, 100, 100), testParams(t),
		decimal.NewFromInt(10000), decimal.NewFromInt(1), testTraderConfig())
	require.NoError(t, err)
	assert.Nil(t, intent)
}

func TestDecideGuards(t *testing.T) {
	t.Run("nil params", func(t *testing.T) {
		_, err := Decide(context.Background(), candlesFromCloses(risingCloses()...), nil,
			decimal.NewFromInt(10000), decimal.Zero, testTraderConfig())
		assert.Error(t, err)
	})

	t.Run("invalid price tick", func(t *testing.T) {
		cfg := testTraderConfig()
		cfg.PriceTick = decimal.Zero
		_, err := Decide(context.Background(), candlesFromCloses(risingCloses()...), testParams(t),
			decimal.NewFromInt(10000), decimal.Zero, cfg)
		assert.Error(t, err)
	})

	t.Run("too few candles", func(t *testing.T) {
		intent, err := Decide(context.Background(), candlesFromCloses(100, 101), testParams(t),
			decimal.NewFromInt(10000), decimal.Zero, testTraderConfig())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("buy with tiny quote balance", func(t *testing.T) {
		intent, err := Decide(context.Background(), candlesFromCloses(risingCloses()...), testParams(t),
			decimal.NewFromInt(5), decimal.Zero, testTraderConfig())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("sell with no position", func(t *testing.T) {
		intent, err := Decide(context.Background(), candlesFromCloses(fallingCloses()...), testParams(t),
			decimal.NewFromInt(10000), decimal.Zero, testTraderConfig())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("sell below min order value", func(t *testing.T) {
		// 0.05 * ~99.85 ≈ 5 USDT，低于最小下单金额
		intent, err := Decide(context.Background(), candlesFromCloses(fallingCloses()...), testParams(t),
			decimal.Zero, decimal.NewFromFloat(0.05), testTraderConfig())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})
}

func TestRoundToTick(t *testing.T) {
	tick := decimal.NewFromFloat(0.01)
	assert.True(t, roundToTickUp(decimal.NewFromFloat(106.6597), tick).Equal(decimal.NewFromFloat(106.66)))
	assert.True(t, roundToTickDown(decimal.NewFromFloat(106.6597), tick).Equal(decimal.NewFromFloat(106.65)))
	// 已经对齐的价格保持不变
	assert.True(t, roundToTickUp(decimal.NewFromFloat(106.66), tick).Equal(decimal.NewFromFloat(106.66)))
	assert.True(t, roundToTickDown(decimal.NewFromFloat(106.66), tick).Equal(decimal.NewFromFloat(106.66)))
}
