package strategy

import (
	"testing"
	"time"

	"ensemblebot/src/candle"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// candlesFromCloses 用收盘价序列构造K线（高低价与收盘价相同）
func candlesFromCloses(closes ...float64) []*candle.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*candle.Candle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		candles[i] = &candle.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   decimal.NewFromInt(1),
		}
	}
	return candles
}

// flatCandles 生成n根价格完全相同的K线
func flatCandles(n int, price float64) []*candle.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return candlesFromCloses(closes...)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, SignalBuy, Trend(candlesFromCloses(100, 101)))
	assert.Equal(t, SignalSell, Trend(candlesFromCloses(101, 100)))
	assert.Equal(t, SignalHold, Trend(candlesFromCloses(100, 100)))
	assert.Equal(t, SignalHold, Trend(candlesFromCloses(100)), "insufficient history")
}

func TestMomentum(t *testing.T) {
	t.Run("up vs 5 candles ago", func(t *testing.T) {
		// 与5根前比较：101 > 100
		assert.Equal(t, SignalBuy, Momentum(candlesFromCloses(100, 99, 98, 97, 96, 101)))
	})

	t.Run("down vs 5 candles ago", func(t *testing.T) {
		assert.Equal(t, SignalSell, Momentum(candlesFromCloses(100, 105, 105, 105, 105, 99)))
	})

	t.Run("equal", func(t *testing.T) {
		assert.Equal(t, SignalHold, Momentum(candlesFromCloses(100, 99, 98, 97, 96, 100)))
	})

	t.Run("insufficient history", func(t *testing.T) {
		assert.Equal(t, SignalHold, Momentum(candlesFromCloses(100, 101, 102, 103, 104)))
	})
}

func TestSwing(t *testing.T) {
	t.Run("short above long", func(t *testing.T) {
		// 前15根100，后5根110：SMA5=110 > SMA20=102.5
		closes := make([]float64, 20)
		for i := 0; i < 15; i++ {
			closes[i] = 100
		}
		for i := 15; i < 20; i++ {
			closes[i] = 110
		}
		assert.Equal(t, SignalBuy, Swing(candlesFromCloses(closes...)))
	})

	t.Run("short below long", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := 0; i < 15; i++ {
			closes[i] = 110
		}
		for i := 15; i < 20; i++ {
			closes[i] = 100
		}
		assert.Equal(t, SignalSell, Swing(candlesFromCloses(closes...)))
	})

	t.Run("flat", func(t *testing.T) {
		assert.Equal(t, SignalHold, Swing(flatCandles(20, 100)))
	})

	t.Run("insufficient history", func(t *testing.T) {
		assert.Equal(t, SignalHold, Swing(flatCandles(19, 100)))
	})
}

func TestScalping(t *testing.T) {
	t.Run("above take ratio", func(t *testing.T) {
		// +0.1% 恰好触发
		assert.Equal(t, SignalBuy, Scalping(candlesFromCloses(100000, 100100)))
	})

	t.Run("below stop ratio", func(t *testing.T) {
		assert.Equal(t, SignalSell, Scalping(candlesFromCloses(100000, 99900)))
	})

	t.Run("inside band", func(t *testing.T) {
		assert.Equal(t, SignalHold, Scalping(candlesFromCloses(100000, 100050)))
		assert.Equal(t, SignalHold, Scalping(candlesFromCloses(100000, 99950)))
	})

	t.Run("insufficient history", func(t *testing.T) {
		assert.Equal(t, SignalHold, Scalping(candlesFromCloses(100)))
	})
}

func TestDayMatchesTrend(t *testing.T) {
	// Day与Trend是同一规则的两个独立实例（面向不同K线粒度）
	// 此测试固化两者在相同窗口上必须一致；若未来分化，需要有意识地改掉它
	windows := [][]*candle.Candle{
		candlesFromCloses(100, 101),
		candlesFromCloses(101, 100),
		candlesFromCloses(100, 100),
		flatCandles(1, 100),
		flatCandles(25, 100),
	}
	for _, w := range windows {
		assert.Equal(t, Trend(w), Day(w))
	}
}

func TestPriceAction(t *testing.T) {
	t.Run("breakout above prior highs", func(t *testing.T) {
		closes := make([]float64, 21)
		for i := 0; i < 20; i++ {
			closes[i] = 100
		}
		closes[20] = 101
		assert.Equal(t, SignalBuy, PriceAction(candlesFromCloses(closes...)))
	})

	t.Run("breakdown below prior lows", func(t *testing.T) {
		closes := make([]float64, 21)
		for i := 0; i < 20; i++ {
			closes[i] = 100
		}
		closes[20] = 99
		assert.Equal(t, SignalSell, PriceAction(candlesFromCloses(closes...)))
	})

	t.Run("inside range", func(t *testing.T) {
		candles := candlesFromCloses(make([]float64, 21)...)
		for i := 0; i < 21; i++ {
			candles[i].Close = decimal.NewFromInt(100)
			candles[i].High = decimal.NewFromInt(105)
			candles[i].Low = decimal.NewFromInt(95)
		}
		assert.Equal(t, SignalHold, PriceAction(candles))
	})

	t.Run("insufficient history", func(t *testing.T) {
		assert.Equal(t, SignalHold, PriceAction(flatCandles(20, 100)))
	})

	t.Run("custom lookback", func(t *testing.T) {
		assert.Equal(t, SignalBuy, PriceActionN(candlesFromCloses(100, 100, 101), 2))
		assert.Equal(t, SignalHold, PriceActionN(candlesFromCloses(100, 100, 101), 0))
	})
}

func TestShortWindowsAreNeutral(t *testing.T) {
	// 任何策略在历史不足时都必须返回0而不是报错
	for name, fn := range Registry() {
		for n := 0; n <= 1; n++ {
			assert.Equal(t, SignalHold, fn(flatCandles(n, 100)), "strategy %s with %d candles", name, n)
		}
	}
}

func TestEvaluate(t *testing.T) {
	vector := Evaluate(flatCandles(21, 100))
	require.Len(t, vector, 6)
	for _, name := range Names() {
		assert.Equal(t, SignalHold, vector[name], "strategy %s on flat series", name)
	}
}
