package candle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(n int, step time.Duration) []*Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*Candle, n)
	for i := 0; i < n; i++ {
		price := decimal.NewFromInt(int64(100 + i))
		candles[i] = &Candle{
			OpenTime: base.Add(time.Duration(i) * step),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   decimal.NewFromInt(1),
		}
	}
	return candles
}

func TestValidateSeries(t *testing.T) {
	t.Run("increasing", func(t *testing.T) {
		assert.NoError(t, ValidateSeries(makeSeries(5, time.Minute)))
	})

	t.Run("with gap", func(t *testing.T) {
		// 缺口是允许的，只要严格递增
		candles := makeSeries(5, time.Minute)
		candles[3].OpenTime = candles[3].OpenTime.Add(10 * time.Minute)
		candles[4].OpenTime = candles[4].OpenTime.Add(10 * time.Minute)
		assert.NoError(t, ValidateSeries(candles))
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		candles := makeSeries(3, time.Minute)
		candles[2].OpenTime = candles[1].OpenTime
		assert.Error(t, ValidateSeries(candles))
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, ValidateSeries(nil))
	})
}

func TestWindow(t *testing.T) {
	candles := makeSeries(10, time.Minute)

	t.Run("full window", func(t *testing.T) {
		w := Window(candles, 9, 5)
		require.Len(t, w, 5)
		assert.Equal(t, candles[5], w[0])
		assert.Equal(t, candles[9], w[4])
	})

	t.Run("short history", func(t *testing.T) {
		w := Window(candles, 2, 5)
		require.Len(t, w, 3)
		assert.Equal(t, candles[0], w[0])
	})

	t.Run("no lookahead", func(t *testing.T) {
		w := Window(candles, 4, 3)
		for _, c := range w {
			assert.False(t, c.OpenTime.After(candles[4].OpenTime))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Nil(t, Window(candles, 10, 5))
		assert.Nil(t, Window(candles, -1, 5))
		assert.Nil(t, Window(candles, 3, 0))
	})
}

func TestCloses(t *testing.T) {
	candles := makeSeries(3, time.Minute)
	closes := Closes(candles)
	require.Len(t, closes, 3)
	assert.True(t, closes[0].Equal(decimal.NewFromInt(100)))
	assert.True(t, closes[2].Equal(decimal.NewFromInt(102)))
}
