package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	prices := []decimal.Decimal{
		decimal.NewFromInt(10),
		decimal.NewFromInt(20),
		decimal.NewFromInt(30),
		decimal.NewFromInt(40),
	}

	t.Run("full period", func(t *testing.T) {
		sma, err := SMA(prices, 4)
		require.NoError(t, err)
		assert.True(t, sma.Equal(decimal.NewFromInt(25)), "got %s", sma)
	})

	t.Run("tail only", func(t *testing.T) {
		// 只取最近2个价格
		sma, err := SMA(prices, 2)
		require.NoError(t, err)
		assert.True(t, sma.Equal(decimal.NewFromInt(35)), "got %s", sma)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := SMA(prices, 5)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := SMA(prices, 0)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}
