package timeframes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDuration(t *testing.T) {
	tests := []struct {
		tf       Timeframe
		expected time.Duration
	}{
		{Timeframe1m, time.Minute},
		{Timeframe3m, 3 * time.Minute},
		{Timeframe5m, 5 * time.Minute},
		{Timeframe15m, 15 * time.Minute},
		{Timeframe30m, 30 * time.Minute},
		{Timeframe1h, time.Hour},
		{Timeframe4h, 4 * time.Hour},
		{Timeframe1d, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.tf.String(), func(t *testing.T) {
			d, err := tt.tf.GetDuration()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := Timeframe("7m").GetDuration()
		assert.Error(t, err)
	})
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("1m")
	require.NoError(t, err)
	assert.Equal(t, Timeframe1m, tf)

	_, err = ParseTimeframe("2w")
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	for _, tf := range GetAllTimeframes() {
		assert.True(t, tf.IsValid(), "timeframe %s", tf)
	}
	assert.False(t, Timeframe("").IsValid())
}

func TestGetBinanceInterval(t *testing.T) {
	assert.Equal(t, "1m", Timeframe1m.GetBinanceInterval())
	assert.Equal(t, "1d", Timeframe1d.GetBinanceInterval())
}

func TestCandlesInMonths(t *testing.T) {
	t.Run("3 months of 1m candles", func(t *testing.T) {
		n, err := Timeframe1m.CandlesInMonths(3)
		require.NoError(t, err)
		// 3 * 30 * 24 * 60
		assert.Equal(t, 129600, n)
	})

	t.Run("1 month of 1d candles", func(t *testing.T) {
		n, err := Timeframe1d.CandlesInMonths(1)
		require.NoError(t, err)
		assert.Equal(t, 30, n)
	})

	t.Run("invalid months", func(t *testing.T) {
		_, err := Timeframe1m.CandlesInMonths(0)
		assert.Error(t, err)
	})

	t.Run("invalid timeframe", func(t *testing.T) {
		_, err := Timeframe("9m").CandlesInMonths(1)
		assert.Error(t, err)
	})
}
