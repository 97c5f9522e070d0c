package config

import (
	"testing"

	"ensemblebot/src/strategy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := *AppConfig
	return &cfg
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("empty market", func(t *testing.T) {
		cfg := validConfig()
		cfg.Trading.Market = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid timeframe", func(t *testing.T) {
		cfg := validConfig()
		cfg.Trading.Timeframe = "7m"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive threshold", func(t *testing.T) {
		cfg := validConfig()
		cfg.Trading.Threshold = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative fee", func(t *testing.T) {
		cfg := validConfig()
		cfg.Trading.FeeRate = -0.001
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad grid step", func(t *testing.T) {
		cfg := validConfig()
		cfg.Optimizer.GridStep = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero workers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Optimizer.Workers = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestWeightsToMap(t *testing.T) {
	weights := WeightsConfig{
		Trend: 0.5, Momentum: 0.1, Swing: 0.1,
		Scalping: 0.1, Day: 0.1, PriceAction: 0.1,
	}
	m := weights.ToMap()
	require.Len(t, m, 6)
	assert.True(t, m[strategy.NameTrend].Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, m[strategy.NamePriceAction].Equal(decimal.NewFromFloat(0.1)))
}

func TestDefaultParameterSet(t *testing.T) {
	params, err := validConfig().DefaultParameterSet()
	require.NoError(t, err)
	assert.True(t, params.Threshold.Equal(decimal.NewFromFloat(0.2)))
	assert.Len(t, params.Weights, 6)

	// 非法阈值在构造时即报错
	cfg := validConfig()
	cfg.Trading.Threshold = -1
	_, err = cfg.DefaultParameterSet()
	assert.Error(t, err)
}

func TestGetTimeframe(t *testing.T) {
	tf, err := validConfig().GetTimeframe()
	require.NoError(t, err)
	assert.Equal(t, "1m", tf.String())
}
