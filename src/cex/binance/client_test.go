package binance

import (
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("key", "secret", "https://example.com")
	require.NotNil(t, client)
	assert.Equal(t, "https://example.com", client.client.BaseURL)

	// 空BaseURL保留SDK默认地址
	client = NewClient("key", "secret", "")
	assert.NotEmpty(t, client.client.BaseURL)
}

func TestConvertKline(t *testing.T) {
	kline := &binance.Kline{
		OpenTime:         1704067200000, // 2024-01-01 00:00:00 UTC
		CloseTime:        1704067259999,
		Open:             "42000.12345678",
		High:             "42100.5",
		Low:              "41900.25",
		Close:            "42050.87654321",
		Volume:           "12.34567890",
		QuoteAssetVolume: "519000.5",
	}

	c := convertKline(kline)
	assert.Equal(t, int64(1704067200), c.OpenTime.Unix())
	assert.Equal(t, "UTC", c.OpenTime.Location().String())
	assert.True(t, c.Open.Equal(decimal.RequireFromString("42000.12345678")))
	assert.True(t, c.Close.Equal(decimal.RequireFromString("42050.87654321")))
	assert.True(t, c.Volume.Equal(decimal.RequireFromString("12.3456789")))
	assert.True(t, c.QuoteVolume.Equal(decimal.RequireFromString("519000.5")))
}
