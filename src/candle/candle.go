package candle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle 单根K线数据
// 价格和数量统一使用8位小数精度的decimal，与交易所返回精度一致
type Candle struct {
	OpenTime    time.Time       `json:"open_time"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      decimal.Decimal `json:"volume"`
	QuoteVolume decimal.Decimal `json:"quote_volume"`
}

// ValidateSeries 校验K线序列
// 时间戳必须严格递增；允许缺口（停盘、采集中断），但不允许重复或乱序
func ValidateSeries(candles []*Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			return fmt.Errorf("candle series not strictly increasing at index %d: %s >= %s",
				i, candles[i-1].OpenTime.Format(time.RFC3339), candles[i].OpenTime.Format(time.RFC3339))
		}
	}
	return nil
}

// Window 返回以end（含）结尾、最长size根K线的窗口
// 历史不足时返回能拿到的全部，绝不包含end之后的数据
func Window(candles []*Candle, end, size int) []*Candle {
	if end < 0 || end >= len(candles) || size <= 0 {
		return nil
	}
	start := end + 1 - size
	if start < 0 {
		start = 0
	}
	return candles[start : end+1]
}

// Closes 提取收盘价序列
func Closes(candles []*Candle) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
