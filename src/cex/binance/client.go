package binance

import (
	"context"
	"fmt"
	"time"

	"ensemblebot/src/candle"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Client Binance客户端
// 负责K线采集和限价下单，是核心引擎之外的外部协作方
type Client struct {
	client *binance.Client
}

// NewClient 创建Binance客户端
func NewClient(apiKey, secretKey, baseURL string) *Client {
	binanceClient := binance.NewClient(apiKey, secretKey)
	if baseURL != "" {
		binanceClient.BaseURL = baseURL
	}
	return &Client{client: binanceClient}
}

// Ping 测试与交易所的连通性
func (c *Client) Ping(ctx context.Context) error {
	return c.client.NewPingService().Do(ctx)
}

// GetServerTime 获取交易所服务器时间
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	millis, err := c.client.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get server time: %w", err)
	}
	return time.UnixMilli(millis).UTC(), nil
}

// convertKline 转换Binance K线为内部格式
func convertKline(kline *binance.Kline) *candle.Candle {
	open, _ := decimal.NewFromString(kline.Open)
	high, _ := decimal.NewFromString(kline.High)
	low, _ := decimal.NewFromString(kline.Low)
	close, _ := decimal.NewFromString(kline.Close)
	volume, _ := decimal.NewFromString(kline.Volume)
	quoteVolume, _ := decimal.NewFromString(kline.QuoteAssetVolume)

	return &candle.Candle{
		OpenTime:    time.UnixMilli(kline.OpenTime).UTC(),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       close,
		Volume:      volume,
		QuoteVolume: quoteVolume,
	}
}

// GetCandles 获取最近limit根K线
func (c *Client) GetCandles(ctx context.Context, market, interval string, limit int) ([]*candle.Candle, error) {
	klines, err := c.client.NewKlinesService().
		Symbol(market).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines from Binance: %w", err)
	}

	candles := make([]*candle.Candle, len(klines))
	for i, kline := range klines {
		candles[i] = convertKline(kline)
	}
	if err := candle.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// GetCandlesSince 分批获取start之后的全部K线，克服单次1000条的限制
func (c *Client) GetCandlesSince(ctx context.Context, market, interval string, start time.Time) ([]*candle.Candle, error) {
	const batchLimit = 1000

	var all []*candle.Candle
	currentStart := start

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(market).
			Interval(interval).
			StartTime(currentStart.UnixMilli()).
			Limit(batchLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get klines from Binance: %w", err)
		}
		if len(klines) == 0 {
			break
		}

		for _, kline := range klines {
			all = append(all, convertKline(kline))
		}

		// 下一批从最后一根的收盘时间之后开始
		last := klines[len(klines)-1]
		currentStart = time.UnixMilli(last.CloseTime).Add(time.Millisecond)

		if len(klines) < batchLimit {
			break
		}
	}

	if err := candle.ValidateSeries(all); err != nil {
		return nil, err
	}
	return all, nil
}

// OrderResult 下单回执
type OrderResult struct {
	OrderID  string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Status   string
}

// PlaceLimitOrder 提交限价单
// side取"buy"或"sell"，价格和数量由调用方按精度处理好
func (c *Client) PlaceLimitOrder(ctx context.Context, market, side string, price, quantity decimal.Decimal) (*OrderResult, error) {
	var sideType binance.SideType
	switch side {
	case "buy":
		sideType = binance.SideTypeBuy
	case "sell":
		sideType = binance.SideTypeSell
	default:
		return nil, fmt.Errorf("invalid order side: %s", side)
	}

	result, err := c.client.NewCreateOrderService().
		Symbol(market).
		Side(sideType).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Price(price.String()).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place %s order on Binance: %w", side, err)
	}

	execPrice, _ := decimal.NewFromString(result.Price)
	execQty, _ := decimal.NewFromString(result.ExecutedQuantity)

	return &OrderResult{
		OrderID:  fmt.Sprintf("%d", result.OrderID),
		Price:    execPrice,
		Quantity: execQty,
		Status:   string(result.Status),
	}, nil
}

// GetAvailableBalance 查询某资产的可用余额（扣除冻结部分）
func (c *Client) GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get account from Binance: %w", err)
	}

	for _, balance := range account.Balances {
		if balance.Asset != asset {
			continue
		}
		free, err := decimal.NewFromString(balance.Free)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid balance for %s: %w", asset, err)
		}
		return free, nil
	}
	return decimal.Zero, nil
}
