package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord 下单记录
type OrderRecord struct {
	ID              int64           `json:"id"`
	Market          string          `json:"market"`
	Side            string          `json:"side"`
	OrderType       string          `json:"order_type"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Status          string          `json:"status"`
	ExchangeOrderID string          `json:"exchange_order_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TradeRecord 成交记录（交易所回报的实际成交）
type TradeRecord struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ExecutedAt time.Time       `json:"executed_at"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Fee        decimal.Decimal `json:"fee"`
}

// InsertOrder 插入下单记录并返回生成的ID
func (p *PostgresDB) InsertOrder(ctx context.Context, order *OrderRecord) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO orders (market, side, order_type, price, quantity, status, exchange_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		order.Market, order.Side, order.OrderType,
		order.Price, order.Quantity, order.Status, order.ExchangeOrderID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

// InsertTrade 插入成交记录
func (p *PostgresDB) InsertTrade(ctx context.Context, trade *TradeRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO trades (order_id, executed_at, price, quantity, fee)
		VALUES ($1, $2, $3, $4, $5)
	`,
		trade.OrderID, trade.ExecutedAt, trade.Price, trade.Quantity, trade.Fee,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}
