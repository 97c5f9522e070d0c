package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ensemblebot/src/candle"
)

// SaveCandles 批量保存K线
// 以(market, timeframe, open_time)为唯一键，重复采集时覆盖更新
func (p *PostgresDB) SaveCandles(ctx context.Context, market, timeframe string, candles []*candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (
			market, timeframe, open_time,
			open_price, high_price, low_price, close_price,
			volume, quote_volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (market, timeframe, open_time)
		DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			quote_volume = EXCLUDED.quote_volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err = stmt.ExecContext(ctx,
			market, timeframe, c.OpenTime,
			c.Open, c.High, c.Low, c.Close,
			c.Volume, c.QuoteVolume,
		)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	return tx.Commit()
}

// GetRecentCandles 获取最近limit根K线，按时间升序返回
func (p *PostgresDB) GetRecentCandles(ctx context.Context, market, timeframe string, limit int) ([]*candle.Candle, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT open_time, open_price, high_price, low_price, close_price, volume, quote_volume
		FROM (
			SELECT open_time, open_price, high_price, low_price, close_price, volume, quote_volume
			FROM candles
			WHERE market = $1 AND timeframe = $2
			ORDER BY open_time DESC
			LIMIT $3
		) recent
		ORDER BY open_time ASC
	`, market, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetCandlesSince 获取since（含）之后的全部K线，按时间升序返回
func (p *PostgresDB) GetCandlesSince(ctx context.Context, market, timeframe string, since time.Time) ([]*candle.Candle, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT open_time, open_price, high_price, low_price, close_price, volume, quote_volume
		FROM candles
		WHERE market = $1 AND timeframe = $2 AND open_time >= $3
		ORDER BY open_time ASC
	`, market, timeframe, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetLastOpenTime 获取已存储的最新K线开盘时间
// 没有数据时返回零值时间，不报错
func (p *PostgresDB) GetLastOpenTime(ctx context.Context, market, timeframe string) (time.Time, error) {
	var last time.Time
	err := p.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(open_time), 'epoch'::timestamptz)
		FROM candles
		WHERE market = $1 AND timeframe = $2
	`, market, timeframe).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last open time: %w", err)
	}
	if last.Unix() == 0 {
		return time.Time{}, nil
	}
	return last, nil
}

// scanCandles 从查询结果构造K线序列并校验顺序
func scanCandles(rows *sql.Rows) ([]*candle.Candle, error) {
	candles := make([]*candle.Candle, 0)
	for rows.Next() {
		c := &candle.Candle{}
		err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.QuoteVolume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candles: %w", err)
	}
	if err := candle.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}
