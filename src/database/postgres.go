package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDB PostgreSQL数据库连接
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg DatabaseConfig) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池参数
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresDB{db: db}, nil
}

// Close 关闭数据库连接
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// InitSchema 创建缺失的表结构
func (p *PostgresDB) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			id BIGSERIAL PRIMARY KEY,
			market TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			open_time TIMESTAMPTZ NOT NULL,
			open_price NUMERIC(30, 8) NOT NULL,
			high_price NUMERIC(30, 8) NOT NULL,
			low_price NUMERIC(30, 8) NOT NULL,
			close_price NUMERIC(30, 8) NOT NULL,
			volume NUMERIC(30, 8) NOT NULL,
			quote_volume NUMERIC(30, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (market, timeframe, open_time)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			market TEXT NOT NULL,
			side TEXT NOT NULL,
			order_type TEXT NOT NULL DEFAULT 'limit',
			price NUMERIC(30, 8) NOT NULL,
			quantity NUMERIC(30, 8) NOT NULL,
			status TEXT NOT NULL,
			exchange_order_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			executed_at TIMESTAMPTZ NOT NULL,
			price NUMERIC(30, 8) NOT NULL,
			quantity NUMERIC(30, 8) NOT NULL,
			fee NUMERIC(30, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS optimizer_results (
			id BIGSERIAL PRIMARY KEY,
			market TEXT NOT NULL,
			weights JSONB NOT NULL,
			threshold NUMERIC(10, 6) NOT NULL,
			total_return NUMERIC(20, 10) NOT NULL,
			max_drawdown NUMERIC(20, 10) NOT NULL,
			sharpe NUMERIC(20, 10) NOT NULL,
			win_rate NUMERIC(20, 10) NOT NULL,
			trade_count INT NOT NULL,
			is_best BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
