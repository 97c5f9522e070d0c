package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ensemblebot/src/ensemble"
	"ensemblebot/src/optimizer"

	"github.com/shopspring/decimal"
)

// SaveOptimizationResult 保存一条优化结果
// 每轮搜索结束持久化一次；mark_best=true的行会先清掉该市场旧的best标记，
// 保证任意时刻每个市场最多只有一行is_best
func (p *PostgresDB) SaveOptimizationResult(ctx context.Context, market string, result *optimizer.Result) error {
	if result == nil {
		return fmt.Errorf("optimization result is required")
	}

	weightsJSON, err := json.Marshal(result.Params.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if result.IsBest {
		_, err = tx.ExecContext(ctx,
			`UPDATE optimizer_results SET is_best = FALSE WHERE market = $1 AND is_best = TRUE`,
			market)
		if err != nil {
			return fmt.Errorf("failed to clear previous best: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO optimizer_results (
			market, weights, threshold,
			total_return, max_drawdown, sharpe, win_rate, trade_count, is_best
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		market, weightsJSON, result.Params.Threshold,
		result.Metrics.TotalReturn, result.Metrics.MaxDrawdown,
		result.Metrics.Sharpe, result.Metrics.WinRate,
		result.Metrics.TradeCount, result.IsBest,
	)
	if err != nil {
		return fmt.Errorf("failed to insert optimizer result: %w", err)
	}

	return tx.Commit()
}

// GetActiveParams 读取当前现役参数：最新一条is_best结果的权重和阈值
// 其余字段（aggressiveness、手续费）来自传入的base参数集。
// 还没有任何优化结果时返回nil，调用方应回退到配置默认值
func (p *PostgresDB) GetActiveParams(ctx context.Context, market string, base *ensemble.ParameterSet) (*ensemble.ParameterSet, error) {
	if base == nil {
		return nil, fmt.Errorf("base parameter set is required")
	}

	var weightsJSON []byte
	var threshold decimal.Decimal
	err := p.db.QueryRowContext(ctx, `
		SELECT weights, threshold
		FROM optimizer_results
		WHERE market = $1 AND is_best = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, market).Scan(&weightsJSON, &threshold)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active params: %w", err)
	}

	weights := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(weightsJSON, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}

	return base.WithWeights(weights, threshold)
}
