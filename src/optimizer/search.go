package optimizer

import (
	"context"
	"fmt"
	"sync"

	"ensemblebot/src/backtest"
	"ensemblebot/src/candle"
	"ensemblebot/src/ensemble"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// Candidate 一个待评估的(权重, 阈值)组合
type Candidate struct {
	Weights   map[string]decimal.Decimal
	Threshold decimal.Decimal
}

// Result 单个候选的评估结果
type Result struct {
	Params  *ensemble.ParameterSet `json:"params"`
	Metrics *backtest.Metrics      `json:"metrics"`
	IsBest  bool                   `json:"is_best"`
}

// Report 一轮参数搜索的完整报告
// Best为nil表示本轮没有选出赢家（全部候选零成交），外部应保留现有参数
type Report struct {
	Results []*Result `json:"results"`
	Best    *Result   `json:"best"`
	Failed  int       `json:"failed"`
}

// SearchConfig 参数搜索配置
type SearchConfig struct {
	Workers   int             // 工作协程数，<=0时取1
	Simulator backtest.Config // 每个候选使用的模拟器配置
}

// Search 并行评估全部候选并选出赢家
// 每个候选独立：worker只读共享K线窗口，各自产出一个结果，唯一的同步点是收集。
// 单个候选评估失败（panic或参数非法）只记为失败，不影响其他候选。
// 相同的K线窗口和候选集必然选出同一个赢家。
func Search(ctx context.Context, candles []*candle.Candle, base *ensemble.ParameterSet, candidates []Candidate, cfg SearchConfig) (*Report, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("Optimizer")

	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidate set is empty")
	}
	if base == nil {
		return nil, fmt.Errorf("base parameter set is required")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	logger.Info("start parameter search",
		"candidates", len(candidates), "workers", workers, "candles", len(candles))

	// 结果按候选下标落位，collect阶段无需加锁，顺序天然稳定
	results := make([]*Result, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = evaluateOne(candles, base, candidates[idx], cfg.Simulator)
			}
		}()
	}

	for idx := range candidates {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	report := &Report{Results: make([]*Result, 0, len(candidates))}
	for _, result := range results {
		if result == nil {
			report.Failed++
			continue
		}
		report.Results = append(report.Results, result)
	}

	report.Best = selectBest(report.Results)
	if report.Best != nil {
		report.Best.IsBest = true
		logger.Info("parameter search done",
			"evaluated", len(report.Results),
			"failed", report.Failed,
			"best_sharpe", report.Best.Metrics.Sharpe.String(),
			"best_return", report.Best.Metrics.TotalReturn.String(),
			"best_threshold", report.Best.Params.Threshold.String())
	} else {
		logger.Info("parameter search done without winner, keeping active params",
			"evaluated", len(report.Results), "failed", report.Failed)
	}

	return report, nil
}

// evaluateOne 评估单个候选
// panic被就地回收，返回nil表示该候选失败
func evaluateOne(candles []*candle.Candle, base *ensemble.ParameterSet, cand Candidate, simCfg backtest.Config) (result *Result) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	params, err := base.WithWeights(cand.Weights, cand.Threshold)
	if err != nil {
		return nil
	}

	ledger, err := backtest.Run(candles, params, simCfg)
	if err != nil {
		return nil
	}

	return &Result{
		Params:  params,
		Metrics: backtest.Calculate(ledger),
	}
}

// selectBest 在成功的候选中选出赢家
// 排序键：夏普降序 → 总收益降序 → 最大回撤升序；仍然并列时取靠前的候选。
// 所有候选都零成交时不选赢家：搜索绝不能用一个从不交易的参数集
// 顶掉已经验证过的现役参数。
func selectBest(results []*Result) *Result {
	var best *Result
	for _, result := range results {
		if result.Metrics.TradeCount == 0 {
			continue
		}
		if best == nil || betterThan(result.Metrics, best.Metrics) {
			best = result
		}
	}
	return best
}

// betterThan 判断a是否严格优于b
func betterThan(a, b *backtest.Metrics) bool {
	if !a.Sharpe.Equal(b.Sharpe) {
		return a.Sharpe.GreaterThan(b.Sharpe)
	}
	if !a.TotalReturn.Equal(b.TotalReturn) {
		return a.TotalReturn.GreaterThan(b.TotalReturn)
	}
	return a.MaxDrawdown.LessThan(b.MaxDrawdown)
}
