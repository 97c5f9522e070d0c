package cmd

import (
	"context"
	"fmt"
	"time"

	"ensemblebot/src/backtest"
	"ensemblebot/src/config"
	"ensemblebot/src/database"
	"ensemblebot/src/optimizer"
	"ensemblebot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterOptimizeCmd 注册参数优化命令
// 网格搜索权重和阈值组合，赢家写入数据库供实盘使用
func RegisterOptimizeCmd() {
	var market string
	var timeframe string
	var months int
	var gridStep float64
	var thresholds string
	var workers int
	var dry bool

	cmd.RegisterCmd("optimize", "grid-search ensemble weights and threshold over stored klines", func(args *arg.Arg) {
		args.String(&market, "s", "trading market (default: from config)")
		args.String(&timeframe, "t", "kline timeframe (default: from config)")
		args.Int(&months, "m", "search window in months (default: from config)")
		args.Float64(&gridStep, "step", "weight grid step, e.g. 0.2 (default: from config)")
		args.String(&thresholds, "thresholds", "comma-separated thresholds (default: 0.05~0.50)")
		args.Int(&workers, "workers", "parallel workers (default: from config)")
		args.Bool(&dry, "dry", "print the winner without saving it to the database")
		args.Parse()

		if market == "" {
			market = config.AppConfig.Trading.Market
		}
		if timeframe == "" {
			timeframe = config.AppConfig.Trading.Timeframe
		}
		if months <= 0 {
			months = config.AppConfig.Optimizer.WindowMonths
		}
		if gridStep <= 0 {
			gridStep = config.AppConfig.Optimizer.GridStep
		}
		if thresholds == "" {
			thresholds = config.AppConfig.Optimizer.Thresholds
		}
		if workers <= 0 {
			workers = config.AppConfig.Optimizer.Workers
		}

		err := runOptimize(market, timeframe, months, gridStep, thresholds, workers, dry)
		if err != nil {
			fmt.Printf("❌ 参数优化失败: %v\n", err)
		}
	})
}

// runOptimize 执行一轮网格搜索
func runOptimize(market, rawTimeframe string, months int, gridStep float64, rawThresholds string, workers int, dry bool) error {
	tf, err := timeframes.ParseTimeframe(rawTimeframe)
	if err != nil {
		return err
	}
	limit, err := tf.CandlesInMonths(months)
	if err != nil {
		return err
	}

	weightGrid, err := optimizer.GenerateWeightGrid(gridStep)
	if err != nil {
		return fmt.Errorf("invalid grid step: %w", err)
	}
	thresholdList, err := optimizer.ParseThresholds(rawThresholds)
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	candidates := optimizer.BuildCandidates(weightGrid, thresholdList)

	fmt.Println("🔍 Ensemble Parameter Search")
	fmt.Println("==================================================")
	fmt.Printf("📊 交易对: %s\n", market)
	fmt.Printf("⏰ 时间周期: %s\n", tf)
	fmt.Printf("📅 搜索窗口: %d个月 (%d根K线)\n", months, limit)
	fmt.Printf("🔸 权重组合: %d (步长 %.2f)\n", len(weightGrid), gridStep)
	fmt.Printf("🔸 候选阈值: %d\n", len(thresholdList))
	fmt.Printf("🔸 候选总数: %d\n", len(candidates))
	fmt.Printf("🔸 并行度: %d\n", workers)
	fmt.Println()

	db, err := database.NewPostgresDB(config.AppConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	candles, err := db.GetRecentCandles(ctx, market, tf.String(), limit)
	if err != nil {
		return fmt.Errorf("failed to load candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s %s in database, run collect first", market, tf)
	}
	fmt.Printf("📈 实际加载: %d根K线\n", len(candles))

	base, err := config.AppConfig.DefaultParameterSet()
	if err != nil {
		return fmt.Errorf("invalid default parameters: %w", err)
	}

	fmt.Print("🔄 正在评估候选参数...")
	startTime := time.Now()

	report, err := optimizer.Search(ctx, candles, base, candidates, optimizer.SearchConfig{
		Workers: workers,
		Simulator: backtest.Config{
			InitialCash:    config.AppConfig.GetInitialCash(),
			Lookback:       config.AppConfig.Optimizer.Lookback,
			MinOrderAmount: config.AppConfig.GetMinOrderAmount(),
		},
	})
	if err != nil {
		fmt.Println()
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Printf(" 完成! (耗时: %v)\n\n", time.Since(startTime))

	if report.Failed > 0 {
		fmt.Printf("⚠️ %d个候选评估失败\n", report.Failed)
	}

	if report.Best == nil {
		fmt.Println("⚠️ 没有选出赢家：所有候选在该窗口内零成交")
		fmt.Println("💡 现役参数保持不变")
		return nil
	}

	printSearchWinner(report)

	if dry {
		fmt.Println("🧪 Dry run：结果不写入数据库")
		return nil
	}

	if err := db.SaveOptimizationResult(ctx, market, report.Best); err != nil {
		return fmt.Errorf("failed to save winner: %w", err)
	}
	fmt.Println("✅ 赢家已写入数据库，实盘将自动采用")
	return nil
}

// printSearchWinner 打印搜索赢家
func printSearchWinner(report *optimizer.Report) {
	hundred := decimal.NewFromInt(100)
	best := report.Best

	fmt.Println("🏆 本轮赢家")
	fmt.Println("==================================================")
	printParams(best.Params)
	fmt.Printf("├─ 总收益率: %s%%\n", best.Metrics.TotalReturn.Mul(hundred).StringFixed(2))
	fmt.Printf("├─ 最大回撤: %s%%\n", best.Metrics.MaxDrawdown.Mul(hundred).StringFixed(2))
	fmt.Printf("├─ 夏普比率: %s\n", best.Metrics.Sharpe.StringFixed(4))
	fmt.Printf("├─ 胜率: %s%%\n", best.Metrics.WinRate.Mul(hundred).StringFixed(2))
	fmt.Printf("└─ 成交次数: %d\n", best.Metrics.TradeCount)
	fmt.Println()
}
