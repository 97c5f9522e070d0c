package cmd

import (
	"context"
	"fmt"
	"time"

	"ensemblebot/src/backtest"
	"ensemblebot/src/config"
	"ensemblebot/src/database"
	"ensemblebot/src/ensemble"
	"ensemblebot/src/strategy"
	"ensemblebot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterBacktestCmd 注册回测命令
// 在库内历史K线上重放集成决策并输出绩效指标
func RegisterBacktestCmd() {
	var market string
	var timeframe string
	var months int
	var capital float64
	var useDefaults bool

	cmd.RegisterCmd("backtest", "replay the ensemble over stored klines and report metrics", func(args *arg.Arg) {
		args.String(&market, "s", "trading market (default: from config)")
		args.String(&timeframe, "t", "kline timeframe (default: from config)")
		args.Int(&months, "m", "backtest window in months (default: from config)")
		args.Float64(&capital, "capital", "initial cash (default: from config)")
		args.Bool(&useDefaults, "defaults", "ignore optimized parameters and use config weights")
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
		if capital <= 0 {
			capital = config.AppConfig.Optimizer.InitialCash
		}

		err := runBacktest(market, timeframe, months, capital, useDefaults)
		if err != nil {
			fmt.Printf("❌ 回测失败: %v\n", err)
		}
	})
}

// runBacktest 加载K线、选择参数并执行一次回测
func runBacktest(market, rawTimeframe string, months int, capital float64, useDefaults bool) error {
	tf, err := timeframes.ParseTimeframe(rawTimeframe)
	if err != nil {
		return err
	}
	limit, err := tf.CandlesInMonths(months)
	if err != nil {
		return err
	}

	fmt.Println("🤖 Ensemble Backtest")
	fmt.Println("==================================================")
	fmt.Printf("📊 交易对: %s\n", market)
	fmt.Printf("⏰ 时间周期: %s\n", tf)
	fmt.Printf("📅 回测窗口: %d个月 (%d根K线)\n", months, limit)
	fmt.Printf("💰 初始资金: %.2f\n", capital)

	db, err := database.NewPostgresDB(config.AppConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	candles, err := db.GetRecentCandles(ctx, market, tf.String(), limit)
	if err != nil {
		return fmt.Errorf("failed to load candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s %s in database, run collect first", market, tf)
	}
	fmt.Printf("📈 实际加载: %d根K线 (%s ~ %s)\n\n",
		len(candles),
		candles[0].OpenTime.Format("2006-01-02 15:04"),
		candles[len(candles)-1].OpenTime.Format("2006-01-02 15:04"))

	params, source, err := resolveParams(ctx, db, market, useDefaults)
	if err != nil {
		return err
	}
	fmt.Printf("⚙️ 参数来源: %s\n", source)
	printParams(params)

	ledger, err := backtest.Run(candles, params, backtest.Config{
		InitialCash:    decimal.NewFromFloat(capital),
		Lookback:       config.AppConfig.Optimizer.Lookback,
		MinOrderAmount: config.AppConfig.GetMinOrderAmount(),
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	metrics := backtest.Calculate(ledger)
	printMetrics(metrics, ledger)
	return nil
}

// resolveParams 选择本次运行的参数集
// 优先用数据库中最近一次优化的赢家，没有则退回配置默认值
func resolveParams(ctx context.Context, db *database.PostgresDB, market string, useDefaults bool) (*ensemble.ParameterSet, string, error) {
	base, err := config.AppConfig.DefaultParameterSet()
	if err != nil {
		return nil, "", fmt.Errorf("invalid default parameters: %w", err)
	}
	if useDefaults {
		return base, "config defaults", nil
	}

	active, err := db.GetActiveParams(ctx, market, base)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load optimized parameters: %w", err)
	}
	if active != nil {
		return active, "optimizer (database)", nil
	}
	return base, "config defaults (no optimization result yet)", nil
}

// printParams 打印参数集
func printParams(params *ensemble.ParameterSet) {
	fmt.Printf("├─ 阈值: %s\n", params.Threshold.String())
	fmt.Printf("├─ 挂单偏移: %s\n", params.Aggressiveness.String())
	fmt.Printf("└─ 权重:")
	for _, name := range strategy.Names() {
		fmt.Printf(" %s=%s", name, params.Weights[name].String())
	}
	fmt.Println()
	fmt.Println()
}

// printMetrics 打印回测绩效
func printMetrics(metrics *backtest.Metrics, ledger *backtest.Ledger) {
	hundred := decimal.NewFromInt(100)

	fmt.Println("📊 回测结果")
	fmt.Println("==================================================")
	fmt.Printf("├─ 总收益率: %s%%\n", metrics.TotalReturn.Mul(hundred).StringFixed(2))
	fmt.Printf("├─ 最大回撤: %s%%\n", metrics.MaxDrawdown.Mul(hundred).StringFixed(2))
	fmt.Printf("├─ 夏普比率: %s\n", metrics.Sharpe.StringFixed(4))
	fmt.Printf("├─ 胜率: %s%%\n", metrics.WinRate.Mul(hundred).StringFixed(2))
	fmt.Printf("└─ 成交次数: %d\n", metrics.TradeCount)

	if len(ledger.EquityCurve) > 0 {
		final := ledger.EquityCurve[len(ledger.EquityCurve)-1]
		fmt.Println()
		fmt.Printf("💰 期末权益: %s (现金 %s + 持仓 %s)\n",
			final.Equity.StringFixed(2), final.Cash.StringFixed(2), final.Position.String())
	}

	if metrics.TradeCount == 0 {
		fmt.Println("⚠️ 本窗口内没有任何成交")
	}
}
