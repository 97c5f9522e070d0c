package cmd

import (
	"context"
	"fmt"
	"time"

	"ensemblebot/src/candle"
	"ensemblebot/src/cex/binance"
	"ensemblebot/src/config"
	"ensemblebot/src/database"
	"ensemblebot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterCollectCmd 注册K线采集命令
// 增量拉取币安K线并入库，作为回测和参数优化的数据源
func RegisterCollectCmd() {
	var market string
	var timeframe string
	var months int
	var verbose bool

	cmd.RegisterCmd("collect", "fetch klines from Binance and store them in the database", func(args *arg.Arg) {
		args.String(&market, "s", "trading market (default: from config)")
		args.String(&timeframe, "t", "kline timeframe (default: from config)")
		args.Int(&months, "m", "backfill window in months when database is empty (default: from config)")
		args.Bool(&verbose, "v", "verbose output with recent kline details")
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

		err := runCollect(market, timeframe, months, verbose)
		if err != nil {
			fmt.Printf("❌ K线采集失败: %v\n", err)
			return
		}
	})
}

// runCollect 执行一次增量采集
func runCollect(market, rawTimeframe string, months int, verbose bool) error {
	tf, err := timeframes.ParseTimeframe(rawTimeframe)
	if err != nil {
		return err
	}
	tfDuration, err := tf.GetDuration()
	if err != nil {
		return err
	}

	fmt.Printf("📊 K线数据采集\n")
	fmt.Printf("================================\n")
	fmt.Printf("🔸 交易对: %s\n", market)
	fmt.Printf("🔸 时间周期: %s\n", tf)
	fmt.Printf("🔸 数据源: %s\n", config.AppConfig.Exchange.BaseURL)
	fmt.Println()

	db, err := database.NewPostgresDB(config.AppConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// 增量起点：库里最后一根的下一根；空库则回填指定月数
	lastOpen, err := db.GetLastOpenTime(ctx, market, tf.String())
	if err != nil {
		return fmt.Errorf("failed to query last open time: %w", err)
	}

	var start time.Time
	if lastOpen.IsZero() || lastOpen.Unix() <= 0 {
		start = time.Now().UTC().Add(-time.Duration(months) * 30 * 24 * time.Hour)
		fmt.Printf("🆕 数据库为空，回填最近%d个月数据\n", months)
	} else {
		start = lastOpen.Add(tfDuration)
		fmt.Printf("⏩ 增量采集，起点: %s\n", start.Format("2006-01-02 15:04:05"))
	}

	client := binance.NewClient("", "", config.AppConfig.Exchange.BaseURL)

	fmt.Print("🔄 正在获取K线数据...")
	startTime := time.Now()

	candles, err := client.GetCandlesSince(ctx, market, tf.GetBinanceInterval(), start)
	if err != nil {
		fmt.Printf("\n❌ 获取失败: %v\n", err)
		return err
	}
	fmt.Printf(" 完成! (耗时: %v)\n", time.Since(startTime))

	if len(candles) == 0 {
		fmt.Println("⚠️ 没有新数据")
		return nil
	}

	if err := db.SaveCandles(ctx, market, tf.String(), candles); err != nil {
		return fmt.Errorf("failed to save candles: %w", err)
	}

	fmt.Printf("✅ 成功入库 %d 根K线\n\n", len(candles))
	fmt.Println("📈 数据概览:")
	fmt.Printf("├─ 最早时间: %s\n", candles[0].OpenTime.Format("2006-01-02 15:04"))
	fmt.Printf("├─ 最新时间: %s\n", candles[len(candles)-1].OpenTime.Format("2006-01-02 15:04"))
	fmt.Printf("└─ 最新价格: %s\n", candles[len(candles)-1].Close.String())

	if verbose {
		printRecentCandles(candles, 5)
	}

	return nil
}

// printRecentCandles 打印最近几根K线
func printRecentCandles(candles []*candle.Candle, count int) {
	if len(candles) < count {
		count = len(candles)
	}

	fmt.Println()
	fmt.Printf("📋 最近%d根K线:\n", count)
	fmt.Println("时间              | 开盘价    | 最高价    | 最低价    | 收盘价    | 成交量")
	fmt.Println("------------------|----------|----------|----------|----------|----------")
	for i := len(candles) - count; i < len(candles); i++ {
		c := candles[i]
		fmt.Printf("%s | %8s | %8s | %8s | %8s | %8s\n",
			c.OpenTime.Format("01-02 15:04"),
			c.Open.StringFixed(2),
			c.High.StringFixed(2),
			c.Low.StringFixed(2),
			c.Close.StringFixed(2),
			formatVolume(c.Volume),
		)
	}
}

// formatVolume 格式化成交量
func formatVolume(volume decimal.Decimal) string {
	if volume.GreaterThan(decimal.NewFromInt(1000)) {
		return volume.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return volume.StringFixed(2)
}
