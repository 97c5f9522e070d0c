package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ensemblebot/src/cex/binance"
	"ensemblebot/src/config"
	"ensemblebot/src/database"
	"ensemblebot/src/ensemble"
	"ensemblebot/src/timeframes"
	"ensemblebot/src/trader"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
	"github.com/xpwu/go-log/log"
)

// RegisterTradeCmd 注册实盘交易命令
// 每根K线收盘后用现役参数做一次决策并挂限价单
func RegisterTradeCmd() {
	var market string
	var timeframe string
	var dry bool

	cmd.RegisterCmd("trade", "run live ensemble trading (default: real orders, use --dry to simulate)", func(args *arg.Arg) {
		args.String(&market, "s", "trading market (default: from config)")
		args.String(&timeframe, "t", "kline timeframe (default: from config)")
		args.Bool(&dry, "dry", "dry run mode: live data, simulated orders")
		args.Parse()

		if market == "" {
			market = config.AppConfig.Trading.Market
		}
		if timeframe == "" {
			timeframe = config.AppConfig.Trading.Timeframe
		}

		if !dry && config.AppConfig.Exchange.APIKey == "" {
			fmt.Println("❌ Error: api_key is required for live trading")
			fmt.Println("💡 Use --dry to run without real orders")
			os.Exit(1)
		}

		err := runTradeLoop(market, timeframe, dry)
		if err != nil {
			fmt.Printf("❌ Trading system error: %v\n", err)
			os.Exit(1)
		}
	})
}

// liveSession 一次实盘（或dry run）会话的共享状态
type liveSession struct {
	client    *binance.Client
	db        *database.PostgresDB
	market    string
	baseAsset string
	quote     string
	tf        timeframes.Timeframe
	dry       bool

	// dry run模式下的本地模拟账户
	simQuote decimal.Decimal
	simBase  decimal.Decimal
}

// runTradeLoop 启动交易循环，直到收到退出信号
func runTradeLoop(market, rawTimeframe string, dry bool) error {
	tf, err := timeframes.ParseTimeframe(rawTimeframe)
	if err != nil {
		return err
	}
	tfDuration, err := tf.GetDuration()
	if err != nil {
		return err
	}
	baseAsset, quoteAsset, err := SplitMarket(market)
	if err != nil {
		return err
	}

	fmt.Println("🤖 Ensemble Live Trading System")
	fmt.Println("==================================================")
	fmt.Printf("📊 交易对: %s\n", market)
	fmt.Printf("⏰ 时间周期: %s\n", tf)
	if dry {
		fmt.Println("🧪 Dry Run mode")
		fmt.Println("💡 Using real-time data with simulated orders")
	} else {
		fmt.Println("🔴 Live trading mode")
		fmt.Println("⚠️  WARNING: This will use real money!")
	}
	fmt.Println("Press Ctrl+C to stop...")
	fmt.Println()

	db, err := database.NewPostgresDB(config.AppConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	session := &liveSession{
		client: binance.NewClient(
			config.AppConfig.Exchange.APIKey,
			config.AppConfig.Exchange.SecretKey,
			config.AppConfig.Exchange.BaseURL),
		db:        db,
		market:    market,
		baseAsset: baseAsset,
		quote:     quoteAsset,
		tf:        tf,
		dry:       dry,
		simQuote:  config.AppConfig.GetInitialCash(),
		simBase:   decimal.Zero,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 退出信号处理
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		fmt.Println("\n🔄 Shutting down...")
		cancel()
	}()

	ticker := time.NewTicker(tfDuration)
	defer ticker.Stop()

	// 启动后立即跑一轮，之后每根K线一轮
	for {
		if err := session.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			_, logger := log.WithCtx(ctx)
			logger.PushPrefix("LiveLoop")
			logger.Error("iteration failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runOnce 执行一轮决策：拉最新K线、取现役参数、决策、下单
func (s *liveSession) runOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("LiveLoop")

	lookback := config.AppConfig.Trading.SignalLookback
	candles, err := s.client.GetCandles(ctx, s.market, s.tf.GetBinanceInterval(), lookback)
	if err != nil {
		return fmt.Errorf("failed to fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("exchange returned no candles for %s", s.market)
	}

	// 顺手入库，保持数据库的K线是最新的
	if err := s.db.SaveCandles(ctx, s.market, s.tf.String(), candles); err != nil {
		logger.Error("failed to persist candles", "error", err)
	}

	params, source, err := resolveParams(ctx, s.db, s.market, false)
	if err != nil {
		return err
	}

	quoteBalance, baseBalance, err := s.balances(ctx)
	if err != nil {
		return err
	}

	last := candles[len(candles)-1]
	logger.Info("evaluating",
		"close", last.Close.String(),
		"params", source,
		"quote_balance", quoteBalance.String(),
		"base_balance", baseBalance.String())

	intent, err := trader.Decide(ctx, candles, params, quoteBalance, baseBalance, trader.Config{
		Market:         s.market,
		PriceTick:      config.AppConfig.GetPriceTick(),
		MinOrderAmount: config.AppConfig.GetMinOrderAmount(),
	})
	if err != nil {
		return fmt.Errorf("decision failed: %w", err)
	}
	if intent == nil {
		fmt.Printf("[%s] %s 收盘 %s → 持仓不动\n",
			time.Now().Format("15:04:05"), s.market, last.Close.String())
		return nil
	}

	return s.execute(ctx, intent, params)
}

// balances 查询可用余额，dry run用本地模拟账户
func (s *liveSession) balances(ctx context.Context) (quote, base decimal.Decimal, err error) {
	if s.dry {
		return s.simQuote, s.simBase, nil
	}

	quote, err = s.client.GetAvailableBalance(ctx, s.quote)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to fetch %s balance: %w", s.quote, err)
	}
	base, err = s.client.GetAvailableBalance(ctx, s.baseAsset)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to fetch %s balance: %w", s.baseAsset, err)
	}
	return quote, base, nil
}

// execute 落地一个交易意图：dry run记账，实盘下单并写库
func (s *liveSession) execute(ctx context.Context, intent *trader.OrderIntent, params *ensemble.ParameterSet) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("Execute")

	if s.dry {
		// 模拟账户按全额成交记账
		amount := intent.Price.Mul(intent.Quantity)
		if intent.Side == "buy" {
			cost := amount.Mul(decimal.NewFromInt(1).Add(params.FeeRate)).Round(8)
			s.simQuote = s.simQuote.Sub(cost)
			s.simBase = s.simBase.Add(intent.Quantity)
		} else {
			fee := amount.Mul(params.FeeRate).Round(8)
			s.simQuote = s.simQuote.Add(amount.Sub(fee))
			s.simBase = s.simBase.Sub(intent.Quantity)
		}
		fmt.Printf("[%s] 🧪 模拟%s %s: %s @ %s (余额 %s %s / %s %s)\n",
			time.Now().Format("15:04:05"), sideLabel(intent.Side), s.market,
			intent.Quantity.String(), intent.Price.String(),
			s.simQuote.StringFixed(2), s.quote, s.simBase.String(), s.baseAsset)
		return nil
	}

	result, err := s.client.PlaceLimitOrder(ctx, intent.Market, intent.Side, intent.Price, intent.Quantity)
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	logger.Info("order placed",
		"side", intent.Side,
		"price", intent.Price.String(),
		"quantity", intent.Quantity.String(),
		"exchange_order_id", result.OrderID,
		"status", result.Status)
	fmt.Printf("[%s] 📝 %s挂单 %s: %s @ %s (订单 %s, 状态 %s)\n",
		time.Now().Format("15:04:05"), sideLabel(intent.Side), s.market,
		intent.Quantity.String(), intent.Price.String(), result.OrderID, result.Status)

	orderID, err := s.db.InsertOrder(ctx, &database.OrderRecord{
		Market:          intent.Market,
		Side:            intent.Side,
		OrderType:       intent.OrderType,
		Price:           intent.Price,
		Quantity:        intent.Quantity,
		Status:          result.Status,
		ExchangeOrderID: result.OrderID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record order: %w", err)
	}

	// 立即成交的部分直接记一笔成交，手续费按费率估算
	if result.Status == "FILLED" && result.Quantity.GreaterThan(decimal.Zero) {
		fee := result.Price.Mul(result.Quantity).Mul(params.FeeRate).Round(8)
		if err := s.db.InsertTrade(ctx, &database.TradeRecord{
			OrderID:    orderID,
			ExecutedAt: time.Now().UTC(),
			Price:      result.Price,
			Quantity:   result.Quantity,
			Fee:        fee,
		}); err != nil {
			return fmt.Errorf("failed to record trade: %w", err)
		}
	}

	return nil
}

// sideLabel 买卖方向的中文标签
func sideLabel(side string) string {
	if side == "buy" {
		return "买入"
	}
	return "卖出"
}
