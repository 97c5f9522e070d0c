package config

import (
	"fmt"

	"ensemblebot/src/database"
	"ensemblebot/src/ensemble"
	"ensemblebot/src/strategy"
	"ensemblebot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-config/configs"
)

// Config 主配置结构
type Config struct {
	Exchange  ExchangeConfig          `conf:"exchange,交易所API配置"`
	Trading   TradingConfig           `conf:"trading,实盘交易配置"`
	Optimizer OptimizerConfig         `conf:"optimizer,参数优化配置"`
	Database  database.DatabaseConfig `conf:"database,数据库配置"`
}

// ExchangeConfig 交易所API配置
type ExchangeConfig struct {
	APIKey    string `conf:"api_key,API密钥"`
	SecretKey string `conf:"secret_key,API私钥"`
	BaseURL   string `conf:"base_url,API地址"`
	Timeout   int    `conf:"timeout,请求超时时间(秒)"`
}

// TradingConfig 实盘交易配置
type TradingConfig struct {
	Market         string        `conf:"market,交易对，如BTCUSDT"`
	Timeframe      string        `conf:"timeframe,K线周期 - 实盘决策默认1m"`
	Threshold      float64       `conf:"threshold,决策阈值 - 加权信号得分超过该值才买/卖"`
	Aggressiveness float64       `conf:"aggressiveness,挂单价偏移比例 - 用于限价单快速成交"`
	FeeRate        float64       `conf:"fee_rate,交易手续费率"`
	FeeBuffer      float64       `conf:"fee_buffer,手续费缓冲 - 计算买入数量时额外预留的比例"`
	MinOrderAmount float64       `conf:"min_order_amount,最小下单金额(计价货币)"`
	PriceTick      float64       `conf:"price_tick,价格最小变动单位"`
	SignalLookback int           `conf:"signal_lookback,信号计算窗口(K线根数)"`
	Weights        WeightsConfig `conf:"weights,各策略默认权重 - 数据库无优化结果时使用"`
}

// WeightsConfig 六个策略的权重
// 权重之和不要求为1：阈值与加权和在同一量纲上共同调优
type WeightsConfig struct {
	Trend       float64 `conf:"trend,趋势策略权重"`
	Momentum    float64 `conf:"momentum,动量策略权重"`
	Swing       float64 `conf:"swing,波段策略权重"`
	Scalping    float64 `conf:"scalping,剥头皮策略权重"`
	Day         float64 `conf:"day,日内策略权重"`
	PriceAction float64 `conf:"price_action,价格行为策略权重"`
}

// ToMap 转换为策略名到decimal权重的映射
func (w WeightsConfig) ToMap() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		strategy.NameTrend:       decimal.NewFromFloat(w.Trend),
		strategy.NameMomentum:    decimal.NewFromFloat(w.Momentum),
		strategy.NameSwing:       decimal.NewFromFloat(w.Swing),
		strategy.NameScalping:    decimal.NewFromFloat(w.Scalping),
		strategy.NameDay:         decimal.NewFromFloat(w.Day),
		strategy.NamePriceAction: decimal.NewFromFloat(w.PriceAction),
	}
}

// OptimizerConfig 参数优化配置
type OptimizerConfig struct {
	InitialCash  float64 `conf:"initial_cash,模拟回测的初始资金"`
	WindowMonths int     `conf:"window_months,回看窗口(月) - 默认3个月历史"`
	Lookback     int     `conf:"lookback,信号计算窗口(K线根数)"`
	Workers      int     `conf:"workers,并行评估的worker数量"`
	Thresholds   string  `conf:"thresholds,候选阈值列表 - 逗号分隔，留空用默认0.05~0.50"`
	GridStep     float64 `conf:"grid_step,权重网格步长 - 如0.2表示按20%粒度枚举权重组合"`
}

// AppConfig 全局配置实例
var AppConfig = &Config{
	Exchange: ExchangeConfig{
		APIKey:    "",
		SecretKey: "",
		BaseURL:   "https://api.binance.com",
		Timeout:   10,
	},
	Trading: TradingConfig{
		Market:         "BTCUSDT",
		Timeframe:      "1m",
		Threshold:      0.2,
		Aggressiveness: 0.0015,
		FeeRate:        0.0005,
		FeeBuffer:      0.0005,
		MinOrderAmount: 10.0,
		PriceTick:      0.01,
		SignalLookback: 200,
		Weights: WeightsConfig{
			Trend:       0.2,
			Momentum:    0.2,
			Swing:       0.2,
			Scalping:    0.1,
			Day:         0.1,
			PriceAction: 0.2,
		},
	},
	Optimizer: OptimizerConfig{
		InitialCash:  1000000.0,
		WindowMonths: 3,
		Lookback:     200,
		Workers:      4,
		Thresholds:   "",
		GridStep:     0.2,
	},
	Database: database.DatabaseConfig{
		Host:         "localhost",
		Port:         "5432",
		User:         "ensemblebot",
		Password:     "",
		DBName:       "ensemblebot",
		SSLMode:      "disable",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
	},
}

// 在包的 init() 函数中注册配置
func init() {
	configs.Unmarshal(AppConfig)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Trading.Market == "" {
		return fmt.Errorf("trading market cannot be empty")
	}

	if _, err := timeframes.ParseTimeframe(c.Trading.Timeframe); err != nil {
		return fmt.Errorf("invalid timeframe: %w", err)
	}

	if c.Trading.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeBuffer < 0 {
		return fmt.Errorf("fee rate and fee buffer must not be negative")
	}
	if c.Trading.Aggressiveness < 0 {
		return fmt.Errorf("aggressiveness must not be negative")
	}
	if c.Trading.PriceTick <= 0 {
		return fmt.Errorf("price tick must be positive")
	}
	if c.Trading.SignalLookback < 3 {
		return fmt.Errorf("signal lookback must be at least 3")
	}

	if c.Optimizer.InitialCash <= 0 {
		return fmt.Errorf("optimizer initial cash must be positive")
	}
	if c.Optimizer.WindowMonths <= 0 {
		return fmt.Errorf("optimizer window months must be positive")
	}
	if c.Optimizer.Workers <= 0 {
		return fmt.Errorf("optimizer workers must be positive")
	}
	if c.Optimizer.GridStep <= 0 || c.Optimizer.GridStep > 1 {
		return fmt.Errorf("optimizer grid step must be in (0, 1]")
	}

	return nil
}

// GetTimeframe 获取交易用K线周期
func (c *Config) GetTimeframe() (timeframes.Timeframe, error) {
	return timeframes.ParseTimeframe(c.Trading.Timeframe)
}

// DefaultParameterSet 用配置中的默认权重和阈值构造参数集
// 数据库中还没有优化结果时的回退来源
func (c *Config) DefaultParameterSet() (*ensemble.ParameterSet, error) {
	return ensemble.NewParameterSet(
		c.Trading.Weights.ToMap(),
		decimal.NewFromFloat(c.Trading.Threshold),
		decimal.NewFromFloat(c.Trading.Aggressiveness),
		decimal.NewFromFloat(c.Trading.FeeRate),
		decimal.NewFromFloat(c.Trading.FeeBuffer))
}

// GetInitialCash 获取优化回测初始资金
func (c *Config) GetInitialCash() decimal.Decimal {
	return decimal.NewFromFloat(c.Optimizer.InitialCash)
}

// GetMinOrderAmount 获取最小下单金额
func (c *Config) GetMinOrderAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.MinOrderAmount)
}

// GetPriceTick 获取价格最小变动单位
func (c *Config) GetPriceTick() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.PriceTick)
}
