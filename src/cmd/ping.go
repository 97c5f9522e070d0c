package cmd

import (
	"context"
	"fmt"
	"time"

	"ensemblebot/src/cex/binance"
	"ensemblebot/src/config"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterPingCmd 注册连通性测试命令
func RegisterPingCmd() {
	var timeout int

	cmd.RegisterCmd("ping", "test connectivity to Binance API server", func(args *arg.Arg) {
		args.Int(&timeout, "t", "timeout in seconds (default: 10)")
		args.Parse()

		if timeout <= 0 {
			timeout = 10
		}

		if err := runPing(timeout); err != nil {
			fmt.Printf("❌ Ping failed: %v\n", err)
		}
	})
}

// runPing 测量API往返延迟并核对服务器时间
func runPing(timeoutSeconds int) error {
	fmt.Println("🌐 币安API连通性测试")
	fmt.Println("================================")
	fmt.Printf("🔸 目标服务器: %s\n", config.AppConfig.Exchange.BaseURL)
	fmt.Println()

	// ping和服务器时间都是公开接口，不需要API密钥
	client := binance.NewClient("", "", config.AppConfig.Exchange.BaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	startTime := time.Now()
	if err := client.Ping(ctx); err != nil {
		return err
	}
	latency := time.Since(startTime)

	serverTime, err := client.GetServerTime(ctx)
	if err != nil {
		return fmt.Errorf("ping ok but server time failed: %w", err)
	}
	drift := time.Since(serverTime)
	if drift < 0 {
		drift = -drift
	}

	fmt.Println("✅ 连接正常")
	fmt.Printf("├─ 往返延迟: %v\n", latency)
	fmt.Printf("├─ 服务器时间: %s\n", serverTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("└─ 本地时间差: %v\n", drift.Round(time.Millisecond))

	// 时钟偏差过大时签名请求会被交易所拒绝
	if drift > time.Minute {
		fmt.Println("⚠️ 本地时钟偏差超过1分钟，下单请求可能被拒绝")
	}

	return nil
}
