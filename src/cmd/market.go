package cmd

import (
	"fmt"
	"strings"
)

// 常见计价货币，按长度降序匹配
var knownQuotes = []string{"USDT", "USDC", "FDUSD", "BUSD", "BTC", "ETH", "BNB"}

// SplitMarket 拆分交易对为基础货币和计价货币
// 如BTCUSDT -> BTC, USDT；无法识别计价货币时返回错误
func SplitMarket(market string) (base, quote string, err error) {
	m := strings.ToUpper(strings.TrimSpace(market))
	for _, q := range knownQuotes {
		if strings.HasSuffix(m, q) && len(m) > len(q) {
			return m[:len(m)-len(q)], q, nil
		}
	}
	return "", "", fmt.Errorf("cannot determine quote currency of market %s", market)
}
