package timeframes

import (
	"fmt"
	"time"
)

// Timeframe 时间刻度枚举
type Timeframe string

const (
	// 支持的时间刻度
	Timeframe1m  Timeframe = "1m"  // 1分钟
	Timeframe3m  Timeframe = "3m"  // 3分钟
	Timeframe5m  Timeframe = "5m"  // 5分钟
	Timeframe15m Timeframe = "15m" // 15分钟
	Timeframe30m Timeframe = "30m" // 30分钟
	Timeframe1h  Timeframe = "1h"  // 1小时
	Timeframe4h  Timeframe = "4h"  // 4小时
	Timeframe1d  Timeframe = "1d"  // 1天
)

// GetDuration 获取时间刻度对应的Duration
func (tf Timeframe) GetDuration() (time.Duration, error) {
	switch tf {
	case Timeframe1m:
		return time.Minute, nil
	case Timeframe3m:
		return 3 * time.Minute, nil
	case Timeframe5m:
		return 5 * time.Minute, nil
	case Timeframe15m:
		return 15 * time.Minute, nil
	case Timeframe30m:
		return 30 * time.Minute, nil
	case Timeframe1h:
		return time.Hour, nil
	case Timeframe4h:
		return 4 * time.Hour, nil
	case Timeframe1d:
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

// String 返回字符串表示
func (tf Timeframe) String() string {
	return string(tf)
}

// IsValid 检查时间刻度是否有效
func (tf Timeframe) IsValid() bool {
	_, err := tf.GetDuration()
	return err == nil
}

// GetAllTimeframes 获取所有支持的时间刻度
func GetAllTimeframes() []Timeframe {
	return []Timeframe{
		Timeframe1m,
		Timeframe3m,
		Timeframe5m,
		Timeframe15m,
		Timeframe30m,
		Timeframe1h,
		Timeframe4h,
		Timeframe1d,
	}
}

// ParseTimeframe 解析时间刻度字符串
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.IsValid() {
		return "", fmt.Errorf("invalid timeframe: %s", s)
	}
	return tf, nil
}

// GetBinanceInterval 获取币安API对应的时间间隔字符串
func (tf Timeframe) GetBinanceInterval() string {
	// 币安API使用的时间间隔格式与我们的定义相同
	return string(tf)
}

// CandlesInMonths 计算回看months个月大约包含多少根K线
// 按每月30天近似，用于优化器的历史窗口大小
func (tf Timeframe) CandlesInMonths(months int) (int, error) {
	duration, err := tf.GetDuration()
	if err != nil {
		return 0, err
	}
	if months <= 0 {
		return 0, fmt.Errorf("months must be positive, got %d", months)
	}
	total := time.Duration(months) * 30 * 24 * time.Hour
	return int(total / duration), nil
}
