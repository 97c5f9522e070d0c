package ensemble

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParameterSet 一组交易参数
// 纯值对象：由字段值标识，没有独立的ID；参数搜索中大量实例并行比较
type ParameterSet struct {
	Weights        map[string]decimal.Decimal `json:"weights"`
	Threshold      decimal.Decimal            `json:"threshold"`
	Aggressiveness decimal.Decimal            `json:"aggressiveness"`
	FeeRate        decimal.Decimal            `json:"fee_rate"`
	FeeBuffer      decimal.Decimal            `json:"fee_buffer"`
}

// NewParameterSet 构造并校验参数集
// 非法参数在任何模拟开始之前就报错，避免浪费回测算力
func NewParameterSet(weights map[string]decimal.Decimal, threshold, aggressiveness, feeRate, feeBuffer decimal.Decimal) (*ParameterSet, error) {
	if threshold.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("threshold must be positive, got %s", threshold)
	}
	if feeRate.IsNegative() {
		return nil, fmt.Errorf("fee rate must not be negative, got %s", feeRate)
	}
	if feeBuffer.IsNegative() {
		return nil, fmt.Errorf("fee buffer must not be negative, got %s", feeBuffer)
	}
	if aggressiveness.IsNegative() {
		return nil, fmt.Errorf("aggressiveness must not be negative, got %s", aggressiveness)
	}

	copied := make(map[string]decimal.Decimal, len(weights))
	for name, w := range weights {
		copied[name] = w
	}

	return &ParameterSet{
		Weights:        copied,
		Threshold:      threshold,
		Aggressiveness: aggressiveness,
		FeeRate:        feeRate,
		FeeBuffer:      feeBuffer,
	}, nil
}

// WithWeights 返回替换了权重和阈值的副本，其余字段不变
// 参数搜索用它从基础参数派生候选参数
func (p *ParameterSet) WithWeights(weights map[string]decimal.Decimal, threshold decimal.Decimal) (*ParameterSet, error) {
	return NewParameterSet(weights, threshold, p.Aggressiveness, p.FeeRate, p.FeeBuffer)
}

// WeightsFromFloats 将float权重表转换为decimal权重表
func WeightsFromFloats(weights map[string]float64) map[string]decimal.Decimal {
	converted := make(map[string]decimal.Decimal, len(weights))
	for name, w := range weights {
		converted[name] = decimal.NewFromFloat(w)
	}
	return converted
}
