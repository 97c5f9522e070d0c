package optimizer

import (
	"fmt"
	"strings"

	"ensemblebot/src/strategy"

	"github.com/shopspring/decimal"
)

// GenerateWeightGrid 生成全部权重向量候选
// 在六个策略上按step步长枚举所有非负、总和为1的权重组合
// 递归枚举顺序固定，保证每次生成的候选列表顺序一致
func GenerateWeightGrid(step float64) ([]map[string]decimal.Decimal, error) {
	if step <= 0 || step > 1 {
		return nil, fmt.Errorf("grid step must be in (0, 1], got %v", step)
	}

	stepDec := decimal.NewFromFloat(step)
	units := int(decimal.NewFromInt(1).Div(stepDec).Round(0).IntPart())
	if units < 1 {
		units = 1
	}
	unitWeight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(units)))

	names := strategy.Names()
	combos := enumerateUnits(units, len(names))

	grid := make([]map[string]decimal.Decimal, 0, len(combos))
	for _, combo := range combos {
		weights := make(map[string]decimal.Decimal, len(names))
		for i, name := range names {
			weights[name] = unitWeight.Mul(decimal.NewFromInt(int64(combo[i])))
		}
		grid = append(grid, weights)
	}
	return grid, nil
}

// enumerateUnits 递归枚举把remaining个单位分配到count个槽位的全部方案
func enumerateUnits(remaining, count int) [][]int {
	if count == 1 {
		// 最后一个槽位拿走全部剩余
		return [][]int{{remaining}}
	}

	var combos [][]int
	for i := 0; i <= remaining; i++ {
		for _, sub := range enumerateUnits(remaining-i, count-1) {
			combo := make([]int, 0, count)
			combo = append(combo, i)
			combo = append(combo, sub...)
			combos = append(combos, combo)
		}
	}
	return combos
}

// DefaultThresholds 默认阈值候选列表：0.05到0.50，步长0.05
func DefaultThresholds() []decimal.Decimal {
	thresholds := make([]decimal.Decimal, 0, 10)
	step := decimal.NewFromFloat(0.05)
	for i := 1; i <= 10; i++ {
		thresholds = append(thresholds, step.Mul(decimal.NewFromInt(int64(i))))
	}
	return thresholds
}

// ParseThresholds 解析逗号分隔的阈值配置
// 空串返回默认列表；任何一项解析失败或非正都报错
func ParseThresholds(raw string) ([]decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultThresholds(), nil
	}

	parts := strings.Split(raw, ",")
	thresholds := make([]decimal.Decimal, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		th, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", part, err)
		}
		if th.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("threshold must be positive, got %s", th)
		}
		thresholds = append(thresholds, th)
	}
	if len(thresholds) == 0 {
		return DefaultThresholds(), nil
	}
	return thresholds, nil
}

// BuildCandidates 权重向量与阈值的笛卡尔积，顺序固定
func BuildCandidates(weightGrid []map[string]decimal.Decimal, thresholds []decimal.Decimal) []Candidate {
	candidates := make([]Candidate, 0, len(weightGrid)*len(thresholds))
	for _, weights := range weightGrid {
		for _, threshold := range thresholds {
			candidates = append(candidates, Candidate{Weights: weights, Threshold: threshold})
		}
	}
	return candidates
}
