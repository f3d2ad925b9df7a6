package calculator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseNumber 宽松解析原始计数值；空串、非数值、NaN/Inf 均视为 0
func ParseNumber(raw string) float64 {
	v, ok := ParseStrict(raw)
	if !ok {
		return 0
	}
	return v
}

// ParseStrict 严格解析：仅当 raw 为有限数值时返回 true（空串返回 false）
func ParseStrict(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParsePrefix 解析开头的数值部分（"10pcs" 为 10）；没有数值前缀时返回 false
func ParsePrefix(raw string) (float64, bool) {
	m := numberPrefix.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ShippedTotal 箱数合计：按逗号拆分，逐项取数值前缀后求和，无数值项计 0
func ShippedTotal(raw string) float64 {
	if strings.TrimSpace(raw) == "" {
		return 0
	}
	total := 0.0
	for _, token := range strings.Split(raw, ",") {
		if v, ok := ParsePrefix(token); ok {
			total += v
		}
	}
	return finite(total)
}

// ActQty ACT QTY = 标准包装数 × 箱数合计；包装数为 0 时为 0
func ActQty(shippedTotal float64, packSize int) float64 {
	if packSize == 0 {
		return 0
	}
	return finite(float64(packSize) * shippedTotal)
}

// Gap GAP = ACT QTY - (期初 + 产量 - 三路出货)
func Gap(actQty, stockStart, produced, ship1, ship2, ship3 float64) float64 {
	return finite(actQty - (stockStart + produced - ship1 - ship2 - ship3))
}

// Strength 库存可用天数：分母大于 0 时为 numerator/denominator，否则为 0
func Strength(numerator, denominator float64) float64 {
	if denominator > 0 {
		return finite(numerator / denominator)
	}
	return 0
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
