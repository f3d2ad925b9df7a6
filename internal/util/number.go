package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round 按小数位四舍五入（远离零）；NaN/Inf 返回 0
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatQuantity 数量显示：四舍五入后去掉多余的 0
func FormatQuantity(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return decimal.NewFromFloat(v).Round(places).String()
}

// FormatRatio 库存天数显示：固定小数位
func FormatRatio(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
