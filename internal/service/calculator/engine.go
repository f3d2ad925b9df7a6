package calculator

import "github.com/beduldjakurra/InjectSTO/internal/model"

// RecomputeRow 计算单行派生字段：ACT QTY → GAP，然后两项库存强度
func RecomputeRow(index int, raw model.RawInput) (model.Derived, error) {
	if err := model.CheckIndex(index); err != nil {
		return model.Derived{}, err
	}

	actQty := ActQty(ShippedTotal(raw.ActBox), model.PackSize(index))
	gap := Gap(
		actQty,
		ParseNumber(raw.StockAwal),
		ParseNumber(raw.Produksi),
		ParseNumber(raw.Surcip),
		ParseNumber(raw.Sunter),
		ParseNumber(raw.Kiic),
	)

	fc2d := ParseNumber(raw.FC2D)
	return model.Derived{
		ActQty: actQty,
		Gap:    gap,
		// 常规库存取 ACT QTY
		KekuatanStock: Strength(actQty, fc2d),
		KekuatanAnzen: Strength(ParseNumber(raw.AnzenStock), fc2d),
	}, nil
}

// Totals 整表汇总（导出合计行与报表摘要）
type Totals struct {
	StockAwal float64 `json:"stockAwal"`
	Produksi  float64 `json:"produksi"`
	Shipped   float64 `json:"shipped"` // 三路出货合计
	ActQty    float64 `json:"actQty"`
	Gap       float64 `json:"gap"`
	// FilledRows 至少有一个原始字段非空的行数
	FilledRows int `json:"filledRows"`
}

// Summarize 汇总整表
func Summarize(rows []model.Row) Totals {
	var t Totals
	for _, r := range rows {
		t.StockAwal += ParseNumber(r.Raw.StockAwal)
		t.Produksi += ParseNumber(r.Raw.Produksi)
		t.Shipped += ParseNumber(r.Raw.Surcip) + ParseNumber(r.Raw.Sunter) + ParseNumber(r.Raw.Kiic)
		t.ActQty += r.Derived.ActQty
		t.Gap += r.Derived.Gap
		if !isBlank(r.Raw) {
			t.FilledRows++
		}
	}
	return t
}

func isBlank(raw model.RawInput) bool {
	for _, f := range model.Fields {
		if raw.Get(f) != "" {
			return false
		}
	}
	return true
}
