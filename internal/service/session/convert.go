package session

import (
	"strconv"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
)

// formatNumber 远端数值转输入框字符串；0 显示为空
func formatNumber(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RecordToRow 远端行转本地行
func RecordToRow(rec model.ProductionRecord) model.Row {
	return model.Row{
		Index:    rec.InjectIndex,
		Code:     model.PartCode(rec.InjectIndex),
		PackSize: model.PackSize(rec.InjectIndex),
		Raw: model.RawInput{
			StockAwal:    formatNumber(rec.StockAwal),
			Produksi:     formatNumber(rec.Produksi),
			Surcip:       formatNumber(rec.Surcip),
			Sunter:       formatNumber(rec.Sunter),
			Kiic:         formatNumber(rec.Kiic),
			ActBox:       rec.ActBox,
			StockReguler: formatNumber(rec.StockReguler),
			AnzenStock:   formatNumber(rec.AnzenStock),
			FC2D:         formatNumber(rec.FC2D),
		},
		Derived: model.Derived{
			ActQty:        rec.ActQty,
			Gap:           rec.GapValue,
			KekuatanStock: rec.KekuatanStock,
			KekuatanAnzen: rec.KekuatanAnzen,
		},
	}
}

// mergeRaw 远端数值与本地输入等值时保留本地写法（如 "0"、"1.50"）
func mergeRaw(local, remote model.RawInput) model.RawInput {
	out := remote
	for _, f := range model.Fields {
		if f == model.FieldActBox {
			continue
		}
		l, r := local.Get(f), remote.Get(f)
		if l != r && calculator.ParseNumber(l) == calculator.ParseNumber(r) {
			out.Set(f, l)
		}
	}
	return out
}

// RowToUpdate 本地行转远端全字段更新
func RowToUpdate(row model.Row) model.RowUpdate {
	num := func(raw string) *float64 {
		v := calculator.ParseNumber(raw)
		return &v
	}
	val := func(v float64) *float64 {
		return &v
	}
	actBox := row.Raw.ActBox
	return model.RowUpdate{
		StockAwal:     num(row.Raw.StockAwal),
		Produksi:      num(row.Raw.Produksi),
		Surcip:        num(row.Raw.Surcip),
		Sunter:        num(row.Raw.Sunter),
		Kiic:          num(row.Raw.Kiic),
		ActBox:        &actBox,
		ActQty:        val(row.Derived.ActQty),
		GapValue:      val(row.Derived.Gap),
		StockReguler:  num(row.Raw.StockReguler),
		AnzenStock:    num(row.Raw.AnzenStock),
		FC2D:          num(row.Raw.FC2D),
		KekuatanStock: val(row.Derived.KekuatanStock),
		KekuatanAnzen: val(row.Derived.KekuatanAnzen),
	}
}
