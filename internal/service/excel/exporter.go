package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
)

// 工作表名称
const (
	SheetProduction    = "Production"
	SheetBoxCalc       = "Box Calculation"
	SheetStockStrength = "Stock Strength"
)

// 各表表头
var (
	ProductionHeaders = []string{"KODE INJECT", "STOCK AWAL", "PRODUKSI", "SURCIP", "SUNTER", "KIIC", "ACT QTY", "GAP"}
	BoxCalcHeaders    = []string{"KODE INJECT", "STDRT PACK", "ACT /BOX", "ACT QTY"}
	StrengthHeaders   = []string{"KODE INJECT", "STOCK REGULER", "ANZEN STOCK", "F/C 2D", "KEKUATAN STOCK /DAY", "KEKUATAN ANZEN STOCK /DAY"}
)

const headerColor = "#4361EE"

// Exporter Excel导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// FileName 导出文件名：Laporan_Produksi_<Day|Night>_<YYYY-MM-DD>.xlsx
func FileName(sheet model.Sheet, at time.Time) string {
	return fmt.Sprintf("Laporan_Produksi_%s_%s.xlsx", sheet.Shift(), at.Format("2006-01-02"))
}

// Export 导出当前表为三张工作表
func (e *Exporter) Export(snap model.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style failed: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create body style failed: %w", err)
	}

	sheets := []struct {
		name    string
		headers []string
		row     func(r model.Row) []interface{}
	}{
		{SheetProduction, ProductionHeaders, productionRow},
		{SheetBoxCalc, BoxCalcHeaders, boxCalcRow},
		{SheetStockStrength, StrengthHeaders, strengthRow},
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, err
		}

		for col, h := range sh.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sh.name, cell, h)
		}
		for r, row := range snap.Rows {
			for col, v := range sh.row(row) {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				f.SetCellValue(sh.name, cell, v)
			}
		}

		lastCell, _ := excelize.CoordinatesToCellName(len(sh.headers), len(snap.Rows)+1)
		if err := f.SetCellStyle(sh.name, "A1", lastCell, bodyStyle); err != nil {
			return nil, err
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(sh.headers), 1)
		if err := f.SetCellStyle(sh.name, "A1", lastHeader, headerStyle); err != nil {
			return nil, err
		}

		lastCol, _ := excelize.ColumnNumberToName(len(sh.headers))
		f.SetColWidth(sh.name, "A", "A", 14)
		f.SetColWidth(sh.name, "B", lastCol, 18)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// cellValue 原始输入：数值写为数字，空串留空，其余原样写文本
func cellValue(raw string) interface{} {
	if raw == "" {
		return nil
	}
	if v, ok := calculator.ParseStrict(raw); ok {
		return v
	}
	return raw
}

func productionRow(r model.Row) []interface{} {
	return []interface{}{
		r.Code,
		cellValue(r.Raw.StockAwal),
		cellValue(r.Raw.Produksi),
		cellValue(r.Raw.Surcip),
		cellValue(r.Raw.Sunter),
		cellValue(r.Raw.Kiic),
		r.Derived.ActQty,
		r.Derived.Gap,
	}
}

func boxCalcRow(r model.Row) []interface{} {
	return []interface{}{
		r.Code,
		r.PackSize,
		r.Raw.ActBox,
		r.Derived.ActQty,
	}
}

// strengthRow STOCK REGULER 列取 ACT QTY
func strengthRow(r model.Row) []interface{} {
	return []interface{}{
		r.Code,
		r.Derived.ActQty,
		cellValue(r.Raw.AnzenStock),
		cellValue(r.Raw.FC2D),
		r.Derived.KekuatanStock,
		r.Derived.KekuatanAnzen,
	}
}
