package excel

import (
	"github.com/xuri/excelize/v2"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// SheetMatch 工作表识别结果
type SheetMatch struct {
	SheetName  string  `json:"sheetName"`
	Confidence float64 `json:"confidence"` // 命中的必需表头占比
}

// headerConfidence 首行命中必需表头的比例
func headerConfidence(header []string, target model.ImportTarget) float64 {
	expected := ExpectedHeaders(target)
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[NormalizeHeader(h)] = true
	}
	matched := 0
	for _, h := range expected {
		if present[h] {
			matched++
		}
	}
	return float64(matched) / float64(len(expected))
}

// RecognizeSheet 选出表头完整的第一张工作表；都不完整时退回第一张
func RecognizeSheet(f *excelize.File, target model.ImportTarget) SheetMatch {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return SheetMatch{}
	}
	first := SheetMatch{SheetName: sheets[0]}
	for i, name := range sheets {
		rows, err := f.Rows(name)
		if err != nil {
			continue
		}
		var header []string
		if rows.Next() {
			header, _ = rows.Columns()
		}
		_ = rows.Close()

		confidence := headerConfidence(header, target)
		if i == 0 {
			first.Confidence = confidence
		}
		if confidence == 1 {
			return SheetMatch{SheetName: name, Confidence: confidence}
		}
	}
	return first
}
