package calculator

import (
	"fmt"
	"strings"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// ValidateRow 校验单行原始值（仅给出提示，不阻断写入）
func ValidateRow(index int, raw model.RawInput) []string {
	warnings := make([]string, 0, 2)
	code := model.PartCode(index)

	for _, f := range []model.Field{model.FieldStockAwal, model.FieldProduksi, model.FieldSurcip, model.FieldSunter, model.FieldKiic} {
		if v, ok := ParseStrict(raw.Get(f)); ok && v < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %s bernilai negatif", code, f))
		}
	}

	if strings.TrimSpace(raw.ActBox) != "" {
		for _, token := range strings.Split(raw.ActBox, ",") {
			if _, ok := ParsePrefix(token); !ok {
				warnings = append(warnings, fmt.Sprintf("%s: ACT /BOX %q diabaikan", code, strings.TrimSpace(token)))
			}
		}
	}

	return warnings
}
