package model

// ImportTarget 导入目标表
type ImportTarget string

const (
	ImportMain     ImportTarget = "main"     // 主表：库存/产量/出货
	ImportStrength ImportTarget = "strength" // 第三表：库存强度
)

// Valid 是否为合法导入目标
func (t ImportTarget) Valid() bool {
	return t == ImportMain || t == ImportStrength
}

// ImportRow 单个已校验的导入行
type ImportRow struct {
	Index  int              `json:"index"`
	Code   string           `json:"code"`
	Values map[Field]string `json:"values"`
}

// ImportResult 导入结果
type ImportResult struct {
	Target       ImportTarget `json:"target"`
	SheetName    string       `json:"sheetName"`
	ImportedRows int          `json:"importedRows"`
	SkippedRows  int          `json:"skippedRows"`  // 编码未匹配
	RejectedRows int          `json:"rejectedRows"` // 含非数值单元格
	Warnings     []string     `json:"warnings,omitempty"`
}
