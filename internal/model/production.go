package model

import "fmt"

// Field 原始输入字段（前端单元格）
type Field string

const (
	FieldStockAwal    Field = "stockAwal"    // 期初库存 STOCK AWAL
	FieldProduksi     Field = "produksi"     // 本班产量 PRODUKSI
	FieldSurcip       Field = "surcip"       // 出货 SURCIP
	FieldSunter       Field = "sunter"       // 出货 SUNTER
	FieldKiic         Field = "kiic"         // 出货 KIIC
	FieldActBox       Field = "actBox"       // 实际出货箱数列表 ACT /BOX，逗号分隔
	FieldStockReguler Field = "stockReguler" // 常规库存 STOCK REGULER
	FieldAnzenStock   Field = "anzenStock"   // 安全库存 ANZEN STOCK
	FieldFC2D         Field = "fc2d"         // 两日预测 F/C 2D
)

// Fields 全部原始字段（固定顺序）
var Fields = []Field{
	FieldStockAwal, FieldProduksi, FieldSurcip, FieldSunter, FieldKiic,
	FieldActBox, FieldStockReguler, FieldAnzenStock, FieldFC2D,
}

// ParseField 解析字段名
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", NewValidationError(MsgUnknownField, fmt.Errorf("unknown field %q", s), s)
}

// RawInput 单行原始输入，全部以字符串保存（与输入框一致）
type RawInput struct {
	StockAwal    string `json:"stockAwal"`
	Produksi     string `json:"produksi"`
	Surcip       string `json:"surcip"`
	Sunter       string `json:"sunter"`
	Kiic         string `json:"kiic"`
	ActBox       string `json:"actBox"`
	StockReguler string `json:"stockReguler"`
	AnzenStock   string `json:"anzenStock"`
	FC2D         string `json:"fc2d"`
}

// Get 按字段读取
func (r *RawInput) Get(f Field) string {
	switch f {
	case FieldStockAwal:
		return r.StockAwal
	case FieldProduksi:
		return r.Produksi
	case FieldSurcip:
		return r.Surcip
	case FieldSunter:
		return r.Sunter
	case FieldKiic:
		return r.Kiic
	case FieldActBox:
		return r.ActBox
	case FieldStockReguler:
		return r.StockReguler
	case FieldAnzenStock:
		return r.AnzenStock
	case FieldFC2D:
		return r.FC2D
	}
	return ""
}

// Set 按字段写入，未知字段返回 false
func (r *RawInput) Set(f Field, value string) bool {
	switch f {
	case FieldStockAwal:
		r.StockAwal = value
	case FieldProduksi:
		r.Produksi = value
	case FieldSurcip:
		r.Surcip = value
	case FieldSunter:
		r.Sunter = value
	case FieldKiic:
		r.Kiic = value
	case FieldActBox:
		r.ActBox = value
	case FieldStockReguler:
		r.StockReguler = value
	case FieldAnzenStock:
		r.AnzenStock = value
	case FieldFC2D:
		r.FC2D = value
	default:
		return false
	}
	return true
}

// Derived 计算字段
type Derived struct {
	ActQty        float64 `json:"actQty"`        // ACT QTY = 标准包装 × 箱数合计
	Gap           float64 `json:"gap"`           // GAP
	KekuatanStock float64 `json:"kekuatanStock"` // 常规库存可用天数
	KekuatanAnzen float64 `json:"kekuatanAnzen"` // 安全库存可用天数
}

// Row 单行完整数据（用于接口与导出）
type Row struct {
	Index    int      `json:"index"`
	Code     string   `json:"code"`
	PackSize int      `json:"packSize"`
	Raw      RawInput `json:"raw"`
	Derived  Derived  `json:"derived"`
}

// SheetData 一张表（白班/夜班）的全部行
type SheetData struct {
	Inputs  [PartCount]RawInput `json:"inputValues"`
	Derived [PartCount]Derived  `json:"derivedValues"`
}

// Sheet 班次表编号
type Sheet int

const (
	SheetDay   Sheet = 1 // 白班
	SheetNight Sheet = 2 // 夜班
)

// Valid 是否为合法表号
func (s Sheet) Valid() bool {
	return s == SheetDay || s == SheetNight
}

// Shift 班次名（用于文件名）
func (s Sheet) Shift() string {
	if s == SheetNight {
		return "Night"
	}
	return "Day"
}

// SheetForNightMode 夜间模式对应的表号
func SheetForNightMode(night bool) Sheet {
	if night {
		return SheetNight
	}
	return SheetDay
}

// View 当前视图（三张报表）
type View string

const (
	ViewMain   View = "main"   // Stock Produksi
	ViewSecond View = "second" // Perhitungan Box
	ViewThird  View = "third"  // Kekuatan Stock
)

// Valid 是否为合法视图
func (v View) Valid() bool {
	return v == ViewMain || v == ViewSecond || v == ViewThird
}

// TableName 视图对应的报表名称
func (v View) TableName() string {
	switch v {
	case ViewSecond:
		return "Perhitungan Box"
	case ViewThird:
		return "Kekuatan Stock"
	default:
		return "Stock Produksi"
	}
}

// Snapshot 当前活动表的一致性快照
type Snapshot struct {
	Sheet     Sheet `json:"sheet"`
	NightMode bool  `json:"nightMode"`
	View      View  `json:"view"`
	Rows      []Row `json:"rows"`
}
