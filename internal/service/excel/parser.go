package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
)

// DefaultMaxFileBytes 导入文件大小上限（5MB）
const DefaultMaxFileBytes int64 = 5 * 1024 * 1024

const headerKode = "KODE INJECT"

// importColumn 表头到原始字段的映射
type importColumn struct {
	header string
	field  model.Field
}

var importColumns = map[model.ImportTarget][]importColumn{
	model.ImportMain: {
		{"STOCK AWAL", model.FieldStockAwal},
		{"PRODUKSI", model.FieldProduksi},
		{"SURCIP", model.FieldSurcip},
		{"SUNTER", model.FieldSunter},
		{"KIIC", model.FieldKiic},
	},
	model.ImportStrength: {
		{"STOCK REGULER", model.FieldStockReguler},
		{"ANZEN STOCK", model.FieldAnzenStock},
		{"F/C 2D", model.FieldFC2D},
	},
}

// ExpectedHeaders 导入目标要求的表头
func ExpectedHeaders(target model.ImportTarget) []string {
	out := []string{headerKode}
	for _, c := range importColumns[target] {
		out = append(out, c.header)
	}
	return out
}

// Upload 待导入的文件
type Upload struct {
	Name string
	Size int64
	Data []byte
}

// Parser 导入解析器：完成全部校验后才返回可写入的行
type Parser struct {
	maxBytes int64
}

// NewParser 创建解析器；maxBytes <= 0 时使用 5MB
func NewParser(maxBytes int64) *Parser {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &Parser{maxBytes: maxBytes}
}

// ReadUpload 读取上传内容（超过上限时提前返回校验错误）
func (p *Parser) ReadUpload(name string, r io.Reader) (*Upload, error) {
	if r == nil || strings.TrimSpace(name) == "" {
		return nil, model.NewValidationError(model.MsgNoFile, errors.New("no file"))
	}
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, model.NewValidationError(model.MsgReadFailed, err)
	}
	return &Upload{Name: name, Size: int64(len(data)), Data: data}, nil
}

var extPattern = regexp.MustCompile(`(?i)\.(xlsx|xls)$`)

// Parse 按顺序校验：文件存在、扩展名、大小、工作表、行数、表头；随后逐行匹配编码
// 工作表取表头完整的第一张，都不完整时取第一张
func (p *Parser) Parse(up *Upload, target model.ImportTarget) ([]model.ImportRow, *model.ImportResult, error) {
	if up == nil || up.Name == "" {
		return nil, nil, model.NewValidationError(model.MsgNoFile, errors.New("no file"))
	}
	if !target.Valid() {
		return nil, nil, fmt.Errorf("unknown import target %q", target)
	}
	if !extPattern.MatchString(up.Name) {
		return nil, nil, model.NewValidationError(model.MsgBadExtension, fmt.Errorf("bad extension %q", filepath.Ext(up.Name)), filepath.Ext(up.Name))
	}
	if up.Size > p.maxBytes || int64(len(up.Data)) > p.maxBytes {
		return nil, nil, model.NewValidationError(model.MsgFileTooLarge, fmt.Errorf("file size %d exceeds %d", up.Size, p.maxBytes), p.maxBytes/(1024*1024))
	}

	f, err := excelize.OpenReader(bytes.NewReader(up.Data))
	if err != nil {
		return nil, nil, model.NewValidationError(model.MsgReadFailed, fmt.Errorf("failed to open excel: %w", err))
	}
	defer f.Close()

	match := RecognizeSheet(f, target)
	if match.SheetName == "" {
		return nil, nil, model.NewValidationError(model.MsgNoSheet, errors.New("workbook has no sheets"))
	}
	sheetName := match.SheetName
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, model.NewValidationError(model.MsgReadFailed, fmt.Errorf("failed to read rows: %w", err))
	}
	if len(rows) < 2 {
		return nil, nil, model.NewValidationError(model.MsgNotEnoughRows, fmt.Errorf("sheet %q has %d rows", sheetName, len(rows)))
	}

	colIndex := make(map[string]int)
	for i, h := range rows[0] {
		key := NormalizeHeader(h)
		if _, exists := colIndex[key]; !exists && key != "" {
			colIndex[key] = i
		}
	}
	expected := ExpectedHeaders(target)
	for _, h := range expected {
		if _, ok := colIndex[h]; !ok {
			return nil, nil, model.NewValidationError(model.MsgHeaderMismatch, fmt.Errorf("missing header %q", h), strings.Join(expected, ", "))
		}
	}

	result := &model.ImportResult{Target: target, SheetName: sheetName}
	out := make([]model.ImportRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(cellAt(row, colIndex[headerKode]))
		index := model.IndexOfPartCode(code)
		if index < 0 {
			result.SkippedRows++
			continue
		}

		values := make(map[model.Field]string, len(importColumns[target]))
		var bad string
		for _, c := range importColumns[target] {
			v := strings.TrimSpace(cellAt(row, colIndex[c.header]))
			if v != "" {
				if _, ok := calculator.ParseStrict(v); !ok {
					bad = fmt.Sprintf("%s: %q (%s)", code, v, c.header)
					break
				}
			}
			values[c.field] = v
		}
		if bad != "" {
			result.RejectedRows++
			result.Warnings = append(result.Warnings, bad)
			continue
		}

		out = append(out, model.ImportRow{Index: index, Code: code, Values: values})
	}

	if len(out) == 0 {
		return nil, result, model.NewValidationError(model.MsgNoValidRows, errors.New("no valid rows"))
	}
	result.ImportedRows = len(out)
	return out, result, nil
}

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeader 去首尾空白、转大写、合并连续空白
func NormalizeHeader(h string) string {
	return spaceRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(h)), " ")
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
