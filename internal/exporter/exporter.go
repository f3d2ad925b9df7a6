package exporter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
)

// 报表内容类型
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// SnapshotSource 报表数据来源
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// Report 已生成的报表文件
type Report struct {
	FileName    string
	ContentType string
	Code        string
	Data        []byte
}

// Exporter 报表导出器（xlsx / pdf）
type Exporter struct {
	sheets SnapshotSource
	xlsx   *excel.Exporter
	now    func() time.Time
}

// NewExporter 创建导出器
func NewExporter(sheets SnapshotSource) *Exporter {
	return &Exporter{
		sheets: sheets,
		xlsx:   excel.NewExporter(),
		now:    time.Now,
	}
}

// ReportCode 报表编号：LP-<DAY|NIGHT>-<YYYYMMDD>
func ReportCode(sheet model.Sheet, at time.Time) string {
	shift := "DAY"
	if sheet == model.SheetNight {
		shift = "NIGHT"
	}
	return fmt.Sprintf("LP-%s-%s", shift, at.Format("20060102"))
}

// PDFFileName PDF 文件名，与 xlsx 同名不同后缀
func PDFFileName(sheet model.Sheet, at time.Time) string {
	return fmt.Sprintf("Laporan_Produksi_%s_%s.pdf", sheet.Shift(), at.Format("2006-01-02"))
}

// ExportXLSX 导出当前表为 xlsx
func (e *Exporter) ExportXLSX(progress func(ProgressEvent)) (*Report, error) {
	reportProgress(progress, 5, StageSnapshot)
	snap := e.sheets.Snapshot()
	at := e.now()

	reportProgress(progress, 30, StageRender)
	f, err := e.xlsx.Export(snap)
	if err != nil {
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	defer f.Close()

	reportProgress(progress, 80, StageEncode)
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	reportProgress(progress, 100, StageDone)
	return &Report{
		FileName:    excel.FileName(snap.Sheet, at),
		ContentType: ContentTypeXLSX,
		Code:        ReportCode(snap.Sheet, at),
		Data:        buf.Bytes(),
	}, nil
}

// ExportPDF 导出当前表为 PDF（三张表、标题与报表条码）
func (e *Exporter) ExportPDF(progress func(ProgressEvent)) (*Report, error) {
	reportProgress(progress, 5, StageSnapshot)
	snap := e.sheets.Snapshot()
	at := e.now()
	code := ReportCode(snap.Sheet, at)

	reportProgress(progress, 15, StageBarcode)
	barcodePNG, err := renderCode128PNG(code, 900, 180)
	if err != nil {
		return nil, fmt.Errorf("render report barcode: %w", err)
	}

	reportProgress(progress, 30, StageRender)
	data, err := renderReportPDF(snap, code, barcodePNG, at, func(done, total int) {
		reportProgress(progress, 30+done*60/total, StageRender)
	})
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	reportProgress(progress, 100, StageDone)
	return &Report{
		FileName:    PDFFileName(snap.Sheet, at),
		ContentType: ContentTypePDF,
		Code:        code,
		Data:        data,
	}, nil
}
