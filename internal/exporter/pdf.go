package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strconv"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/util"
)

const (
	companyName = "PT FUJI SEAT INDONESIA"
	reportTitle = "Laporan Data Stock Akhir Proses Div.INJECTION"
	footerText  = "© 2025 Laporan Produksi Harian - PT Fuji Seat Indonesia"

	pdfMargin    = 10.0
	pdfRowHeight = 3.8
)

// pdfTable 单张 PDF 表格
type pdfTable struct {
	title   string
	headers []string
	widths  []float64
	row     func(model.Row) []string
	total   []string
}

func renderReportPDF(snap model.Snapshot, code string, barcodePNG []byte, at time.Time, onTable func(done, total int)) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s %s", reportTitle, snap.Sheet.Shift()), false)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("report-barcode", opt, bytes.NewReader(barcodePNG))

	pdf.SetHeaderFunc(func() {
		pageW, _ := pdf.GetPageSize()
		pdf.SetFillColor(67, 97, 238)
		pdf.Rect(0, 0, pageW, 24, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(pdfMargin, 4)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(150, 8, companyName, "", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(150, 6, reportTitle, "", 2, "L", false, 0, "")
		pdf.CellFormat(150, 5, fmt.Sprintf("Shift: %s    Tanggal: %s", snap.Sheet.Shift(), at.Format("02/01/2006 15:04")), "", 0, "L", false, 0, "")

		imgW, imgH := 70.0, 13.0
		x := pageW - pdfMargin - imgW
		pdf.SetFillColor(255, 255, 255)
		pdf.Rect(x-2, 2, imgW+4, 21, "F")
		pdf.ImageOptions("report-barcode", x, 3, imgW, imgH, false, opt, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(x, 3+imgH)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(imgW, 4, code, "", 0, "C", false, 0, "")
		pdf.SetY(28)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 4, tr(footerText), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 4, fmt.Sprintf("Halaman %d", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	tables := reportTables(snap)
	for i, table := range tables {
		pdf.AddPage()
		drawTable(pdf, table, snap.Rows)
		if onTable != nil {
			onTable(i+1, len(tables))
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func reportTables(snap model.Snapshot) []pdfTable {
	totals := calculator.Summarize(snap.Rows)
	qty := func(v float64) string { return util.FormatQuantity(v, 2) }
	ratio := func(v float64) string { return util.FormatRatio(v, 2) }

	return []pdfTable{
		{
			title:   fmt.Sprintf("%s - Sheet %d", model.ViewMain.TableName(), snap.Sheet),
			headers: excel.ProductionHeaders,
			widths:  []float64{40, 32, 32, 32, 32, 32, 38, 38},
			row: func(r model.Row) []string {
				return []string{r.Code, r.Raw.StockAwal, r.Raw.Produksi, r.Raw.Surcip, r.Raw.Sunter, r.Raw.Kiic,
					qty(r.Derived.ActQty), qty(r.Derived.Gap)}
			},
			total: []string{"TOTAL", qty(totals.StockAwal), qty(totals.Produksi), "", "", "",
				qty(totals.ActQty), qty(totals.Gap)},
		},
		{
			title:   fmt.Sprintf("%s - Sheet %d", model.ViewSecond.TableName(), snap.Sheet),
			headers: excel.BoxCalcHeaders,
			widths:  []float64{50, 40, 127, 60},
			row: func(r model.Row) []string {
				return []string{r.Code, strconv.Itoa(r.PackSize), r.Raw.ActBox, qty(r.Derived.ActQty)}
			},
			total: []string{"TOTAL", "", "", qty(totals.ActQty)},
		},
		{
			title:   fmt.Sprintf("%s - Sheet %d", model.ViewThird.TableName(), snap.Sheet),
			headers: excel.StrengthHeaders,
			widths:  []float64{42, 42, 42, 42, 54, 55},
			row: func(r model.Row) []string {
				return []string{r.Code, qty(r.Derived.ActQty), r.Raw.AnzenStock, r.Raw.FC2D,
					ratio(r.Derived.KekuatanStock), ratio(r.Derived.KekuatanAnzen)}
			},
		},
	}
}

func drawTable(pdf *gofpdf.Fpdf, table pdfTable, rows []model.Row) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, table.title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(67, 97, 238)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range table.headers {
		pdf.CellFormat(table.widths[i], 5, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	for n, r := range rows {
		fill := n%2 == 1
		pdf.SetFillColor(240, 243, 255)
		for i, v := range table.row(r) {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(table.widths[i], pdfRowHeight, v, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if table.total != nil {
		pdf.SetFont("Helvetica", "B", 7)
		for i, v := range table.total {
			pdf.CellFormat(table.widths[i], pdfRowHeight, v, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
