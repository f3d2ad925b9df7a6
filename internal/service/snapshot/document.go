package snapshot

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/util"
)

const (
	companyName = "PT FUJI SEAT INDONESIA"
	reportTitle = "Laporan Data Stock Akhir Proses Div.INJECTION"
	footerText  = "© 2025 Laporan Produksi Harian - PT Fuji Seat Indonesia"
)

var (
	idDays   = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	idMonths = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli",
		"Agustus", "September", "Oktober", "November", "Desember"}
)

// formatDateID 印尼语长日期，如 "Jumat, 7 Maret 2025"
func formatDateID(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", idDays[t.Weekday()], t.Day(), idMonths[t.Month()-1], t.Year())
}

// cell 表格单元格
type cell struct {
	Text  string
	Class string
}

type documentData struct {
	Company   string
	Title     string
	TableName string
	Sheet     model.Sheet
	Shift     string
	Date      string
	Time      string
	Generated string
	View      model.View
	Footer    string
	Headers   []string
	Rows      [][]cell
	Width     int
}

var (
	positiveRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
	negativeRe = regexp.MustCompile(`^-\d+(\.\d+)?$`)
)

func classify(text string, code bool) cell {
	switch {
	case code:
		return cell{Text: text, Class: "code"}
	case text == "":
		return cell{Text: "-", Class: "empty"}
	case text == "0" || text == "0.00":
		return cell{Text: text, Class: "zero"}
	case negativeRe.MatchString(text):
		return cell{Text: text, Class: "neg"}
	case positiveRe.MatchString(text):
		return cell{Text: text, Class: "pos"}
	}
	return cell{Text: text}
}

// tableFor 按视图生成表头与行；未知视图返回 false
func tableFor(view model.View, rows []model.Row) ([]string, [][]cell, bool) {
	qty := func(v float64) string { return util.FormatQuantity(v, 2) }
	ratio := func(v float64) string { return util.FormatRatio(v, 2) }

	var headers []string
	var values func(r model.Row) []string
	switch view {
	case model.ViewMain:
		headers = []string{"KODE INJECT", "STOCK AWAL", "PRODUKSI", "SURCIP", "SUNTER", "KIIC", "ACT QTY", "GAP"}
		values = func(r model.Row) []string {
			return []string{r.Code, r.Raw.StockAwal, r.Raw.Produksi, r.Raw.Surcip, r.Raw.Sunter, r.Raw.Kiic,
				qty(r.Derived.ActQty), qty(r.Derived.Gap)}
		}
	case model.ViewSecond:
		headers = []string{"KODE INJECT", "STDRT PACK", "ACT /BOX", "ACT QTY"}
		values = func(r model.Row) []string {
			return []string{r.Code, fmt.Sprint(r.PackSize), r.Raw.ActBox, qty(r.Derived.ActQty)}
		}
	case model.ViewThird:
		headers = []string{"KODE INJECT", "STOCK REGULER", "ANZEN STOCK", "F/C 2D", "KEKUATAN STOCK /DAY", "KEKUATAN ANZEN STOCK /DAY"}
		values = func(r model.Row) []string {
			return []string{r.Code, qty(r.Derived.ActQty), r.Raw.AnzenStock, r.Raw.FC2D,
				ratio(r.Derived.KekuatanStock), ratio(r.Derived.KekuatanAnzen)}
		}
	default:
		return nil, nil, false
	}

	out := make([][]cell, 0, len(rows))
	for _, r := range rows {
		vals := values(r)
		line := make([]cell, len(vals))
		for i, v := range vals {
			line[i] = classify(v, i == 0)
		}
		out = append(out, line)
	}
	return headers, out, true
}

// RenderHTML 生成离屏截图用的 HTML 文档
func RenderHTML(snap model.Snapshot, at time.Time, width int) ([]byte, error) {
	headers, rows, ok := tableFor(snap.View, snap.Rows)
	if !ok {
		return nil, model.NewRenderingError(model.MsgTableNotFound, fmt.Errorf("unknown view %q", snap.View), string(snap.View))
	}

	shift := "DAY"
	if snap.NightMode {
		shift = "NIGHT"
	}
	data := documentData{
		Company:   companyName,
		Title:     reportTitle,
		TableName: snap.View.TableName(),
		Sheet:     snap.Sheet,
		Shift:     shift,
		Date:      formatDateID(at),
		Time:      at.Format("15.04.05"),
		Generated: fmt.Sprintf("%s %s", formatDateID(at), at.Format("15.04.05")),
		View:      snap.View,
		Footer:    footerText,
		Headers:   headers,
		Rows:      rows,
		Width:     width,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return nil, model.NewRenderingError(model.MsgImageCanvas, fmt.Errorf("execute template: %w", err))
	}
	return buf.Bytes(), nil
}

var documentTemplate = template.Must(template.New("snapshot").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; width: {{.Width}}px; background: #ffffff; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; }
  header { background: linear-gradient(135deg, #1e3a8a 0%, #3730a3 50%, #4c1d95 100%); color: #ffffff; padding: 40px 20px; text-align: center; }
  header h1 { font-size: 36px; margin: 0 0 12px; }
  header h2 { font-size: 24px; margin: 0 0 8px; font-weight: 600; }
  header h3 { font-size: 20px; margin: 0 0 16px; font-weight: 600; }
  header .meta span { margin: 0 15px; font-size: 16px; }
  main { padding: 40px 20px; }
  table { width: 100%; max-width: 1400px; margin: 0 auto; border-collapse: collapse; font-size: 16px; border: 3px solid #e5e7eb; }
  caption { background: linear-gradient(135deg, #3b82f6 0%, #1d4ed8 100%); color: #ffffff; font-size: 20px; font-weight: bold; padding: 20px; text-transform: uppercase; letter-spacing: 1px; }
  th { background: #1d4ed8; color: #ffffff; padding: 18px 16px; border: 2px solid #1d4ed8; font-size: 15px; text-transform: uppercase; white-space: nowrap; }
  td { padding: 16px 12px; text-align: center; border: 2px solid #f3f4f6; color: #1f2937; font-size: 15px; }
  tbody tr:nth-child(odd) { background: #f9fafb; }
  td.code { text-align: left; font-weight: bold; padding-left: 20px; font-family: 'Courier New', monospace; color: #1e40af; background: #f8fafc; }
  td.pos { color: #059669; font-weight: bold; background: #ecfdf5; }
  td.neg { color: #dc2626; font-weight: bold; background: #fef2f2; }
  td.zero { color: #6b7280; }
  td.empty { color: #9ca3af; font-style: italic; }
  footer { background: linear-gradient(135deg, #1f2937 0%, #111827 100%); color: #ffffff; padding: 30px 20px; text-align: center; }
  footer .small { font-size: 12px; opacity: 0.6; }
</style>
</head>
<body>
<header>
  <h1>{{.Company}}</h1>
  <h2>{{.Title}}</h2>
  <h3>{{.TableName}} - Sheet {{.Sheet}}</h3>
  <div class="meta">
    <span><strong>Shift:</strong> {{.Shift}}</span>
    <span><strong>Tanggal:</strong> {{.Date}}</span>
    <span><strong>Waktu:</strong> {{.Time}}</span>
  </div>
</header>
<main>
  <table id="snapshotTable">
    <caption>{{.TableName}} - Sheet {{.Sheet}}</caption>
    <thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{- range .Rows}}
      <tr>{{range .}}<td{{if .Class}} class="{{.Class}}"{{end}}>{{.Text}}</td>{{end}}</tr>
    {{- end}}
    </tbody>
  </table>
</main>
<footer>
  <p>{{.Footer}}</p>
  <p>Dibuat pada: {{.Generated}}</p>
  <p class="small">Sheet {{.Sheet}} | View: {{.View}}</p>
</footer>
</body>
</html>
`))
