package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/beduldjakurra/InjectSTO/internal/exporter"
	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/importer"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
	"github.com/beduldjakurra/InjectSTO/internal/service/session"
	"github.com/beduldjakurra/InjectSTO/internal/service/snapshot"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
	dbstore "github.com/beduldjakurra/InjectSTO/internal/store"
)

// fakeRaster 固定输出 3MB
type fakeRaster struct{}

func (fakeRaster) Rasterize(ctx context.Context, html []byte, opts snapshot.RasterOptions) ([]byte, error) {
	return make([]byte, 3*1024*1024), nil
}

type testEnv struct {
	router *gin.Engine
	sheets *store.SheetStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := dbstore.New(filepath.Join(t.TempDir(), "remote.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sheets := store.NewSheetStore()
	sheets.SetRecomputeDelay(time.Millisecond)

	state, err := clientstate.NewManager(clientstate.Options{
		DataDir:          t.TempDir(),
		SaveDebounce:     10 * time.Millisecond,
		AutoSaveInterval: time.Hour,
	}, sheets)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	if err := state.Init(); err != nil {
		t.Fatalf("init manager: %v", err)
	}
	t.Cleanup(func() { _ = state.Teardown() })

	rs := remote.NewService(st, nil)
	coord := session.NewCoordinator(rs, sheets, nil)
	t.Cleanup(coord.Close)

	tr := i18n.New("id")
	parser := excel.NewParser(0)
	h := NewHandler(Deps{
		Sheets:     sheets,
		State:      state,
		Parser:     parser,
		Importer:   importer.NewCoordinator(parser, sheets, tr, state, coord, nil),
		Exporter:   exporter.NewExporter(sheets),
		Snapshots:  snapshot.NewGenerator(fakeRaster{}, snapshot.DefaultConfig(), nil),
		Remote:     rs,
		Session:    coord,
		Translator: tr,
	})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, sheets: sheets}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}
}

// sseEvents 解析 data: 行
func sseEvents(t *testing.T, body string) []streamEvent {
	t.Helper()
	var events []streamEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, evt)
	}
	if len(events) == 0 {
		t.Fatalf("no events in body: %s", body)
	}
	return events
}

func TestUpdateRowRecomputes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/sheet/rows/0", map[string]any{
		"values": map[string]string{"actBox": "10,5", "stockAwal": "100"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var resp UpdateRowResponse
	decode(t, w, &resp)
	if resp.Row.Derived.ActQty != 1560 || resp.Row.Derived.Gap != 1460 {
		t.Fatalf("unexpected derived values: %+v", resp.Row.Derived)
	}

	var sheet SheetResponse
	decode(t, env.do(t, http.MethodGet, "/api/sheet", nil), &sheet)
	if sheet.Rows[0].Raw.StockAwal != "100" || sheet.Totals.ActQty != 1560 {
		t.Fatalf("sheet not updated: %+v", sheet.Rows[0])
	}
}

func TestUpdateRowValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		path    string
		body    map[string]any
		wantKey string
	}{
		{"index out of range", "/api/sheet/rows/40", map[string]any{"values": map[string]string{"stockAwal": "1"}}, model.MsgIndexOutOfRange},
		{"bad index", "/api/sheet/rows/abc", map[string]any{"values": map[string]string{"stockAwal": "1"}}, model.MsgIndexOutOfRange},
		{"unknown field", "/api/sheet/rows/1", map[string]any{"values": map[string]string{"nope": "1"}}, model.MsgUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: %d", w.Code)
			}
			var body errorBody
			decode(t, w, &body)
			if body.Key != tt.wantKey || body.Kind != model.KindValidation || body.Error == "" {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestNightModeSwitchesSheets(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPatch, "/api/sheet/rows/0", map[string]any{"values": map[string]string{"stockAwal": "5"}})

	w := env.do(t, http.MethodPost, "/api/sheet/night-mode", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var sheet SheetResponse
	decode(t, w, &sheet)
	if sheet.Sheet != model.SheetNight || !sheet.NightMode || sheet.Rows[0].Raw.StockAwal != "" {
		t.Fatalf("night sheet not active: sheet=%d night=%v", sheet.Sheet, sheet.NightMode)
	}

	decode(t, env.do(t, http.MethodPost, "/api/sheet/switch", map[string]any{"sheet": 1}), &sheet)
	if sheet.Sheet != model.SheetDay || sheet.Rows[0].Raw.StockAwal != "5" {
		t.Fatalf("day sheet not restored: %+v", sheet.Rows[0].Raw)
	}

	if w := env.do(t, http.MethodPost, "/api/sheet/switch", map[string]any{"sheet": 3}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sheet, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/sheet/view", map[string]any{"view": "fourth"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown view, got %d", w.Code)
	}
}

func buildUpload(t *testing.T, rows [][]interface{}, target string) *http.Request {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	var xlsx bytes.Buffer
	if err := f.Write(&xlsx); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	_ = f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "stock.xlsx")
	_, _ = fw.Write(xlsx.Bytes())
	_ = mw.WriteField("target", target)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportStream(t *testing.T) {
	env := newTestEnv(t)

	req := buildUpload(t, [][]interface{}{
		{"KODE INJECT", "STOCK AWAL", "PRODUKSI", "SURCIP", "SUNTER", "KIIC"},
		{"J-303 RH", 100, 50, 10, 5, 5},
	}, "main")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	events := sseEvents(t, w.Body.String())
	if events[0].Type != "start" || events[len(events)-1].Type != "done" {
		t.Fatalf("unexpected events: %+v", events)
	}
	row, _ := env.sheets.Row(0)
	if row.Raw.StockAwal != "100" {
		t.Fatalf("import not applied: %+v", row.Raw)
	}

	var history struct {
		Items []clientstate.ImportHistoryItem `json:"items"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/import/history", nil), &history)
	if len(history.Items) != 1 || history.Items[0].FileName != "stock.xlsx" {
		t.Fatalf("unexpected history: %+v", history.Items)
	}
}

func TestImportMissingHeaderLeavesSheet(t *testing.T) {
	env := newTestEnv(t)

	req := buildUpload(t, [][]interface{}{
		{"KODE INJECT", "STOCK AWAL"},
		{"J-303 RH", 100},
	}, "main")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	events := sseEvents(t, w.Body.String())
	last := events[len(events)-1]
	if last.Type != "error" || !strings.Contains(w.Body.String(), model.MsgHeaderMismatch) {
		t.Fatalf("expected header mismatch error, got %+v", last)
	}
	row, _ := env.sheets.Row(0)
	if row.Raw.StockAwal != "" {
		t.Fatalf("sheet modified by rejected import")
	}
}

func TestImportWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("target", "main")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), model.MsgNoFile) {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}

func TestExportDownloads(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path        string
		contentType string
		suffix      string
	}{
		{"/api/export/xlsx", exporter.ContentTypeXLSX, ".xlsx"},
		{"/api/export/pdf", exporter.ContentTypePDF, ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("unexpected status: %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Fatalf("unexpected content type: %s", got)
			}
			cd := w.Header().Get("Content-Disposition")
			if !strings.Contains(cd, "Laporan_Produksi_Day_") || !strings.Contains(cd, tt.suffix) {
				t.Fatalf("unexpected content disposition: %s", cd)
			}
			if !strings.HasPrefix(w.Header().Get("X-Report-Code"), "LP-DAY-") {
				t.Fatalf("missing report code")
			}
		})
	}
}

func TestImageStreamAndDownload(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/export/image/stream", map[string]any{"view": "third"})
	events := sseEvents(t, w.Body.String())
	last := events[len(events)-1]
	if last.Type != "done" {
		t.Fatalf("expected done event, got %+v", last)
	}
	data, _ := last.Data.(map[string]interface{})
	url, _ := data["downloadUrl"].(string)
	if !strings.HasPrefix(url, "/api/export/download/") {
		t.Fatalf("unexpected download url: %q", url)
	}

	dl := env.do(t, http.MethodGet, url, nil)
	if dl.Code != http.StatusOK || dl.Header().Get("Content-Type") != contentTypeJPEG {
		t.Fatalf("unexpected download: %d %s", dl.Code, dl.Header().Get("Content-Type"))
	}
	if !strings.Contains(dl.Header().Get("Content-Disposition"), "Laporan_Kekuatan_Stock_Sheet1_Day_") {
		t.Fatalf("unexpected file name: %s", dl.Header().Get("Content-Disposition"))
	}
	if again := env.do(t, http.MethodGet, url, nil); again.Code != http.StatusNotFound {
		t.Fatalf("download token should be single use, got %d", again.Code)
	}
}

func TestImageStreamUnknownView(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/export/image/stream", map[string]any{"view": "fourth"})
	events := sseEvents(t, w.Body.String())
	last := events[len(events)-1]
	if last.Type != "error" || !strings.Contains(w.Body.String(), model.MsgTableNotFound) {
		t.Fatalf("expected table-not-found error, got %+v", last)
	}
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	var created struct {
		Session model.Session `json:"session"`
	}
	w := env.do(t, http.MethodPost, "/api/sessions", map[string]any{"userId": "u1", "sessionName": "Shift A"})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	decode(t, w, &created)
	if created.Session.ID == "" || created.Session.SessionName != "Shift A" {
		t.Fatalf("unexpected session: %+v", created.Session)
	}

	env.do(t, http.MethodPatch, "/api/sheet/rows/3", map[string]any{"values": map[string]string{"stockAwal": "42"}})

	var rows struct {
		Records []model.ProductionRecord `json:"records"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/sessions/"+created.Session.ID+"/rows", nil), &rows)
	if len(rows.Records) != model.PartCount || rows.Records[3].StockAwal != 42 {
		t.Fatalf("edit not pushed: %+v", rows.Records[3])
	}

	var state session.State
	decode(t, env.do(t, http.MethodGet, "/api/sessions/current", nil), &state)
	if state.Session == nil || state.Session.ID != created.Session.ID {
		t.Fatalf("unexpected state: %+v", state)
	}

	if w := env.do(t, http.MethodDelete, "/api/sessions/"+created.Session.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", w.Code)
	}
	decode(t, env.do(t, http.MethodGet, "/api/sessions/current", nil), &state)
	if state.Session != nil {
		t.Fatalf("session should be detached")
	}
	if w := env.do(t, http.MethodDelete, "/api/sessions/"+created.Session.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted session, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/sessions/missing/rows", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Settings *model.UserSettings `json:"settings"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/settings/u2", nil), &resp)
	if resp.Settings != nil {
		t.Fatalf("expected empty settings")
	}

	w := env.do(t, http.MethodPut, "/api/settings/u2", map[string]any{"isNightMode": true, "currentView": "third"})
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	decode(t, env.do(t, http.MethodGet, "/api/settings/u2", nil), &resp)
	if resp.Settings == nil || !resp.Settings.IsNightMode || resp.Settings.CurrentView != model.ViewThird {
		t.Fatalf("unexpected settings: %+v", resp.Settings)
	}

	if w := env.do(t, http.MethodPut, "/api/settings/u2", map[string]any{"currentView": "fourth"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown view, got %d", w.Code)
	}
}

func TestStatusAndCatalog(t *testing.T) {
	env := newTestEnv(t)

	var status StatusResponse
	decode(t, env.do(t, http.MethodGet, "/api/status", nil), &status)
	if status.PartCount != model.PartCount || !status.RemoteOnline || status.CurrentSheet != model.SheetDay {
		t.Fatalf("unexpected status: %+v", status)
	}

	var catalog struct {
		Items []model.CatalogEntry `json:"items"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/catalog", nil), &catalog)
	if len(catalog.Items) != model.PartCount || catalog.Items[0].Code != "J-303 RH" || catalog.Items[0].PackSize != 104 {
		t.Fatalf("unexpected catalog: %+v", catalog.Items[:1])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.NewValidationError(model.MsgNoFile, nil), http.StatusBadRequest},
		{model.NewRenderingError(model.MsgImageCanvas, nil), http.StatusUnprocessableEntity},
		{model.NewConnectivityError(model.MsgImageOffline, nil), http.StatusServiceUnavailable},
		{model.NewConnectivityError(model.MsgRemoteFailed, nil), http.StatusBadGateway},
		{model.NewNotFoundError(model.MsgSessionGone, nil), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestBuildContentDisposition(t *testing.T) {
	got := buildContentDisposition("Laporan Produksi.xlsx")
	want := "attachment; filename=\"Laporan Produksi.xlsx\"; filename*=UTF-8''Laporan%20Produksi.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
