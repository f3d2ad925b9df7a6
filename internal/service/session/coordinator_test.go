package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
	dbstore "github.com/beduldjakurra/InjectSTO/internal/store"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *remote.Service, *store.SheetStore) {
	t.Helper()
	st, err := dbstore.New(filepath.Join(t.TempDir(), "remote.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	rs := remote.NewService(st, nil)
	sheets := store.NewSheetStore()
	c := NewCoordinator(rs, sheets, nil)
	t.Cleanup(c.Close)
	return c, rs, sheets
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInitializeCreatesSessionOnce(t *testing.T) {
	c, rs, _ := newTestCoordinator(t)
	ctx := context.Background()

	first, err := c.Initialize(ctx, "u1", "Shift A")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	rows, err := rs.ListRows(ctx, first.ID)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != model.PartCount {
		t.Fatalf("expected %d rows, got %d", model.PartCount, len(rows))
	}

	second, err := c.Initialize(ctx, "u1", "Shift B")
	if err != nil {
		t.Fatalf("initialize again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing session reused, got %s vs %s", second.ID, first.ID)
	}

	settings, err := rs.GetUserSettings(ctx, "u1")
	if err != nil || settings == nil || settings.LastSessionID != first.ID {
		t.Fatalf("last session not recorded: %+v %v", settings, err)
	}
}

func TestLocalEditIsPushed(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := sheets.SetField(2, model.FieldActBox, "1,1"); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	rec, err := rs.GetRow(ctx, session.ID, 2)
	if err != nil || rec == nil {
		t.Fatalf("get row: %+v %v", rec, err)
	}
	if rec.ActBox != "1,1" || rec.ActQty != 64 {
		t.Fatalf("unexpected remote row: %+v", rec)
	}
	if c.State().Status != StatusSuccess {
		t.Fatalf("unexpected status: %s", c.State().Status)
	}
}

func TestRemoteChangeReloadsLocal(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	produksi := 33.0
	if _, err := rs.UpdateRow(ctx, session.ID, 9, model.RowUpdate{Produksi: &produksi}); err != nil {
		t.Fatalf("remote update: %v", err)
	}

	waitFor(t, func() bool {
		row, _ := sheets.Row(9)
		return row.Raw.Produksi == "33"
	})
}

func TestDeleteSessionDetaches(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := c.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.Current() != nil {
		t.Fatal("expected no current session")
	}
	if err := c.Push(ctx, 0); model.KindOf(err) != model.KindNotFound {
		t.Fatalf("expected not-found without session, got %v", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	row := model.Row{
		Index: 1,
		Raw: model.RawInput{
			StockAwal: "12.5", Produksi: "", ActBox: "2, x", StockReguler: "7", AnzenStock: "4", FC2D: "2",
		},
		Derived: model.Derived{ActQty: 400, Gap: 387.5, KekuatanStock: 200, KekuatanAnzen: 2},
	}
	cols := RowToUpdate(row).Columns()
	rec := model.ProductionRecord{
		InjectIndex:   1,
		StockAwal:     cols["stock_awal"].(float64),
		Produksi:      cols["produksi"].(float64),
		ActBox:        cols["act_box"].(string),
		StockReguler:  cols["stock_reguler"].(float64),
		AnzenStock:    cols["anzen_stock"].(float64),
		FC2D:          cols["fc2d"].(float64),
		ActQty:        cols["act_qty"].(float64),
		GapValue:      cols["gap_value"].(float64),
		KekuatanStock: cols["kekuatan_stock"].(float64),
		KekuatanAnzen: cols["kekuatan_anzen"].(float64),
	}
	back := RecordToRow(rec)
	if back.Raw.StockAwal != "12.5" || back.Raw.Produksi != "" || back.Raw.ActBox != "2, x" || back.Raw.StockReguler != "7" {
		t.Fatalf("unexpected raw: %+v", back.Raw)
	}
	if back.Derived != row.Derived {
		t.Fatalf("unexpected derived: %+v", back.Derived)
	}
	if back.Code != model.PartCodes[1] {
		t.Fatalf("unexpected code %s", back.Code)
	}
}

func TestNightEditsStayOffBoundDaySession(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := sheets.SetField(i, model.FieldStockAwal, "100"); err != nil {
			t.Fatalf("SetField(%d): %v", i, err)
		}
	}

	done, err := sheets.SwitchSheet(model.SheetNight)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	<-done
	if _, err := sheets.SetField(0, model.FieldProduksi, "7"); err != nil {
		t.Fatalf("night SetField: %v", err)
	}

	for i := 0; i < 5; i++ {
		rec, err := rs.GetRow(ctx, session.ID, i)
		if err != nil || rec == nil {
			t.Fatalf("get row %d: %+v %v", i, rec, err)
		}
		if rec.StockAwal != 100 || rec.Produksi != 0 {
			t.Fatalf("row %d overwritten by night edit: %+v", i, rec)
		}
	}

	night := sheets.Snapshot()
	if night.Sheet != model.SheetNight {
		t.Fatalf("expected night sheet, got %v", night.Sheet)
	}
	for i := 0; i < 5; i++ {
		if night.Rows[i].Raw.StockAwal != "" {
			t.Fatalf("night row %d received day value %q", i, night.Rows[i].Raw.StockAwal)
		}
	}
	if night.Rows[0].Raw.Produksi != "7" {
		t.Fatalf("night edit lost: %+v", night.Rows[0].Raw)
	}

	done, err = sheets.SwitchSheet(model.SheetDay)
	if err != nil {
		t.Fatalf("switch back: %v", err)
	}
	<-done
	day := sheets.Snapshot()
	for i := 0; i < 5; i++ {
		if day.Rows[i].Raw.StockAwal != "100" || day.Rows[i].Raw.Produksi != "" {
			t.Fatalf("day row %d changed: %+v", i, day.Rows[i].Raw)
		}
	}
	if got := c.State().Sheet; got != model.SheetDay {
		t.Fatalf("expected session bound to day, got %v", got)
	}
}

func TestRemoteChangeWhileOnOtherSheetUpdatesBoundSheet(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	done, err := sheets.SwitchSheet(model.SheetNight)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	<-done

	produksi := 21.0
	if _, err := rs.UpdateRow(ctx, session.ID, 4, model.RowUpdate{Produksi: &produksi}); err != nil {
		t.Fatalf("remote update: %v", err)
	}
	waitFor(t, func() bool {
		rows, _ := sheets.SheetRows(model.SheetDay)
		return rows[4].Raw.Produksi == "21"
	})

	if row, _ := sheets.Row(4); row.Raw.Produksi != "" {
		t.Fatalf("night sheet received remote row: %+v", row.Raw)
	}
}

func TestTypedValuesSurviveOwnEcho(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := sheets.SetField(1, model.FieldStockAwal, "0"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if _, err := sheets.SetField(2, model.FieldProduksi, "1.50"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	row1, _ := sheets.Row(1)
	row2, _ := sheets.Row(2)
	if row1.Raw.StockAwal != "0" || row2.Raw.Produksi != "1.50" {
		t.Fatalf("typed values rewritten: %q %q", row1.Raw.StockAwal, row2.Raw.Produksi)
	}

	// 其他客户端的变更触发整表重载，等值输入仍保留原写法
	produksi := 5.0
	if _, err := rs.UpdateRow(ctx, session.ID, 9, model.RowUpdate{Produksi: &produksi}); err != nil {
		t.Fatalf("remote update: %v", err)
	}
	waitFor(t, func() bool {
		row, _ := sheets.Row(9)
		return row.Raw.Produksi == "5"
	})
	row1, _ = sheets.Row(1)
	row2, _ = sheets.Row(2)
	if row1.Raw.StockAwal != "0" || row2.Raw.Produksi != "1.50" {
		t.Fatalf("typed values rewritten by reload: %q %q", row1.Raw.StockAwal, row2.Raw.Produksi)
	}
}

func TestHandleChangeIgnoresOwnOrigin(t *testing.T) {
	c, rs, sheets := newTestCoordinator(t)
	ctx := context.Background()

	session, err := c.Initialize(ctx, "u1", "")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	c.Close()

	produksi := 8.0
	if _, err := rs.UpdateRow(ctx, session.ID, 3, model.RowUpdate{Produksi: &produksi}); err != nil {
		t.Fatalf("remote update: %v", err)
	}

	own := model.ChangeEvent{Type: model.ChangeUpdate, SessionID: session.ID, Origin: c.origin}
	if err := c.HandleChange(ctx, own); err != nil {
		t.Fatalf("handle own: %v", err)
	}
	if row, _ := sheets.Row(3); row.Raw.Produksi != "" {
		t.Fatalf("own event reloaded: %+v", row.Raw)
	}

	other := model.ChangeEvent{Type: model.ChangeUpdate, SessionID: session.ID, Origin: "other"}
	if err := c.HandleChange(ctx, other); err != nil {
		t.Fatalf("handle other: %v", err)
	}
	if row, _ := sheets.Row(3); row.Raw.Produksi != "8" {
		t.Fatalf("expected reload, got %+v", row.Raw)
	}
}

func TestMergeRaw(t *testing.T) {
	tests := []struct {
		name   string
		local  model.RawInput
		remote model.RawInput
		want   model.RawInput
	}{
		{"typed zero", model.RawInput{StockAwal: "0"}, model.RawInput{}, model.RawInput{StockAwal: "0"}},
		{"trailing zero", model.RawInput{Produksi: "1.50"}, model.RawInput{Produksi: "1.5"}, model.RawInput{Produksi: "1.50"}},
		{"remote differs", model.RawInput{Produksi: "2"}, model.RawInput{Produksi: "3"}, model.RawInput{Produksi: "3"}},
		{"act box from remote", model.RawInput{ActBox: "1, 1"}, model.RawInput{ActBox: "1,1"}, model.RawInput{ActBox: "1,1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeRaw(tt.local, tt.remote); got != tt.want {
				t.Fatalf("mergeRaw = %+v, want %+v", got, tt.want)
			}
		})
	}
}
