package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

type fakeRecorder struct {
	items []clientstate.ImportHistoryItem
}

func (r *fakeRecorder) RecordImport(item clientstate.ImportHistoryItem) error {
	r.items = append(r.items, item)
	return nil
}

type fakePusher struct {
	calls int
	err   error
}

func (p *fakePusher) PushAll(ctx context.Context) error {
	p.calls++
	return p.err
}

func workbook(t *testing.T, rows [][]interface{}) *excel.Upload {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook failed: %v", err)
	}
	return &excel.Upload{Name: "stock.xlsx", Size: int64(buf.Len()), Data: buf.Bytes()}
}

func collect(ch <-chan ProgressEvent) []ProgressEvent {
	var events []ProgressEvent
	for evt := range ch {
		events = append(events, evt)
	}
	return events
}

func TestImportMainTable(t *testing.T) {
	sheets := store.NewSheetStore()
	rec := &fakeRecorder{}
	push := &fakePusher{}
	c := NewCoordinator(excel.NewParser(0), sheets, i18n.New("id"), rec, push, nil)

	events := collect(c.Import(ImportOptions{
		Upload: workbook(t, [][]interface{}{
			{"KODE INJECT", "STOCK AWAL", "PRODUKSI", "SURCIP", "SUNTER", "KIIC"},
			{"J-303 RH", 100, 50, 10, 5, 5},
			{"NOPE", 1, 1, 1, 1, 1},
		}),
		Target: model.ImportMain,
	}))

	if len(events) == 0 || events[0].Type != "start" {
		t.Fatalf("first event should be start: %+v", events)
	}
	last := events[len(events)-1]
	if last.Type != "done" {
		t.Fatalf("last event should be done, got %s: %s", last.Type, last.Message)
	}
	result, ok := last.Data.(*model.ImportResult)
	if !ok {
		t.Fatalf("unexpected done data: %T", last.Data)
	}
	if result.ImportedRows != 1 || result.SkippedRows != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	row, err := sheets.Row(0)
	if err != nil {
		t.Fatalf("Row failed: %v", err)
	}
	if row.Raw.StockAwal != "100" || row.Raw.Kiic != "5" {
		t.Fatalf("row not applied: %+v", row.Raw)
	}
	if len(rec.items) != 1 || rec.items[0].ImportedRows != 1 || rec.items[0].FileName != "stock.xlsx" {
		t.Fatalf("history not recorded: %+v", rec.items)
	}
	if push.calls != 1 {
		t.Fatalf("expected one push, got %d", push.calls)
	}
}

func TestImportRejectedLeavesSheetUntouched(t *testing.T) {
	sheets := store.NewSheetStore()
	if _, err := sheets.SetField(0, model.FieldStockAwal, "7"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	rec := &fakeRecorder{}
	push := &fakePusher{}
	c := NewCoordinator(excel.NewParser(0), sheets, nil, rec, push, nil)

	events := collect(c.Import(ImportOptions{
		Upload: workbook(t, [][]interface{}{
			{"KODE INJECT", "STOCK AWAL"},
			{"J-303 RH", 100},
		}),
		Target: model.ImportMain,
	}))

	last := events[len(events)-1]
	if last.Type != "error" {
		t.Fatalf("expected error event, got %s", last.Type)
	}
	data, ok := last.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected error data: %T", last.Data)
	}
	ed, _ := data["error"].(ErrorData)
	if ed.Kind != model.KindValidation || ed.Key != model.MsgHeaderMismatch {
		t.Fatalf("unexpected error data: %+v", ed)
	}

	row, _ := sheets.Row(0)
	if row.Raw.StockAwal != "7" {
		t.Fatalf("sheet modified by rejected import: %+v", row.Raw)
	}
	if len(rec.items) != 0 || push.calls != 0 {
		t.Fatalf("rejected import should not record or push")
	}
}

func TestImportWithoutSessionStillSucceeds(t *testing.T) {
	tests := []struct {
		name     string
		pushErr  error
		wantInfo bool
	}{
		{"no session", model.NewNotFoundError(model.MsgNoSession, nil), false},
		{"remote down", model.NewConnectivityError(model.MsgRemoteFailed, errors.New("offline")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets := store.NewSheetStore()
			c := NewCoordinator(excel.NewParser(0), sheets, nil, nil, &fakePusher{err: tt.pushErr}, nil)
			events := collect(c.Import(ImportOptions{
				Upload: workbook(t, [][]interface{}{
					{"KODE INJECT", "STOCK REGULER", "ANZEN STOCK", "F/C 2D"},
					{"J-305", 20, 10, 5},
				}),
				Target: model.ImportStrength,
			}))

			if events[len(events)-1].Type != "done" {
				t.Fatalf("expected done, got %+v", events[len(events)-1])
			}
			infos := 0
			for _, evt := range events {
				if evt.Type == "info" {
					infos++
				}
			}
			// 校验信息 1 条，推送失败时再加 1 条
			want := 1
			if tt.wantInfo {
				want = 2
			}
			if infos != want {
				t.Fatalf("expected %d info events, got %d", want, infos)
			}
			row, _ := sheets.Row(1)
			if row.Raw.FC2D != "5" || row.Derived.KekuatanAnzen != 2 {
				t.Fatalf("strength import not applied: %+v", row)
			}
		})
	}
}

func TestImportProgressMessagesFollowLocale(t *testing.T) {
	rows := [][]interface{}{
		{"KODE INJECT", "STOCK AWAL", "PRODUKSI", "SURCIP", "SUNTER", "KIIC"},
		{"J-305", 1, 2, 0, 0, 0},
	}
	tests := []struct {
		locale    string
		wantStart string
		wantInfo  string
	}{
		{"id", "Mulai impor stock.xlsx", "1 baris valid dari sheet Sheet1"},
		{"en", "Importing stock.xlsx", "1 valid rows in sheet Sheet1"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			c := NewCoordinator(excel.NewParser(0), store.NewSheetStore(), i18n.New(tt.locale), nil, nil, nil)
			events := collect(c.Import(ImportOptions{Upload: workbook(t, rows), Target: model.ImportMain}))
			if len(events) < 2 {
				t.Fatalf("unexpected events: %+v", events)
			}
			if events[0].Type != "start" || events[0].Message != tt.wantStart {
				t.Fatalf("unexpected start message: %q", events[0].Message)
			}
			if events[1].Type != "info" || events[1].Message != tt.wantInfo {
				t.Fatalf("unexpected info message: %q", events[1].Message)
			}
		})
	}
}
