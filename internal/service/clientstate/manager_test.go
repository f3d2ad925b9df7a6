package clientstate

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

func newTestManager(t *testing.T, dataDir string) (*Manager, *store.SheetStore) {
	t.Helper()
	sheets := store.NewSheetStore()
	sheets.SetRecomputeDelay(time.Millisecond)
	m, err := NewManager(Options{
		DataDir:          dataDir,
		SaveDebounce:     10 * time.Millisecond,
		AutoSaveInterval: time.Hour,
	}, sheets)
	if err != nil {
		t.Fatalf("create manager failed: %v", err)
	}
	if err := m.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return m, sheets
}

func TestNewManagerRequiresDataDir(t *testing.T) {
	if _, err := NewManager(Options{}, store.NewSheetStore()); err == nil {
		t.Fatal("expected error for empty dataDir")
	}
}

func TestTeardownPersistsAndInitRestores(t *testing.T) {
	dataDir := t.TempDir()
	m, sheets := newTestManager(t, dataDir)

	if _, err := sheets.SetField(0, model.FieldActBox, "2"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	done, err := sheets.SwitchSheet(model.SheetNight)
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	<-done
	if _, err := sheets.SetField(1, model.FieldProduksi, "9"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	if err := m.Teardown(); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "client_state.json")); err != nil {
		t.Fatalf("state file missing: %v", err)
	}

	m2, sheets2 := newTestManager(t, dataDir)
	defer m2.Teardown()

	snap := sheets2.Snapshot()
	if snap.Sheet != model.SheetNight || !snap.NightMode {
		t.Fatalf("expected night sheet restored, got %v", snap.Sheet)
	}
	if snap.Rows[1].Raw.Produksi != "9" {
		t.Fatalf("night row not restored: %+v", snap.Rows[1].Raw)
	}

	done, _ = sheets2.SwitchSheet(model.SheetDay)
	<-done
	if got := sheets2.Snapshot().Rows[0].Derived.ActQty; got != 208 {
		t.Fatalf("ActQty = %v, want 208", got)
	}
}

func TestScheduleSaveDebounces(t *testing.T) {
	dataDir := t.TempDir()
	m, sheets := newTestManager(t, dataDir)
	defer m.Teardown()

	if _, err := sheets.SetField(2, model.FieldSunter, "3"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if !m.Status().Dirty {
		t.Fatal("expected dirty after edit")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Status().Dirty {
		if time.Now().After(deadline) {
			t.Fatal("debounced save did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.Status().LastSavedAt.IsZero() {
		t.Fatal("expected LastSavedAt to be set")
	}
}

func TestCorruptStateFileStartsEmpty(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "client_state.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	m, sheets := newTestManager(t, dataDir)
	defer m.Teardown()

	if sheets.Snapshot().Sheet != model.SheetDay {
		t.Fatal("expected default day sheet")
	}
}

func TestRecordImportKeepsNewestFirst(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	defer m.Teardown()

	for i := 0; i < maxImportHistory+3; i++ {
		item := ImportHistoryItem{FileName: "f.xlsx", ImportedRows: i, Target: model.ImportMain}
		if err := m.RecordImport(item); err != nil {
			t.Fatalf("record import failed: %v", err)
		}
	}
	history, err := m.ImportHistory()
	if err != nil {
		t.Fatalf("read history failed: %v", err)
	}
	if len(history) != maxImportHistory {
		t.Fatalf("expected %d items, got %d", maxImportHistory, len(history))
	}
	if history[0].ImportedRows != maxImportHistory+2 {
		t.Fatalf("expected newest first, got %d", history[0].ImportedRows)
	}
}

func TestConcurrentSavesKeepLatestState(t *testing.T) {
	dataDir := t.TempDir()
	m, sheets := newTestManager(t, dataDir)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_ = m.SaveNow()
			}
		}()
	}

	for i := 1; i <= 50; i++ {
		if _, err := sheets.SetField(5, model.FieldStockAwal, strconv.Itoa(i)); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
	}
	if err := m.Teardown(); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}
	close(stop)
	wg.Wait()

	var state fileState
	found, err := loadJSON(filepath.Join(dataDir, "client_state.json"), &state)
	if err != nil || !found {
		t.Fatalf("read state failed: found=%v err=%v", found, err)
	}
	if got := state.SheetsData["1"].Inputs[5].StockAwal; got != "50" {
		t.Fatalf("stale snapshot persisted: stockAwal=%q", got)
	}
}

func TestInitAfterTeardownKeepsSingleHook(t *testing.T) {
	sheets := store.NewSheetStore()
	m, err := NewManager(Options{DataDir: t.TempDir(), SaveDebounce: 10 * time.Millisecond, AutoSaveInterval: time.Hour}, sheets)
	if err != nil {
		t.Fatalf("create manager failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Init(); err != nil {
			t.Fatalf("init failed: %v", err)
		}
		if err := m.Teardown(); err != nil {
			t.Fatalf("teardown failed: %v", err)
		}
	}
	if got := sheets.HookCount(); got != 1 {
		t.Fatalf("expected one change hook, got %d", got)
	}

	if _, err := sheets.SetField(0, model.FieldKiic, "1"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if m.Status().Dirty {
		t.Fatal("edit after teardown should not schedule a save")
	}
}
