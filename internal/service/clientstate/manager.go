package clientstate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

const (
	schemaVersion = 1

	// DefaultSaveDebounce 编辑后延迟保存
	DefaultSaveDebounce = 2 * time.Second
	// DefaultAutoSaveInterval 周期自动保存
	DefaultAutoSaveInterval = 30 * time.Second

	maxImportHistory = 20
)

// Options 管理器参数
type Options struct {
	DataDir          string
	SaveDebounce     time.Duration
	AutoSaveInterval time.Duration
	Logger           *slog.Logger
}

// Manager 客户端状态管理器：启动时恢复、编辑后防抖保存、周期自动保存、退出时落盘
type Manager struct {
	dataDir  string
	store    *store.SheetStore
	logger   *slog.Logger
	debounce time.Duration
	interval time.Duration

	// saveMu 串行化"取快照 + 写文件"，保证后写入的总是较新的快照
	saveMu sync.Mutex

	mu        sync.Mutex
	saveTimer *time.Timer
	stop      chan struct{}
	wg        sync.WaitGroup
	started   bool
	status    Status
}

// NewManager 创建管理器
func NewManager(opts Options, sheets *store.SheetStore) (*Manager, error) {
	if opts.DataDir == "" {
		return nil, errors.New("dataDir is required")
	}
	if sheets == nil {
		return nil, errors.New("sheet store is required")
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = DefaultSaveDebounce
	}
	if opts.AutoSaveInterval <= 0 {
		opts.AutoSaveInterval = DefaultAutoSaveInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &Manager{
		dataDir:  opts.DataDir,
		store:    sheets,
		logger:   opts.Logger,
		debounce: opts.SaveDebounce,
		interval: opts.AutoSaveInterval,
	}
	// 未启动时 ScheduleSave 不做任何事
	sheets.OnChange(func(int) { m.ScheduleSave() })
	return m, nil
}

func (m *Manager) statePath() string {
	return filepath.Join(m.dataDir, "client_state.json")
}

func (m *Manager) historyPath() string {
	return filepath.Join(m.dataDir, "import_history.json")
}

// Init 恢复已保存状态并启动自动保存；重复调用无副作用
func (m *Manager) Init() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.stop = make(chan struct{})
	m.mu.Unlock()

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := m.load(); err != nil {
		// 状态文件损坏时从空表开始，不阻断启动
		m.logger.Warn("client state load failed", slog.String("path", m.statePath()), slog.Any("err", err))
	}

	m.wg.Add(1)
	go m.autoSaveLoop()
	return nil
}

func (m *Manager) load() error {
	var state fileState
	found, err := loadJSON(m.statePath(), &state)
	if err != nil || !found {
		return err
	}
	return m.store.Restore(state.PersistedState)
}

func (m *Manager) autoSaveLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			dirty := m.status.Dirty
			m.mu.Unlock()
			if !dirty {
				continue
			}
			if err := m.SaveNow(); err != nil {
				m.logger.Warn("auto save failed", slog.Any("err", err))
			}
		}
	}
}

// ScheduleSave 标记脏数据并重置防抖计时器
func (m *Manager) ScheduleSave() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return
	}
	m.status.Dirty = true
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.saveTimer = time.AfterFunc(m.debounce, func() {
		if err := m.SaveNow(); err != nil {
			m.logger.Warn("debounced save failed", slog.Any("err", err))
		}
	})
}

// SaveNow 立即写入状态文件
func (m *Manager) SaveNow() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	state := fileState{
		SchemaVersion:  schemaVersion,
		SavedAt:        time.Now().UTC(),
		PersistedState: m.store.Persisted(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := storeJSON(m.statePath(), state); err != nil {
		m.status.LastError = err.Error()
		return fmt.Errorf("failed to save client state: %w", err)
	}
	m.status.Dirty = false
	m.status.LastSavedAt = state.SavedAt
	m.status.LastError = ""
	return nil
}

// Status 当前保存状态
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// RecordImport 追加导入记录（仅保留最近若干条）
func (m *Manager) RecordImport(item ImportHistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, err := m.readHistoryLocked()
	if err != nil {
		return err
	}
	history = append([]ImportHistoryItem{item}, history...)
	if len(history) > maxImportHistory {
		history = history[:maxImportHistory]
	}
	return storeJSON(m.historyPath(), history)
}

// ImportHistory 读取导入记录（最新在前）
func (m *Manager) ImportHistory() ([]ImportHistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readHistoryLocked()
}

func (m *Manager) readHistoryLocked() ([]ImportHistoryItem, error) {
	history := []ImportHistoryItem{}
	if _, err := loadJSON(m.historyPath(), &history); err != nil {
		return nil, fmt.Errorf("failed to read import history: %w", err)
	}
	return history, nil
}

// Teardown 停止计时器与自动保存，并做最后一次保存
func (m *Manager) Teardown() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
	return m.SaveNow()
}
