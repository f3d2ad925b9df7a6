package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

const pushTimeout = 10 * time.Second

// SyncStatus 同步状态
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
	StatusSuccess SyncStatus = "success"
	StatusError   SyncStatus = "error"
)

// State 协调器状态快照
type State struct {
	Session      *model.Session `json:"session"`
	Sheet        model.Sheet    `json:"sheet,omitempty"` // 会话绑定的班次表
	Status       SyncStatus     `json:"syncStatus"`
	LastSyncTime time.Time      `json:"lastSyncTime"`
	LastError    string         `json:"lastError,omitempty"`
}

// Coordinator 会话协调器：获取或创建活动会话、推送本地编辑、收到变更后整表重载
type Coordinator struct {
	remote *remote.Service
	sheets *store.SheetStore
	logger *slog.Logger
	origin string // 本协调器写入的标识，用于忽略自身回声

	// syncMu 串行化推送与重载
	syncMu sync.Mutex

	mu       sync.Mutex
	session  *model.Session
	sheet    model.Sheet
	sub      *remote.Subscription
	loopDone chan struct{}
	status   SyncStatus
	lastSync time.Time
	lastErr  string
}

// NewCoordinator 创建协调器，并在本地单行编辑后自动推送
func NewCoordinator(rs *remote.Service, sheets *store.SheetStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		remote: rs,
		sheets: sheets,
		logger: logger,
		origin: uuid.NewString(),
		status: StatusIdle,
	}
	sheets.OnChange(c.onLocalChange)
	return c
}

func (c *Coordinator) onLocalChange(index int) {
	if index < 0 || c.Current() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := c.Push(ctx, index); err != nil {
		c.logger.Warn("push local edit failed", slog.Int("index", index), slog.Any("err", err))
	}
}

// Initialize 获取或创建用户活动会话，载入行数据并订阅变更
func (c *Coordinator) Initialize(ctx context.Context, userID, name string) (*model.Session, error) {
	session, err := c.remote.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, c.fail(err)
	}
	if session == nil {
		session, err = c.remote.CreateSession(ctx, name, userID)
		if err != nil {
			return nil, c.fail(err)
		}
		if _, err := c.remote.InitializeRows(ctx, session.ID); err != nil {
			return nil, c.fail(err)
		}
	}

	c.Close()

	// 会话只有一套行数据，绑定到当前班次表；重复绑定同一会话时沿用原班次
	c.mu.Lock()
	if c.session == nil || c.session.ID != session.ID {
		c.sheet = c.sheets.Snapshot().Sheet
	}
	c.session = session
	c.mu.Unlock()

	if err := c.Sync(ctx); err != nil {
		return nil, err
	}

	sessionID := session.ID
	if _, err := c.remote.UpdateUserSettings(ctx, userID, remote.SettingsUpdate{LastSessionID: &sessionID}); err != nil {
		c.logger.Warn("record last session failed", slog.String("session_id", sessionID), slog.Any("err", err))
	}

	c.subscribe(session.ID)
	c.logger.Info("session attached", slog.String("session_id", session.ID), slog.String("user", userID))
	return session, nil
}

func (c *Coordinator) subscribe(sessionID string) {
	sub := c.remote.Subscribe(sessionID)
	done := make(chan struct{})

	c.mu.Lock()
	c.sub = sub
	c.loopDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range sub.Events() {
			if ev.Origin == c.origin {
				continue
			}
			if ev.Type == model.ChangeDelete {
				c.detach(sessionID)
				continue
			}
			if err := c.HandleChange(context.Background(), ev); err != nil {
				c.logger.Warn("reload after change failed", slog.String("session_id", sessionID), slog.Any("err", err))
			}
		}
	}()
}

// detach 会话被删除后解除绑定（在事件循环内调用，不等待循环退出）
func (c *Coordinator) detach(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.ID != sessionID {
		return
	}
	c.session = nil
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.status = StatusIdle
}

// Current 当前会话；未绑定时为 nil
func (c *Coordinator) Current() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// State 状态快照
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := State{
		Session:      c.session,
		Status:       c.status,
		LastSyncTime: c.lastSync,
		LastError:    c.lastErr,
	}
	if c.session != nil {
		state.Sheet = c.sheet
	}
	return state
}

// binding 当前会话 ID 与其绑定的班次表
func (c *Coordinator) binding() (string, model.Sheet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return "", 0, model.NewNotFoundError(model.MsgNoSession, errors.New("no active session"))
	}
	return c.session.ID, c.sheet, nil
}

func (c *Coordinator) update(row model.Row) model.RowUpdate {
	u := RowToUpdate(row)
	u.Origin = c.origin
	return u
}

// Push 将本地单行写入远端；活动表不是会话绑定的班次时只保留在本地
func (c *Coordinator) Push(ctx context.Context, index int) error {
	sessionID, sheet, err := c.binding()
	if err != nil {
		return err
	}
	if err := model.CheckIndex(index); err != nil {
		return err
	}
	snap := c.sheets.Snapshot()
	if snap.Sheet != sheet {
		return nil
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if _, err := c.remote.UpdateRow(ctx, sessionID, index, c.update(snap.Rows[index])); err != nil {
		return c.fail(err)
	}
	c.succeed()
	return nil
}

// PushAll 将会话绑定的班次表整表写入远端（导入、重置之后）
func (c *Coordinator) PushAll(ctx context.Context) error {
	sessionID, sheet, err := c.binding()
	if err != nil {
		return err
	}
	rows, err := c.sheets.SheetRows(sheet)
	if err != nil {
		return err
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	for _, row := range rows {
		if _, err := c.remote.UpdateRow(ctx, sessionID, row.Index, c.update(row)); err != nil {
			return c.fail(err)
		}
	}
	c.succeed()
	return nil
}

// HandleChange 收到其他客户端的变更：整表重载覆盖本地（后写入者胜出，不做合并）
func (c *Coordinator) HandleChange(ctx context.Context, ev model.ChangeEvent) error {
	session := c.Current()
	if session == nil || session.ID != ev.SessionID || ev.Origin == c.origin {
		return nil
	}
	return c.Sync(ctx)
}

// Sync 从远端整表重载到会话绑定的班次表（该表不在前台时写入暂存）
func (c *Coordinator) Sync(ctx context.Context) error {
	sessionID, sheet, err := c.binding()
	if err != nil {
		return err
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.setStatus(StatusSyncing)
	records, err := c.remote.ListRows(ctx, sessionID)
	if err != nil {
		return c.fail(err)
	}
	local, err := c.sheets.SheetRows(sheet)
	if err != nil {
		return c.fail(err)
	}
	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		if !model.ValidIndex(rec.InjectIndex) {
			continue
		}
		row := RecordToRow(rec)
		row.Raw = mergeRaw(local[rec.InjectIndex].Raw, row.Raw)
		rows = append(rows, row)
	}
	if err := c.sheets.ApplyRowsTo(sheet, rows); err != nil {
		return c.fail(err)
	}
	c.succeed()
	return nil
}

// DeleteSession 删除远端会话；若为当前会话则解除绑定
func (c *Coordinator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.remote.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	c.detach(sessionID)
	return nil
}

// Close 取消订阅并等待事件循环退出
func (c *Coordinator) Close() {
	c.mu.Lock()
	sub := c.sub
	done := c.loopDone
	c.sub = nil
	c.loopDone = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if done != nil {
		<-done
	}
}

func (c *Coordinator) setStatus(status SyncStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Coordinator) succeed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusSuccess
	c.lastSync = time.Now().UTC()
	c.lastErr = ""
}

func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusError
	c.lastErr = err.Error()
	return err
}
