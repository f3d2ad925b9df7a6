package store

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
)

// DefaultRecomputeDelay 切换表后延迟重算的时间
const DefaultRecomputeDelay = 100 * time.Millisecond

// WholeSheet 作为变更回调参数时表示整表变化
const WholeSheet = -1

// SheetStore 白班/夜班两张表的内存状态，所有修改由同一把锁串行化
type SheetStore struct {
	mu sync.Mutex

	sheets    map[model.Sheet]model.SheetData // 非活动表的暂存
	active    model.SheetData
	current   model.Sheet
	nightMode bool
	view      model.View

	recomputeDelay time.Duration
	hooks          []func(index int)
}

// PersistedState 客户端持久化结构
type PersistedState struct {
	SheetsData   map[string]model.SheetData `json:"sheetsData"`
	CurrentSheet model.Sheet                `json:"currentSheet"`
	IsNightMode  bool                       `json:"isNightMode"`
	CurrentView  model.View                 `json:"currentView"`
}

// NewSheetStore 创建空的表状态（白班、主视图）
func NewSheetStore() *SheetStore {
	return &SheetStore{
		sheets:         make(map[model.Sheet]model.SheetData),
		current:        model.SheetDay,
		view:           model.ViewMain,
		recomputeDelay: DefaultRecomputeDelay,
	}
}

// SetRecomputeDelay 调整切换表后的延迟重算时间
func (s *SheetStore) SetRecomputeDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeDelay = d
}

// OnChange 注册变更回调；index 为 WholeSheet 表示整表变化
func (s *SheetStore) OnChange(fn func(index int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// HookCount 已注册的回调数量
func (s *SheetStore) HookCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

func (s *SheetStore) notify(hooks []func(int), index int) {
	for _, fn := range hooks {
		fn(index)
	}
}

// SetField 写入原始字段并同步重算该行
func (s *SheetStore) SetField(index int, field model.Field, value string) (model.Row, error) {
	if err := model.CheckIndex(index); err != nil {
		return model.Row{}, err
	}

	s.mu.Lock()
	if !s.active.Inputs[index].Set(field, value) {
		s.mu.Unlock()
		return model.Row{}, model.NewValidationError(model.MsgUnknownField, fmt.Errorf("unknown field %q", field), string(field))
	}
	s.recomputeLocked(index)
	row := s.rowLocked(index)
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, index)
	return row, nil
}

// SetFields 批量写入原始字段（导入），先整体校验再写入，随后全量重算
func (s *SheetStore) SetFields(rows []model.ImportRow) error {
	for _, r := range rows {
		if err := model.CheckIndex(r.Index); err != nil {
			return err
		}
		for f := range r.Values {
			if _, err := model.ParseField(string(f)); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	for _, r := range rows {
		for f, v := range r.Values {
			s.active.Inputs[r.Index].Set(f, v)
		}
	}
	s.recomputeAllLocked()
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, WholeSheet)
	return nil
}

// RecomputeAll 重算全部行
func (s *SheetStore) RecomputeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeAllLocked()
}

func (s *SheetStore) recomputeAllLocked() {
	for i := 0; i < model.PartCount; i++ {
		s.recomputeLocked(i)
	}
}

func (s *SheetStore) recomputeLocked(index int) {
	derived, err := calculator.RecomputeRow(index, s.active.Inputs[index])
	if err != nil {
		return
	}
	s.active.Derived[index] = derived
}

// SwitchSheet 暂存当前表、载入目标表，并延迟重算；返回的通道在重算完成后关闭
func (s *SheetStore) SwitchSheet(sheet model.Sheet) (<-chan struct{}, error) {
	if !sheet.Valid() {
		return nil, model.NewValidationError(model.MsgUnknownSheet, fmt.Errorf("unknown sheet %d", sheet), int(sheet))
	}

	s.mu.Lock()
	s.sheets[s.current] = s.active
	if data, ok := s.sheets[sheet]; ok {
		s.active = data
	} else {
		s.active = model.SheetData{}
	}
	s.current = sheet
	s.nightMode = sheet == model.SheetNight
	delay := s.recomputeDelay
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, WholeSheet)

	done := make(chan struct{})
	time.AfterFunc(delay, func() {
		s.RecomputeAll()
		close(done)
	})
	return done, nil
}

// SetNightMode 夜间模式对应夜班表，否则白班表
func (s *SheetStore) SetNightMode(night bool) (<-chan struct{}, error) {
	return s.SwitchSheet(model.SheetForNightMode(night))
}

// ToggleNightMode 切换夜间模式
func (s *SheetStore) ToggleNightMode() (<-chan struct{}, error) {
	s.mu.Lock()
	night := s.nightMode
	s.mu.Unlock()
	return s.SetNightMode(!night)
}

// SetView 设置当前视图
func (s *SheetStore) SetView(view model.View) error {
	if !view.Valid() {
		return model.NewValidationError(model.MsgUnknownView, fmt.Errorf("unknown view %q", view), string(view))
	}
	s.mu.Lock()
	s.view = view
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, WholeSheet)
	return nil
}

// Reset 清空当前表
func (s *SheetStore) Reset() {
	s.mu.Lock()
	s.active = model.SheetData{}
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, WholeSheet)
}

// Row 读取单行
func (s *SheetStore) Row(index int) (model.Row, error) {
	if err := model.CheckIndex(index); err != nil {
		return model.Row{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowLocked(index), nil
}

func (s *SheetStore) rowLocked(index int) model.Row {
	return model.Row{
		Index:    index,
		Code:     model.PartCodes[index],
		PackSize: model.StdPacks[index],
		Raw:      s.active.Inputs[index],
		Derived:  s.active.Derived[index],
	}
}

// Snapshot 当前活动表的深拷贝
func (s *SheetStore) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.Row, 0, model.PartCount)
	for i := 0; i < model.PartCount; i++ {
		rows = append(rows, s.rowLocked(i))
	}
	return model.Snapshot{
		Sheet:     s.current,
		NightMode: s.nightMode,
		View:      s.view,
		Rows:      rows,
	}
}

// ApplyRows 批量覆盖活动表的原始值与派生值；任一下标非法时不做任何写入
func (s *SheetStore) ApplyRows(rows []model.Row) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	return s.ApplyRowsTo(current, rows)
}

// ApplyRowsTo 批量覆盖指定表（远端重载）；目标为非活动表时写入暂存
func (s *SheetStore) ApplyRowsTo(sheet model.Sheet, rows []model.Row) error {
	if !sheet.Valid() {
		return model.NewValidationError(model.MsgUnknownSheet, fmt.Errorf("unknown sheet %d", sheet), int(sheet))
	}
	for _, r := range rows {
		if err := model.CheckIndex(r.Index); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if sheet == s.current {
		for _, r := range rows {
			s.active.Inputs[r.Index] = r.Raw
			s.active.Derived[r.Index] = r.Derived
		}
	} else {
		data := s.sheets[sheet]
		for _, r := range rows {
			data.Inputs[r.Index] = r.Raw
			data.Derived[r.Index] = r.Derived
		}
		s.sheets[sheet] = data
	}
	hooks := s.hooks
	s.mu.Unlock()

	s.notify(hooks, WholeSheet)
	return nil
}

// SheetRows 指定表全部行的拷贝（可为非活动表）
func (s *SheetStore) SheetRows(sheet model.Sheet) ([]model.Row, error) {
	if !sheet.Valid() {
		return nil, model.NewValidationError(model.MsgUnknownSheet, fmt.Errorf("unknown sheet %d", sheet), int(sheet))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.active
	if sheet != s.current {
		data = s.sheets[sheet]
	}
	rows := make([]model.Row, 0, model.PartCount)
	for i := 0; i < model.PartCount; i++ {
		rows = append(rows, model.Row{
			Index:    i,
			Code:     model.PartCodes[i],
			PackSize: model.StdPacks[i],
			Raw:      data.Inputs[i],
			Derived:  data.Derived[i],
		})
	}
	return rows, nil
}

// Persisted 导出两张表及标志位（活动表写入其槽位）
func (s *SheetStore) Persisted() PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := PersistedState{
		SheetsData:   make(map[string]model.SheetData, 2),
		CurrentSheet: s.current,
		IsNightMode:  s.nightMode,
		CurrentView:  s.view,
	}
	for sheet, data := range s.sheets {
		state.SheetsData[strconv.Itoa(int(sheet))] = data
	}
	state.SheetsData[strconv.Itoa(int(s.current))] = s.active
	return state
}

// Restore 从持久化结构恢复，并同步重算活动表
func (s *SheetStore) Restore(state PersistedState) error {
	sheets := make(map[model.Sheet]model.SheetData, len(state.SheetsData))
	for key, data := range state.SheetsData {
		n, err := strconv.Atoi(key)
		if err != nil || !model.Sheet(n).Valid() {
			return model.NewValidationError(model.MsgUnknownSheet, fmt.Errorf("unknown sheet key %q", key), key)
		}
		sheets[model.Sheet(n)] = data
	}

	current := state.CurrentSheet
	if !current.Valid() {
		current = model.SheetForNightMode(state.IsNightMode)
	}
	view := state.CurrentView
	if !view.Valid() {
		view = model.ViewMain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheets = sheets
	s.active = sheets[current]
	s.current = current
	s.nightMode = current == model.SheetNight
	s.view = view
	s.recomputeAllLocked()
	return nil
}
