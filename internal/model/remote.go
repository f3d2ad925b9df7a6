package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Session 远端生产会话（每个用户至多一个活动会话）
type Session struct {
	bun.BaseModel `bun:"table:production_sessions,alias:ps"`

	ID          string    `bun:"id,pk" json:"id"`
	SessionName string    `bun:"session_name,notnull" json:"sessionName"`
	CreatedBy   string    `bun:"created_by,notnull" json:"createdBy"`
	IsActive    bool      `bun:"is_active,notnull" json:"isActive"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// ProductionRecord 远端单行数据（按 session_id + inject_index 唯一）
type ProductionRecord struct {
	bun.BaseModel `bun:"table:production_data,alias:pd"`

	ID            string    `bun:"id,pk" json:"id"`
	SessionID     string    `bun:"session_id,notnull" json:"sessionId"`
	KodeInject    string    `bun:"kode_inject,notnull" json:"kodeInject"`
	InjectIndex   int       `bun:"inject_index,notnull" json:"injectIndex"`
	StockAwal     float64   `bun:"stock_awal,notnull" json:"stockAwal"`
	Produksi      float64   `bun:"produksi,notnull" json:"produksi"`
	Surcip        float64   `bun:"surcip,notnull" json:"surcip"`
	Sunter        float64   `bun:"sunter,notnull" json:"sunter"`
	Kiic          float64   `bun:"kiic,notnull" json:"kiic"`
	ActBox        string    `bun:"act_box,notnull" json:"actBox"`
	StdrtPack     int       `bun:"stdrt_pack,notnull" json:"stdrtPack"`
	ActQty        float64   `bun:"act_qty,notnull" json:"actQty"`
	GapValue      float64   `bun:"gap_value,notnull" json:"gapValue"`
	StockReguler  float64   `bun:"stock_reguler,notnull" json:"stockReguler"`
	AnzenStock    float64   `bun:"anzen_stock,notnull" json:"anzenStock"`
	FC2D          float64   `bun:"fc2d,notnull" json:"fc2d"`
	KekuatanStock float64   `bun:"kekuatan_stock,notnull" json:"kekuatanStock"`
	KekuatanAnzen float64   `bun:"kekuatan_anzen,notnull" json:"kekuatanAnzen"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// RowUpdate 单行部分更新；nil 字段不写
type RowUpdate struct {
	StockAwal     *float64 `json:"stockAwal,omitempty"`
	Produksi      *float64 `json:"produksi,omitempty"`
	Surcip        *float64 `json:"surcip,omitempty"`
	Sunter        *float64 `json:"sunter,omitempty"`
	Kiic          *float64 `json:"kiic,omitempty"`
	ActBox        *string  `json:"actBox,omitempty"`
	ActQty        *float64 `json:"actQty,omitempty"`
	GapValue      *float64 `json:"gapValue,omitempty"`
	StockReguler  *float64 `json:"stockReguler,omitempty"`
	AnzenStock    *float64 `json:"anzenStock,omitempty"`
	FC2D          *float64 `json:"fc2d,omitempty"`
	KekuatanStock *float64 `json:"kekuatanStock,omitempty"`
	KekuatanAnzen *float64 `json:"kekuatanAnzen,omitempty"`

	// Origin 写入方标识，随变更事件广播，不落库
	Origin string `json:"-"`
}

// Columns 返回待写入的列与值（列名与表结构一致）
func (u RowUpdate) Columns() map[string]any {
	cols := make(map[string]any)
	putFloat := func(name string, v *float64) {
		if v != nil {
			cols[name] = *v
		}
	}
	putFloat("stock_awal", u.StockAwal)
	putFloat("produksi", u.Produksi)
	putFloat("surcip", u.Surcip)
	putFloat("sunter", u.Sunter)
	putFloat("kiic", u.Kiic)
	if u.ActBox != nil {
		cols["act_box"] = *u.ActBox
	}
	putFloat("act_qty", u.ActQty)
	putFloat("gap_value", u.GapValue)
	putFloat("stock_reguler", u.StockReguler)
	putFloat("anzen_stock", u.AnzenStock)
	putFloat("fc2d", u.FC2D)
	putFloat("kekuatan_stock", u.KekuatanStock)
	putFloat("kekuatan_anzen", u.KekuatanAnzen)
	return cols
}

// Empty 是否没有任何待写字段
func (u RowUpdate) Empty() bool {
	return len(u.Columns()) == 0
}

// UserSettings 用户偏好（夜间模式、当前视图、最近会话）
type UserSettings struct {
	bun.BaseModel `bun:"table:user_settings,alias:us"`

	ID            string    `bun:"id,pk" json:"id"`
	UserID        string    `bun:"user_id,notnull,unique" json:"userId"`
	IsNightMode   bool      `bun:"is_night_mode,notnull" json:"isNightMode"`
	CurrentView   View      `bun:"current_view,notnull" json:"currentView"`
	LastSessionID string    `bun:"last_session_id,notnull" json:"lastSessionId"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// ChangeType 实时事件类型
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent 行变更通知
type ChangeEvent struct {
	Type        ChangeType `json:"eventType"`
	SessionID   string     `json:"sessionId"`
	InjectIndex int        `json:"injectIndex"` // 整表事件为 -1
	Origin      string     `json:"origin,omitempty"`
	At          time.Time  `json:"commitTimestamp"`
}
