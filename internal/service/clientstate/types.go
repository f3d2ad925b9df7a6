package clientstate

import (
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

// fileState 客户端状态文件：data/client_state.json
type fileState struct {
	SchemaVersion int       `json:"schemaVersion"`
	SavedAt       time.Time `json:"savedAt"`
	store.PersistedState
}

// ImportHistoryItem 导入记录：data/import_history.json
type ImportHistoryItem struct {
	ImportedAt   time.Time          `json:"importedAt"`
	FileName     string             `json:"fileName"`
	Target       model.ImportTarget `json:"target"`
	Sheet        model.Sheet        `json:"sheet"`
	ImportedRows int                `json:"importedRows"`
	RejectedRows int                `json:"rejectedRows"`
}

// Status 保存状态
type Status struct {
	Dirty       bool      `json:"dirty"`
	LastSavedAt time.Time `json:"lastSavedAt"`
	LastError   string    `json:"lastError,omitempty"`
}
