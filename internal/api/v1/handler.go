package v1

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/exporter"
	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/importer"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
	"github.com/beduldjakurra/InjectSTO/internal/service/session"
	"github.com/beduldjakurra/InjectSTO/internal/service/snapshot"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

// Deps 处理器依赖
type Deps struct {
	Sheets      *store.SheetStore
	State       *clientstate.Manager
	Parser      *excel.Parser
	Importer    *importer.Coordinator
	Exporter    *exporter.Exporter
	Snapshots   *snapshot.Generator
	Remote      *remote.Service
	Session     *session.Coordinator
	Translator  *i18n.Translator
	DefaultUser string
	Logger      *slog.Logger
}

// Handler V1 API 处理器
type Handler struct {
	sheets      *store.SheetStore
	state       *clientstate.Manager
	parser      *excel.Parser
	importer    *importer.Coordinator
	exporter    *exporter.Exporter
	snapshots   *snapshot.Generator
	remote      *remote.Service
	session     *session.Coordinator
	tr          *i18n.Translator
	defaultUser string
	logger      *slog.Logger
	downloads   *downloadStore
}

// NewHandler 创建 V1 API 处理器
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Translator == nil {
		d.Translator = i18n.New("")
	}
	if d.DefaultUser == "" {
		d.DefaultUser = "operator"
	}
	return &Handler{
		sheets:      d.Sheets,
		state:       d.State,
		parser:      d.Parser,
		importer:    d.Importer,
		exporter:    d.Exporter,
		snapshots:   d.Snapshots,
		remote:      d.Remote,
		session:     d.Session,
		tr:          d.Translator,
		defaultUser: d.DefaultUser,
		logger:      d.Logger,
		downloads:   newDownloadStore(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/catalog", h.GetCatalog)

	// 当前表
	router.GET("/sheet", h.GetSheet)
	router.PATCH("/sheet/rows/:index", h.UpdateRow)
	router.POST("/sheet/recompute", h.Recompute)
	router.POST("/sheet/switch", h.SwitchSheet)
	router.POST("/sheet/night-mode", h.SetNightMode)
	router.POST("/sheet/reset", h.ResetSheet)
	router.POST("/sheet/view", h.SetView)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/import/history", h.ImportHistory)

	// 数据导出
	router.GET("/export/xlsx", h.ExportXLSX)
	router.GET("/export/pdf", h.ExportPDF)
	router.POST("/export/image/stream", h.ExportImageStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 远端会话
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions/current", h.CurrentSession)
	router.POST("/sessions/sync", h.SyncSession)
	router.DELETE("/sessions/:id", h.DeleteSession)
	router.GET("/sessions/:id/rows", h.ListSessionRows)
	router.GET("/sessions/:id/events", h.SessionEvents)

	// 用户偏好
	router.GET("/settings/:userId", h.GetSettings)
	router.PUT("/settings/:userId", h.UpdateSettings)
}
