package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/session"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	PartCount    int                `json:"partCount"`    // 零件数量
	CurrentSheet model.Sheet        `json:"currentSheet"` // 当前表号
	IsNightMode  bool               `json:"isNightMode"`
	CurrentView  model.View         `json:"currentView"`
	Save         clientstate.Status `json:"save"`         // 本地保存状态
	RemoteOnline bool               `json:"remoteOnline"` // 远端库可用
	Session      session.State      `json:"session"`
	Locale       string             `json:"locale"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	snap := h.sheets.Snapshot()
	resp := StatusResponse{
		PartCount:    model.PartCount,
		CurrentSheet: snap.Sheet,
		IsNightMode:  snap.NightMode,
		CurrentView:  snap.View,
		Locale:       h.translator(c).Tag().String(),
	}
	if h.state != nil {
		resp.Save = h.state.Status()
	}
	if h.remote != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		resp.RemoteOnline = h.remote.Ping(ctx) == nil
		cancel()
	}
	if h.session != nil {
		resp.Session = h.session.State()
	}
	c.JSON(http.StatusOK, resp)
}

// GetCatalog 零件目录
// GET /api/catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": model.Catalog()})
}
