package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/calculator"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
)

// SheetResponse 当前表响应
type SheetResponse struct {
	model.Snapshot
	Totals calculator.Totals `json:"totals"`
}

func (h *Handler) sheetResponse() SheetResponse {
	snap := h.sheets.Snapshot()
	return SheetResponse{Snapshot: snap, Totals: calculator.Summarize(snap.Rows)}
}

// GetSheet 当前活动表
// GET /api/sheet
func (h *Handler) GetSheet(c *gin.Context) {
	c.JSON(http.StatusOK, h.sheetResponse())
}

// UpdateRowRequest 单行编辑请求（部分字段）
type UpdateRowRequest struct {
	Values map[string]string `json:"values"`
}

// UpdateRowResponse 单行编辑响应
type UpdateRowResponse struct {
	Row      model.Row `json:"row"`
	Warnings []string  `json:"warnings,omitempty"`
}

// UpdateRow 编辑单行原始字段并重算该行
// PATCH /api/sheet/rows/:index
func (h *Handler) UpdateRow(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		index = -1
	}
	if err := model.CheckIndex(index); err != nil {
		h.fail(c, err)
		return
	}

	var req UpdateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 先校验全部字段名，避免部分写入
	fields := make(map[model.Field]string, len(req.Values))
	for name, value := range req.Values {
		f, err := model.ParseField(name)
		if err != nil {
			h.fail(c, err)
			return
		}
		fields[f] = value
	}

	var row model.Row
	for _, f := range model.Fields {
		value, ok := fields[f]
		if !ok {
			continue
		}
		if row, err = h.sheets.SetField(index, f, value); err != nil {
			h.fail(c, err)
			return
		}
	}
	if len(fields) == 0 {
		if row, err = h.sheets.Row(index); err != nil {
			h.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, UpdateRowResponse{
		Row:      row,
		Warnings: calculator.ValidateRow(index, row.Raw),
	})
}

// Recompute 全表重算
// POST /api/sheet/recompute
func (h *Handler) Recompute(c *gin.Context) {
	h.sheets.RecomputeAll()
	c.JSON(http.StatusOK, h.sheetResponse())
}

// SwitchSheetRequest 切换表请求
type SwitchSheetRequest struct {
	Sheet model.Sheet `json:"sheet"`
}

// SwitchSheet 切换白班/夜班表，等待延迟重算完成后返回
// POST /api/sheet/switch
func (h *Handler) SwitchSheet(c *gin.Context) {
	var req SwitchSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	done, err := h.sheets.SwitchSheet(req.Sheet)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.waitRecompute(c.Request.Context(), done)
	h.rememberSettings(c.Request.Context())
	c.JSON(http.StatusOK, h.sheetResponse())
}

// NightModeRequest 夜间模式请求；NightMode 为空时切换
type NightModeRequest struct {
	NightMode *bool `json:"nightMode"`
}

// SetNightMode 设置或切换夜间模式（夜间模式对应夜班表）
// POST /api/sheet/night-mode
func (h *Handler) SetNightMode(c *gin.Context) {
	var req NightModeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var (
		done <-chan struct{}
		err  error
	)
	if req.NightMode == nil {
		done, err = h.sheets.ToggleNightMode()
	} else {
		done, err = h.sheets.SetNightMode(*req.NightMode)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.waitRecompute(c.Request.Context(), done)
	h.rememberSettings(c.Request.Context())
	c.JSON(http.StatusOK, h.sheetResponse())
}

// ResetSheet 清空当前表，已绑定会话时同步到远端
// POST /api/sheet/reset
func (h *Handler) ResetSheet(c *gin.Context) {
	h.sheets.Reset()
	resp := gin.H{"message": h.translator(c).Text(i18n.MsgDataReset)}
	if err := h.pushAll(c.Request.Context()); err != nil {
		resp["syncError"] = h.translator(c).Error(err)
	}
	resp["sheet"] = h.sheetResponse()
	c.JSON(http.StatusOK, resp)
}

// SetViewRequest 切换视图请求
type SetViewRequest struct {
	View model.View `json:"view"`
}

// SetView 切换当前视图
// POST /api/sheet/view
func (h *Handler) SetView(c *gin.Context) {
	var req SetViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sheets.SetView(req.View); err != nil {
		h.fail(c, err)
		return
	}
	h.rememberSettings(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"view": req.View})
}

func (h *Handler) waitRecompute(ctx context.Context, done <-chan struct{}) {
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// pushAll 已绑定会话时推送整表；未绑定时忽略
func (h *Handler) pushAll(ctx context.Context) error {
	if h.session == nil {
		return nil
	}
	err := h.session.PushAll(ctx)
	if model.KindOf(err) == model.KindNotFound {
		return nil
	}
	return err
}

// rememberSettings 已绑定会话时记录夜间模式与视图偏好
func (h *Handler) rememberSettings(ctx context.Context) {
	if h.remote == nil || h.session == nil {
		return
	}
	current := h.session.Current()
	if current == nil {
		return
	}
	snap := h.sheets.Snapshot()
	night := snap.NightMode
	view := snap.View
	if _, err := h.remote.UpdateUserSettings(ctx, current.CreatedBy, remote.SettingsUpdate{
		IsNightMode: &night,
		CurrentView: &view,
	}); err != nil {
		h.logger.Warn("remember settings failed", slog.Any("err", err))
	}
}
