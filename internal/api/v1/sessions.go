package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
)

// CreateSessionRequest 创建/绑定会话请求
type CreateSessionRequest struct {
	UserID      string `json:"userId"`
	SessionName string `json:"sessionName"`
}

// CreateSession 获取或创建用户活动会话并绑定到当前表
// POST /api/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = h.defaultUser
	}

	sess, err := h.session.Initialize(c.Request.Context(), userID, req.SessionName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "state": h.session.State()})
}

// CurrentSession 当前绑定状态；未绑定时 session 为 null
// GET /api/sessions/current
func (h *Handler) CurrentSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

// SyncSession 从远端整表重载
// POST /api/sessions/sync
func (h *Handler) SyncSession(c *gin.Context) {
	if err := h.session.Sync(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": h.translator(c).Text(i18n.MsgSyncDone),
		"state":   h.session.State(),
	})
}

// DeleteSession 删除远端会话
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.session.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ListSessionRows 远端会话的全部行
// GET /api/sessions/:id/rows
func (h *Handler) ListSessionRows(c *gin.Context) {
	sess, ok := h.lookupSession(c, c.Param("id"))
	if !ok {
		return
	}
	records, err := h.remote.ListRows(c.Request.Context(), sess.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "records": records})
}

// lookupSession 按 ID 查询会话，失败或不存在时写入错误响应
func (h *Handler) lookupSession(c *gin.Context, id string) (*model.Session, bool) {
	sess, err := h.remote.SessionByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if sess == nil {
		h.fail(c, model.NewNotFoundError(model.MsgSessionGone, fmt.Errorf("session %s not found", id), id))
		return nil, false
	}
	return sess, true
}

// SessionEvents 订阅会话行变更（SSE），客户端断开时取消订阅
// GET /api/sessions/:id/events
func (h *Handler) SessionEvents(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.lookupSession(c, id); !ok {
		return
	}

	stream, ok := startSSE(c)
	if !ok {
		return
	}
	sub := h.remote.Subscribe(id)
	defer sub.Unsubscribe()

	stream.event("subscribed", id, gin.H{"sessionId": id})
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			stream.event("change", string(ev.Type), ev)
		}
	}
}

// GetSettings 用户偏好；没有记录时 settings 为 null
// GET /api/settings/:userId
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.remote.GetUserSettings(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings 更新用户偏好（部分字段）
// PUT /api/settings/:userId
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req remote.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings, err := h.remote.UpdateUserSettings(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
