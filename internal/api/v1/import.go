package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/importer"
	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// Import 导入 Excel 数据（SSE 流式响应）
// POST /api/import  form: file, target=main|strength
func (h *Handler) Import(c *gin.Context) {
	target := model.ImportTarget(c.DefaultPostForm("target", string(model.ImportMain)))
	if !target.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target"})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, model.NewValidationError(model.MsgNoFile, err))
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.fail(c, model.NewValidationError(model.MsgReadFailed, err))
		return
	}
	upload, err := h.parser.ReadUpload(fh.Filename, file)
	_ = file.Close()
	if err != nil {
		h.fail(c, err)
		return
	}

	stream, ok := startSSE(c)
	if !ok {
		return
	}

	// 导入启动后不可取消：客户端断开也会执行完毕
	for event := range h.importer.Import(importer.ImportOptions{
		Upload: upload,
		Target: target,
	}) {
		stream.send(event)
	}
}

// ImportHistory 最近导入记录
// GET /api/import/history
func (h *Handler) ImportHistory(c *gin.Context) {
	if h.state == nil {
		c.JSON(http.StatusOK, gin.H{"items": []interface{}{}})
		return
	}
	items, err := h.state.ImportHistory()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
