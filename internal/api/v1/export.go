package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/exporter"
	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/snapshot"
)

const contentTypeJPEG = "image/jpeg"

// buildContentDisposition 附件头，兼容非 ASCII 文件名
func buildContentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fileName, url.PathEscape(fileName))
}

func (h *Handler) writeReport(c *gin.Context, report *exporter.Report) {
	c.Header("Content-Disposition", buildContentDisposition(report.FileName))
	c.Header("X-Report-Code", report.Code)
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

// ExportXLSX 导出 Excel
// GET /api/export/xlsx
func (h *Handler) ExportXLSX(c *gin.Context) {
	report, err := h.exporter.ExportXLSX(nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeReport(c, report)
}

// ExportPDF 导出 PDF
// GET /api/export/pdf
func (h *Handler) ExportPDF(c *gin.Context) {
	report, err := h.exporter.ExportPDF(nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeReport(c, report)
}

// ImageRequest 截图请求；View 为空时使用当前视图
type ImageRequest struct {
	View model.View `json:"view"`
}

// ExportImageStream 生成 JPG 截图（SSE 进度 + 完成后提供下载地址）
// POST /api/export/image/stream
func (h *Handler) ExportImageStream(c *gin.Context) {
	var req ImageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	tr := h.translator(c)

	snap := h.sheets.Snapshot()
	if req.View != "" {
		snap.View = req.View
	}

	stream, ok := startSSE(c)
	if !ok {
		return
	}
	stream.event("start", snap.View.TableName(), gin.H{
		"view":  snap.View,
		"sheet": snap.Sheet,
	})

	img, err := h.snapshots.Generate(c.Request.Context(), snap, func(p snapshot.Progress) {
		stream.event("progress", fmt.Sprintf("%d", p.Iteration), p)
	})
	if err != nil {
		stream.event("error", tr.Error(err), h.newErrorBody(tr, err))
		return
	}

	token := h.downloads.put(img.FileName, contentTypeJPEG, img.Data, downloadTTL)
	stream.event("done", tr.Text(i18n.MsgImageDownloaded, tr.Number(float64(img.Size)/1024/1024, 2)), gin.H{
		"image":       img,
		"downloadUrl": downloadURL(c, token),
	})
}

func downloadURL(c *gin.Context, token string) string {
	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/download/%s", prefix, token)
}

// DownloadExport 下载生成的文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
		return
	}
	c.Header("Content-Disposition", buildContentDisposition(item.fileName))
	c.Data(http.StatusOK, item.contentType, item.data)
}
