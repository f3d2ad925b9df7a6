package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// statusFor 错误分类到 HTTP 状态码
func statusFor(err error) int {
	var ae *model.AppError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindRendering:
		return http.StatusUnprocessableEntity
	case model.KindConnectivity:
		if ae.Key == model.MsgImageOffline {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case model.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// errorBody 错误响应
type errorBody struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind,omitempty"`
	Key   string          `json:"key,omitempty"`
}

func (h *Handler) newErrorBody(tr *i18n.Translator, err error) errorBody {
	body := errorBody{Error: tr.Error(err), Kind: model.KindOf(err)}
	var ae *model.AppError
	if errors.As(err, &ae) {
		body.Key = ae.Key
	}
	return body
}

// fail 以分类状态码返回错误
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
	}
	c.JSON(status, h.newErrorBody(h.translator(c), err))
}

// translator 请求语言：?lang= 优先，其次 Accept-Language
func (h *Handler) translator(c *gin.Context) *i18n.Translator {
	if lang := c.Query("lang"); lang != "" {
		return i18n.New(lang)
	}
	if accept := c.GetHeader("Accept-Language"); accept != "" {
		return i18n.NewFromAcceptLanguage(accept)
	}
	return h.tr
}
