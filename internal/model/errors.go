package model

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"   // 文件格式/表头/非数值/文件过大/下标越界
	KindConnectivity ErrorKind = "connectivity" // 离线、远端调用失败
	KindRendering    ErrorKind = "rendering"    // 截图渲染失败
	KindNotFound     ErrorKind = "not_found"    // 视为空状态
)

// 消息键（由 i18n 包翻译为用户可读文本）
const (
	MsgIndexOutOfRange = "index_out_of_range"
	MsgUnknownField    = "unknown_field"
	MsgUnknownSheet    = "unknown_sheet"
	MsgUnknownView     = "unknown_view"

	MsgNoFile         = "import_no_file"
	MsgBadExtension   = "import_bad_extension"
	MsgFileTooLarge   = "import_file_too_large"
	MsgNoSheet        = "import_no_sheet"
	MsgNotEnoughRows  = "import_not_enough_rows"
	MsgHeaderMismatch = "import_header_mismatch"
	MsgNoValidRows    = "import_no_valid_rows"
	MsgReadFailed     = "import_read_failed"
	MsgNonNumericCell = "import_non_numeric_cell"

	MsgImageGeneral    = "image_general"
	MsgTableNotFound   = "image_table_not_found"
	MsgImageOffline    = "image_offline"
	MsgImageColorParse = "image_color_parse"
	MsgImageTimeout    = "image_timeout"
	MsgImageCanvas     = "image_canvas"
	MsgImageEmpty      = "image_empty"
	MsgImageUnknown    = "image_unknown"

	MsgRemoteFailed = "remote_failed"
	MsgNoSession    = "remote_no_session"
	MsgSessionGone  = "remote_session_not_found"
)

// AppError 面向用户的分类错误
type AppError struct {
	Kind ErrorKind
	Key  string // 消息键
	Args []any  // 消息参数
	Err  error  // 底层错误
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError 校验错误
func NewValidationError(key string, err error, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Key: key, Args: args, Err: err}
}

// NewRenderingError 渲染错误
func NewRenderingError(key string, err error, args ...any) *AppError {
	return &AppError{Kind: KindRendering, Key: key, Args: args, Err: err}
}

// NewConnectivityError 连接错误
func NewConnectivityError(key string, err error, args ...any) *AppError {
	return &AppError{Kind: KindConnectivity, Key: key, Args: args, Err: err}
}

// NewNotFoundError 未找到（按空状态处理）
func NewNotFoundError(key string, err error, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Key: key, Args: args, Err: err}
}

// KindOf 取错误分类，非 AppError 返回空串
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
