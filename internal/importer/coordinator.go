package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
)

// Recorder 导入记录持久化
type Recorder interface {
	RecordImport(item clientstate.ImportHistoryItem) error
}

// Pusher 导入完成后推送整表到远端会话
type Pusher interface {
	PushAll(ctx context.Context) error
}

// Coordinator 导入协调器
type Coordinator struct {
	parser     *excel.Parser
	sheets     *store.SheetStore
	translator *i18n.Translator
	recorder   Recorder
	pusher     Pusher
	logger     *slog.Logger
}

// NewCoordinator 创建导入协调器；recorder 与 pusher 可为 nil
func NewCoordinator(parser *excel.Parser, sheets *store.SheetStore, translator *i18n.Translator, recorder Recorder, pusher Pusher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if translator == nil {
		translator = i18n.New("")
	}
	return &Coordinator{
		parser:     parser,
		sheets:     sheets,
		translator: translator,
		recorder:   recorder,
		pusher:     pusher,
		logger:     logger,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Upload *excel.Upload
	Target model.ImportTarget
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ErrorData error 事件附加数据
type ErrorData struct {
	Kind model.ErrorKind `json:"kind"`
	Key  string          `json:"key"`
}

// Import 执行导入，返回进度通道；启动后不可取消
func (c *Coordinator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 16)

	go func() {
		defer close(progressChan)
		c.doImport(opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(opts ImportOptions, progressChan chan<- ProgressEvent) {
	fileName := ""
	if opts.Upload != nil {
		fileName = opts.Upload.Name
	}
	c.sendProgress(progressChan, "start", c.translator.Text(i18n.MsgImportStarted, fileName), map[string]string{
		"filename": fileName,
		"target":   string(opts.Target),
	})

	// 全部校验在写入之前完成
	rows, result, err := c.parser.Parse(opts.Upload, opts.Target)
	if err != nil {
		c.sendError(progressChan, err, result)
		return
	}

	c.sendProgress(progressChan, "info", c.translator.Text(i18n.MsgImportParsed, result.ImportedRows, result.SheetName), map[string]interface{}{
		"sheet_name":    result.SheetName,
		"imported_rows": result.ImportedRows,
		"skipped_rows":  result.SkippedRows,
		"rejected_rows": result.RejectedRows,
	})

	if err := c.sheets.SetFields(rows); err != nil {
		c.sendError(progressChan, err, result)
		return
	}

	snap := c.sheets.Snapshot()
	if c.recorder != nil {
		item := clientstate.ImportHistoryItem{
			ImportedAt:   time.Now().UTC(),
			FileName:     fileName,
			Target:       opts.Target,
			Sheet:        snap.Sheet,
			ImportedRows: result.ImportedRows,
			RejectedRows: result.RejectedRows,
		}
		if err := c.recorder.RecordImport(item); err != nil {
			c.logger.Warn("record import history failed", slog.Any("err", err))
		}
	}

	if c.pusher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.pusher.PushAll(ctx)
		cancel()
		if err != nil && model.KindOf(err) != model.KindNotFound {
			c.logger.Warn("push imported rows failed", slog.Any("err", err))
			c.sendProgress(progressChan, "info", c.translator.Error(err), nil)
		}
	}

	c.logger.Info("import finished",
		slog.String("file", fileName),
		slog.String("target", string(opts.Target)),
		slog.Int("imported", result.ImportedRows),
		slog.Int("rejected", result.RejectedRows),
	)
	c.sendProgress(progressChan, "done", c.translator.Text(i18n.MsgDataImported), result)
}

func (c *Coordinator) sendError(progressChan chan<- ProgressEvent, err error, result *model.ImportResult) {
	data := map[string]interface{}{
		"error": ErrorData{Kind: model.KindOf(err), Key: appErrorKey(err)},
	}
	if result != nil {
		data["result"] = result
	}
	c.logger.Warn("import rejected", slog.Any("err", err))
	c.sendProgress(progressChan, "error", c.translator.Error(err), data)
}

func (c *Coordinator) sendProgress(progressChan chan<- ProgressEvent, typ, message string, data interface{}) {
	progressChan <- ProgressEvent{
		Type:      typ,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func appErrorKey(err error) string {
	var ae *model.AppError
	if errors.As(err, &ae) {
		return ae.Key
	}
	return ""
}
