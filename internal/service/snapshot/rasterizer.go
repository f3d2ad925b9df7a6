package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// 光栅化错误
var (
	ErrBrowserUnavailable = errors.New("browser unavailable")
	ErrColorParse         = errors.New("unsupported color")
)

// RasterOptions 单次光栅化参数
type RasterOptions struct {
	Width   int     // 视口宽度（CSS 像素）
	Scale   float64 // 设备像素比
	Quality int     // JPEG 质量 0-100
}

// Rasterizer 把 HTML 文档渲染为 JPEG
type Rasterizer interface {
	Rasterize(ctx context.Context, html []byte, opts RasterOptions) ([]byte, error)
}

// RodRasterizer 基于 go-rod 的无头 Chromium 光栅化器；浏览器按需启动并复用
type RodRasterizer struct {
	bin string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodRasterizer 创建光栅化器；bin 为空时自动查找本机 Chromium
func NewRodRasterizer(bin string) *RodRasterizer {
	return &RodRasterizer{bin: bin}
}

func (r *RodRasterizer) connect(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().
		Headless(true).
		Leakless(false)
	if r.bin != "" {
		l = l.Bin(r.bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	u, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrBrowserUnavailable, err)
	}
	r.browser = browser
	return browser, nil
}

// Rasterize 打开空白页、写入文档并截取整页 JPEG
func (r *RodRasterizer) Rasterize(ctx context.Context, html []byte, opts RasterOptions) ([]byte, error) {
	browser, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.reset()
		return nil, fmt.Errorf("%w: open page: %v", ErrBrowserUnavailable, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            800,
		DeviceScaleFactor: opts.Scale,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("set document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	quality := opts.Quality
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

func (r *RodRasterizer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		_ = r.browser.Close()
		r.browser = nil
	}
}

// Close 关闭浏览器
func (r *RodRasterizer) Close() error {
	r.reset()
	return nil
}

// withTimeout 单次操作超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
