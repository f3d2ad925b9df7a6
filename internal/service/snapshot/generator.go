package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// Config 图片尺寸拟合参数
type Config struct {
	MinBytes       int
	MaxBytes       int
	InitialQuality int
	MinQuality     int
	MaxQuality     int
	QualityStep    int
	Scale          float64
	MinScale       float64
	MaxScale       float64
	MaxIterations  int
	Width          int
	Timeout        time.Duration // 单次光栅化超时
}

// DefaultConfig 默认参数：2MB…4MB，质量 95 起步、下限 50，缩放 2.5（1…4），最多 5 轮
func DefaultConfig() Config {
	return Config{
		MinBytes:       2 * 1024 * 1024,
		MaxBytes:       4 * 1024 * 1024,
		InitialQuality: 95,
		MinQuality:     50,
		MaxQuality:     100,
		QualityStep:    5,
		Scale:          2.5,
		MinScale:       1,
		MaxScale:       4,
		MaxIterations:  5,
		Width:          1440,
		Timeout:        45 * time.Second,
	}
}

// Image 生成的图片
type Image struct {
	FileName   string  `json:"fileName"`
	Size       int     `json:"size"`
	Scale      float64 `json:"scale"`
	Quality    int     `json:"quality"`
	Iterations int     `json:"iterations"`
	InBand     bool    `json:"inBand"`
	Data       []byte  `json:"-"`
}

// Progress 拟合进度
type Progress struct {
	Iteration int     `json:"iteration"`
	Scale     float64 `json:"scale"`
	Quality   int     `json:"quality"`
	Size      int     `json:"size"`
}

// Generator 截图生成器
type Generator struct {
	raster Rasterizer
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator 创建生成器
func NewGenerator(raster Rasterizer, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{raster: raster, cfg: normalize(cfg), logger: logger, now: time.Now}
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = def.MinBytes
	}
	if cfg.MaxBytes < cfg.MinBytes {
		cfg.MaxBytes = cfg.MinBytes * 2
	}
	if cfg.MinQuality <= 0 || cfg.MinQuality > 100 {
		cfg.MinQuality = def.MinQuality
	}
	if cfg.MaxQuality <= 0 || cfg.MaxQuality > 100 {
		cfg.MaxQuality = def.MaxQuality
	}
	if cfg.InitialQuality < cfg.MinQuality || cfg.InitialQuality > cfg.MaxQuality {
		cfg.InitialQuality = def.InitialQuality
	}
	if cfg.QualityStep <= 0 {
		cfg.QualityStep = def.QualityStep
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale < cfg.MinScale {
		cfg.MaxScale = def.MaxScale
	}
	if cfg.Scale < cfg.MinScale || cfg.Scale > cfg.MaxScale {
		cfg.Scale = clamp(def.Scale, cfg.MinScale, cfg.MaxScale)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	return cfg
}

// Config 当前参数
func (g *Generator) Config() Config {
	return g.cfg
}

// FileName 图片文件名：Laporan_<Table_Name>_Sheet<n>_<Day|Night>_<YYYYMMDDTHHMMSS>.jpg
func FileName(view model.View, sheet model.Sheet, night bool, at time.Time) string {
	shift := "Day"
	if night {
		shift = "Night"
	}
	table := strings.Join(strings.Fields(view.TableName()), "_")
	return fmt.Sprintf("Laporan_%s_Sheet%d_%s_%s.jpg", table, sheet, shift, at.UTC().Format("20060102T150405"))
}

// Generate 渲染快照并迭代调整缩放与质量，使文件大小落入 [MinBytes, MaxBytes]；失败不重试
func (g *Generator) Generate(ctx context.Context, snap model.Snapshot, progress func(Progress)) (*Image, error) {
	at := g.now()
	html, err := RenderHTML(snap, at, g.cfg.Width)
	if err != nil {
		return nil, err
	}

	scale := g.cfg.Scale
	quality := g.cfg.InitialQuality
	var best *Image

	for i := 1; i <= g.cfg.MaxIterations; i++ {
		data, err := g.rasterize(ctx, html, scale, quality)
		if err != nil {
			return nil, classifyError(err)
		}
		if len(data) == 0 {
			return nil, model.NewRenderingError(model.MsgImageEmpty, errors.New("rasterizer returned no data"))
		}

		size := len(data)
		if progress != nil {
			progress(Progress{Iteration: i, Scale: scale, Quality: quality, Size: size})
		}
		g.logger.Debug("snapshot iteration",
			slog.Int("iteration", i),
			slog.Float64("scale", scale),
			slog.Int("quality", quality),
			slog.Int("size", size),
		)

		img := &Image{Size: size, Scale: scale, Quality: quality, Iterations: i, Data: data}
		if best == nil || g.distance(size) < g.distance(best.Size) {
			best = img
		}
		if g.distance(size) == 0 {
			img.InBand = true
			best = img
			break
		}

		nextScale, nextQuality := g.adjust(size, scale, quality)
		if nextScale == scale && nextQuality == quality {
			break
		}
		scale, quality = nextScale, nextQuality
	}

	if !best.InBand {
		g.logger.Warn("snapshot size outside target band",
			slog.Int("size", best.Size),
			slog.Int("min", g.cfg.MinBytes),
			slog.Int("max", g.cfg.MaxBytes),
		)
	}
	best.FileName = FileName(snap.View, snap.Sheet, snap.NightMode, at)
	return best, nil
}

func (g *Generator) rasterize(ctx context.Context, html []byte, scale float64, quality int) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return g.raster.Rasterize(ctx, html, RasterOptions{Width: g.cfg.Width, Scale: scale, Quality: quality})
}

// distance 与目标区间的距离（字节），区间内为 0
func (g *Generator) distance(size int) int {
	switch {
	case size < g.cfg.MinBytes:
		return g.cfg.MinBytes - size
	case size > g.cfg.MaxBytes:
		return size - g.cfg.MaxBytes
	}
	return 0
}

// adjust 过小则放大（已到上限时提高质量），过大则降质量并按面积比缩小
func (g *Generator) adjust(size int, scale float64, quality int) (float64, int) {
	if size < g.cfg.MinBytes {
		if scale < g.cfg.MaxScale {
			factor := math.Sqrt(float64(g.cfg.MinBytes)/float64(size)) * 1.05
			return clamp(scale*factor, g.cfg.MinScale, g.cfg.MaxScale), quality
		}
		return scale, min(quality+g.cfg.QualityStep, g.cfg.MaxQuality)
	}

	nextQuality := max(quality-g.cfg.QualityStep, g.cfg.MinQuality)
	factor := math.Sqrt(float64(g.cfg.MaxBytes)/float64(size)) * 0.95
	return clamp(scale*factor, g.cfg.MinScale, g.cfg.MaxScale), nextQuality
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// classifyError 光栅化错误分类
func classifyError(err error) error {
	var ae *model.AppError
	if errors.As(err, &ae) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, ErrBrowserUnavailable):
		return model.NewConnectivityError(model.MsgImageOffline, err)
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		return model.NewRenderingError(model.MsgImageTimeout, err)
	case errors.Is(err, ErrColorParse) || strings.Contains(msg, "color") || strings.Contains(msg, "parse"):
		return model.NewRenderingError(model.MsgImageColorParse, err)
	case errors.Is(err, context.Canceled):
		return model.NewRenderingError(model.MsgImageUnknown, err)
	}
	return model.NewRenderingError(model.MsgImageCanvas, err)
}
