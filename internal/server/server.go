package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/beduldjakurra/InjectSTO/internal/api/v1"
	"github.com/beduldjakurra/InjectSTO/internal/config"
	"github.com/beduldjakurra/InjectSTO/internal/exporter"
	"github.com/beduldjakurra/InjectSTO/internal/i18n"
	"github.com/beduldjakurra/InjectSTO/internal/importer"
	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/service/clientstate"
	"github.com/beduldjakurra/InjectSTO/internal/service/excel"
	"github.com/beduldjakurra/InjectSTO/internal/service/remote"
	"github.com/beduldjakurra/InjectSTO/internal/service/session"
	"github.com/beduldjakurra/InjectSTO/internal/service/snapshot"
	"github.com/beduldjakurra/InjectSTO/internal/service/store"
	dbstore "github.com/beduldjakurra/InjectSTO/internal/store"
)

//go:embed all:dist
var staticFiles embed.FS

// ShutdownTimeout 优雅退出等待时间
var ShutdownTimeout = 5 * time.Second

// Server HTTP服务器
type Server struct {
	cfg    *config.AppConfig
	logger *slog.Logger

	router *gin.Engine
	http   *http.Server
	ln     net.Listener

	db      *dbstore.Store
	sheets  *store.SheetStore
	state   *clientstate.Manager
	remote  *remote.Service
	session *session.Coordinator
	raster  *snapshot.RodRasterizer
}

// NewServer 按配置组装全部服务并注册路由
func NewServer(cfg *config.AppConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	db, err := dbstore.New(config.DBPath(cfg, dataDir))
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}

	sheets := store.NewSheetStore()
	state, err := clientstate.NewManager(clientstate.Options{
		DataDir:          dataDir,
		SaveDebounce:     time.Duration(cfg.Data.SaveDebounceMs) * time.Millisecond,
		AutoSaveInterval: time.Duration(cfg.Data.AutoSaveSeconds) * time.Second,
		Logger:           logger.With(slog.String("component", "clientstate")),
	}, sheets)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := state.Init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restore client state: %w", err)
	}

	rs := remote.NewService(db, logger.With(slog.String("component", "remote")))
	coord := session.NewCoordinator(rs, sheets, logger.With(slog.String("component", "session")))

	translator := i18n.New(cfg.Locale)
	parser := excel.NewParser(cfg.Import.MaxFileBytes)
	raster := snapshot.NewRodRasterizer(cfg.Image.ChromeBin)

	handler := v1.NewHandler(v1.Deps{
		Sheets:      sheets,
		State:       state,
		Parser:      parser,
		Importer:    importer.NewCoordinator(parser, sheets, translator, state, coord, logger.With(slog.String("component", "importer"))),
		Exporter:    exporter.NewExporter(sheets),
		Snapshots:   snapshot.NewGenerator(raster, imageConfig(cfg.Image), logger.With(slog.String("component", "snapshot"))),
		Remote:      rs,
		Session:     coord,
		Translator:  translator,
		DefaultUser: cfg.Remote.DefaultUser,
		Logger:      logger.With(slog.String("component", "api")),
	})

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  gin.New(),
		db:      db,
		sheets:  sheets,
		state:   state,
		remote:  rs,
		session: coord,
		raster:  raster,
		http: &http.Server{
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes(handler, devMode)
	s.http.Handler = s.router
	return s, nil
}

// imageConfig 配置文件到截图参数的映射；未设置的项保持默认值
func imageConfig(c config.ImageConfig) snapshot.Config {
	out := snapshot.DefaultConfig()
	if c.MinBytes > 0 {
		out.MinBytes = c.MinBytes
	}
	if c.MaxBytes > 0 {
		out.MaxBytes = c.MaxBytes
	}
	if c.InitialQuality > 0 {
		out.InitialQuality = c.InitialQuality
	}
	if c.MinQuality > 0 {
		out.MinQuality = c.MinQuality
	}
	if c.Scale > 0 {
		out.Scale = c.Scale
	}
	if c.MinScale > 0 {
		out.MinScale = c.MinScale
	}
	if c.MaxScale > 0 {
		out.MaxScale = c.MaxScale
	}
	if c.MaxIterations > 0 {
		out.MaxIterations = c.MaxIterations
	}
	if c.TimeoutSeconds > 0 {
		out.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	if c.Width > 0 {
		out.Width = c.Width
	}
	return out
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(handler *v1.Handler, devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Report-Code")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	handler.RegisterRoutes(s.router.Group("/api"))
	handler.RegisterRoutes(s.router.Group("/api/v1"))

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}

	sub, _ := fs.Sub(staticFiles, "dist")
	assetsSub, _ := fs.Sub(sub, "assets")
	s.router.StaticFS("/assets", http.FS(assetsSub))

	index := func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
	s.router.GET("/", index)
	// SPA 路由 fallback
	s.router.NoRoute(index)
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// AttachDefaultSession 恢复默认用户的偏好并绑定其活动会话
func (s *Server) AttachDefaultSession(ctx context.Context) (*model.Session, error) {
	user := s.cfg.Remote.DefaultUser
	if user == "" {
		return nil, errors.New("default user is not configured")
	}

	settings, err := s.remote.GetUserSettings(ctx, user)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		done, err := s.sheets.SetNightMode(settings.IsNightMode)
		if err == nil {
			<-done
		}
		if settings.CurrentView.Valid() {
			_ = s.sheets.SetView(settings.CurrentView)
		}
	}

	name := s.cfg.Remote.SessionName
	if name == "" {
		name = defaultSessionName(time.Now())
	}
	return s.session.Initialize(ctx, user, name)
}

func defaultSessionName(now time.Time) string {
	return "Produksi " + now.Format("2006-01-02")
}

// Start 监听端口并在后台提供服务
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Stop 停止接收请求，并释放会话订阅、浏览器与数据库；退出前保存本地状态
func (s *Server) Stop() error {
	var errs []error
	if s.ln != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		cancel()
		s.ln = nil
	}
	s.session.Close()
	if err := s.state.Teardown(); err != nil {
		errs = append(errs, fmt.Errorf("save client state: %w", err))
	}
	if err := s.raster.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close remote store: %w", err))
	}
	return errors.Join(errs...)
}
