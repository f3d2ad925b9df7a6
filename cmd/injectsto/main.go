package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beduldjakurra/InjectSTO/internal/config"
	"github.com/beduldjakurra/InjectSTO/internal/server"
	"github.com/beduldjakurra/InjectSTO/internal/util"
)

var (
	port      = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode   = flag.Bool("dev", false, "开发模式")
	dataDir   = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	noSession = flag.Bool("offline", false, "启动时不绑定远端会话")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  InjectSTO - Laporan Stock Produksi Inject")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if info.Found {
		fmt.Printf("配置文件: %s\n", info.Path)
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	level := slog.LevelInfo
	if cfg.Server.DevMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 创建服务器
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}
	fmt.Printf("数据目录: %s\n", config.ResolveDataDir(cfg))

	if !*noSession && cfg.Remote.DefaultUser != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sess, err := srv.AttachDefaultSession(ctx)
		cancel()
		if err != nil {
			log.Printf("绑定远端会话失败，以离线模式运行: %v", err)
		} else {
			fmt.Printf("远端会话: %s (%s)\n", sess.SessionName, sess.ID)
		}
	}

	// 构建地址
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
	if err := srv.Start(addr); err != nil {
		_ = srv.Stop()
		log.Fatalf("服务启动失败: %v", err)
	}

	// 打开浏览器
	if !cfg.Server.DevMode {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowser(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("开发模式: 请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	if err := srv.Stop(); err != nil {
		log.Printf("退出前保存失败: %v", err)
	}
}
