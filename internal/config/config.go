package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// 环境变量覆盖
const (
	EnvChromeBin = "INJECTSTO_CHROME_BIN"
	EnvDBPath    = "INJECTSTO_DB_PATH"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Remote RemoteConfig `toml:"remote"`
	Import ImportConfig `toml:"import"`
	Image  ImageConfig  `toml:"image"`
	Locale string       `toml:"locale"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 本地数据配置
type DataConfig struct {
	DataDir         string `toml:"data_dir"`
	AutoSaveSeconds int    `toml:"auto_save_seconds"`
	SaveDebounceMs  int    `toml:"save_debounce_ms"`
}

// RemoteConfig 远端会话库配置
type RemoteConfig struct {
	DBPath      string `toml:"db_path"` // 为空时位于数据目录下
	DefaultUser string `toml:"default_user"`
	SessionName string `toml:"session_name"` // 为空时按日期生成
}

// ImportConfig 导入配置
type ImportConfig struct {
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

// ImageConfig 截图配置
type ImageConfig struct {
	MinBytes       int     `toml:"min_bytes"`
	MaxBytes       int     `toml:"max_bytes"`
	InitialQuality int     `toml:"initial_quality"`
	MinQuality     int     `toml:"min_quality"`
	Scale          float64 `toml:"scale"`
	MinScale       float64 `toml:"min_scale"`
	MaxScale       float64 `toml:"max_scale"`
	MaxIterations  int     `toml:"max_iterations"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	ChromeBin      string  `toml:"chrome_bin"`
	Width          int     `toml:"width"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:         "data",
			AutoSaveSeconds: 30,
			SaveDebounceMs:  2000,
		},
		Remote: RemoteConfig{
			DBPath:      "",
			DefaultUser: "operator",
		},
		Import: ImportConfig{
			MaxFileBytes: 5 * 1024 * 1024,
		},
		Image: ImageConfig{
			MinBytes:       2 * 1024 * 1024,
			MaxBytes:       4 * 1024 * 1024,
			InitialQuality: 95,
			MinQuality:     50,
			Scale:          2.5,
			MinScale:       1,
			MaxScale:       4,
			MaxIterations:  5,
			TimeoutSeconds: 45,
			Width:          1440,
		},
		Locale: "id",
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载配置；文件不存在时使用默认配置
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	applyEnv(config)
	return config, info, nil
}

func applyEnv(config *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvChromeBin)); v != "" {
		config.Image.ChromeBin = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		config.Remote.DBPath = v
	}
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到指定路径
func SaveConfig(configPath string, config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// ResolveDataDir 数据目录：相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	dir := config.Data.DataDir
	if dir == "" {
		dir = "data"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, dir)
}

// EnsureDataDir 确保数据目录存在并返回其路径
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DBPath 远端会话库路径
func DBPath(config *AppConfig, dataDir string) string {
	if config.Remote.DBPath != "" {
		return config.Remote.DBPath
	}
	return filepath.Join(dataDir, "injectsto.db")
}
