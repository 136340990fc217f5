package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级运行参数，内容根目录在启动后不再变化。
type GlobalConfig struct {
	ListenPort        int      `mapstructure:"ListenPort"`
	LogLevel          string   `mapstructure:"LogLevel"`
	LogFilePath       string   `mapstructure:"LogFilePath"`
	LogMaxSize        int      `mapstructure:"LogMaxSize"`
	LogMaxBackups     int      `mapstructure:"LogMaxBackups"`
	LogCompress       bool     `mapstructure:"LogCompress"`
	ContentRoot       string   `mapstructure:"ContentRoot"`
	CacheDir          string   `mapstructure:"CacheDir"`
	ToolTimeout       Duration `mapstructure:"ToolTimeout"`
	TextMaxAge        Duration `mapstructure:"TextMaxAge"`
	BinaryMaxAge      Duration `mapstructure:"BinaryMaxAge"`
	EnableDiagnostics bool     `mapstructure:"EnableDiagnostics"`
}

// ToolsConfig 指定派生资源所依赖的外部命令。
type ToolsConfig struct {
	ThumbnailCommand string `mapstructure:"ThumbnailCommand"`
	RenderCommand    string `mapstructure:"RenderCommand"`
	RenderStylesheet string `mapstructure:"RenderStylesheet"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Tools  ToolsConfig  `mapstructure:"Tools"`
}

// CacheRoot 返回派生缓存所在的绝对目录（<ContentRoot>/<CacheDir>）。
func (c *Config) CacheRoot() string {
	return filepath.Join(c.Global.ContentRoot, c.Global.CacheDir)
}
