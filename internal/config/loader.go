package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量覆盖配置项时使用的前缀，例如 SERBEN_LISTENPORT。
const EnvPrefix = "SERBEN"

// Load 读取可选的 TOML 配置文件，叠加环境变量与默认值，再写入 CLI 提供的内容根目录。
// path 为空时只使用默认值与环境变量；contentRoot 为空时保留配置文件中的 ContentRoot。
func Load(path, contentRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if contentRoot != "" {
		cfg.Global.ContentRoot = contentRoot
	}
	applyDefaults(&cfg)

	if cfg.Global.ContentRoot != "" {
		absRoot, err := filepath.Abs(cfg.Global.ContentRoot)
		if err != nil {
			return nil, fmt.Errorf("无法解析内容根目录: %w", err)
		}
		cfg.Global.ContentRoot = absRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8123)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ContentRoot", "")
	v.SetDefault("CacheDir", ".cache")
	v.SetDefault("ToolTimeout", "60s")
	v.SetDefault("TextMaxAge", 0)
	v.SetDefault("BinaryMaxAge", 3600)
	v.SetDefault("EnableDiagnostics", false)
	v.SetDefault("Tools.ThumbnailCommand", "convert")
	v.SetDefault("Tools.RenderCommand", "pandoc")
	v.SetDefault("Tools.RenderStylesheet", "/style.css")
}

func applyDefaults(cfg *Config) {
	g := &cfg.Global
	g.CacheDir = strings.TrimSpace(g.CacheDir)
	if g.CacheDir == "" {
		g.CacheDir = ".cache"
	}
	if g.ToolTimeout.DurationValue() == 0 {
		g.ToolTimeout = Duration(60 * time.Second)
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}

	t := &cfg.Tools
	t.ThumbnailCommand = strings.TrimSpace(t.ThumbnailCommand)
	t.RenderCommand = strings.TrimSpace(t.RenderCommand)
	t.RenderStylesheet = strings.TrimSpace(t.RenderStylesheet)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
