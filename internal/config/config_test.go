package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load("", root)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 8123 {
		t.Fatalf("ListenPort 默认值应为 8123，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.CacheDir != ".cache" {
		t.Fatalf("CacheDir 默认值错误: %s", cfg.Global.CacheDir)
	}
	if cfg.Global.ToolTimeout.DurationValue() != time.Minute {
		t.Fatalf("ToolTimeout 默认值错误: %s", cfg.Global.ToolTimeout.DurationValue())
	}
	if cfg.Global.TextMaxAge.DurationValue() != 0 {
		t.Fatalf("TextMaxAge 默认应为 0")
	}
	if cfg.Global.BinaryMaxAge.DurationValue() != time.Hour {
		t.Fatalf("BinaryMaxAge 默认应为 1h，得到 %s", cfg.Global.BinaryMaxAge.DurationValue())
	}
	if cfg.Tools.ThumbnailCommand != "convert" || cfg.Tools.RenderCommand != "pandoc" {
		t.Fatalf("工具命令默认值错误: %+v", cfg.Tools)
	}
	if cfg.Global.EnableDiagnostics {
		t.Fatalf("诊断接口默认应关闭")
	}
	if cfg.CacheRoot() != filepath.Join(cfg.Global.ContentRoot, ".cache") {
		t.Fatalf("CacheRoot 计算错误: %s", cfg.CacheRoot())
	}
}

func TestLoadFromFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(testConfigPath(t, "valid.toml"), root)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 9000 {
		t.Fatalf("ListenPort 应当被解析，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.ToolTimeout.DurationValue() != 45*time.Second {
		t.Fatalf("ToolTimeout 解析错误: %s", cfg.Global.ToolTimeout.DurationValue())
	}
	if cfg.Global.TextMaxAge.DurationValue() != 30*time.Second {
		t.Fatalf("纯数字应按秒解析，得到 %s", cfg.Global.TextMaxAge.DurationValue())
	}
	if cfg.Global.BinaryMaxAge.DurationValue() != 2*time.Hour {
		t.Fatalf("Duration 字符串解析错误: %s", cfg.Global.BinaryMaxAge.DurationValue())
	}
	if cfg.Tools.ThumbnailCommand != "magick" {
		t.Fatalf("Tools 表应当被解析，得到 %s", cfg.Tools.ThumbnailCommand)
	}
	if cfg.Tools.RenderStylesheet != "/assets/site.css" {
		t.Fatalf("RenderStylesheet 解析错误: %s", cfg.Tools.RenderStylesheet)
	}
	if !cfg.Global.EnableDiagnostics {
		t.Fatalf("EnableDiagnostics 应为 true")
	}
}

func TestLoadMakesContentRootAbsolute(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	if err := os.Mkdir("site", 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	cfg, err := Load("", "site")
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if !filepath.IsAbs(cfg.Global.ContentRoot) {
		t.Fatalf("ContentRoot 应为绝对路径: %s", cfg.Global.ContentRoot)
	}
}

func TestValidateRejectsBadContentRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}

	cases := map[string]string{
		"missing": filepath.Join(t.TempDir(), "nope"),
		"file":    file,
	}
	for name, root := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Global.ContentRoot = root
			err := cfg.Validate()
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != "Global.ContentRoot" {
				t.Fatalf("期望 ContentRoot 字段错误，得到 %v", err)
			}
		})
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig(t)
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateCacheDir(t *testing.T) {
	testCases := []struct {
		name      string
		dir       string
		shouldErr bool
	}{
		{"dotted ok", ".cache", false},
		{"plain ok", "derived", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"nested", "a/b", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Global.CacheDir = tc.dir
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for cache dir %q", tc.dir)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for cache dir %q: %v", tc.dir, err)
			}
		})
	}
}

func TestValidateRequiresToolCommands(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tools.RenderCommand = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("RenderCommand 为空时应报错")
	}
}

func TestValidateRejectsNonPositiveToolTimeout(t *testing.T) {
	cfg := validConfig(t)
	cfg.Global.ToolTimeout = Duration(0)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ToolTimeout 为 0 时应报错")
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Global: GlobalConfig{
			ListenPort:   8123,
			LogLevel:     "info",
			ContentRoot:  t.TempDir(),
			CacheDir:     ".cache",
			ToolTimeout:  Duration(time.Minute),
			BinaryMaxAge: Duration(time.Hour),
		},
		Tools: ToolsConfig{
			ThumbnailCommand: "convert",
			RenderCommand:    "pandoc",
			RenderStylesheet: "/style.css",
		},
	}
}
