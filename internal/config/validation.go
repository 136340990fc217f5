package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if err := validateContentRoot(g.ContentRoot); err != nil {
		return err
	}
	if err := validateCacheDir(g.CacheDir); err != nil {
		return err
	}
	if g.ToolTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ToolTimeout", "必须大于 0")
	}
	if g.TextMaxAge.DurationValue() < 0 {
		return newFieldError("Global.TextMaxAge", "不能为负数")
	}
	if g.BinaryMaxAge.DurationValue() < 0 {
		return newFieldError("Global.BinaryMaxAge", "不能为负数")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}

	t := c.Tools
	if t.ThumbnailCommand == "" {
		return newFieldError("Tools.ThumbnailCommand", "不能为空")
	}
	if t.RenderCommand == "" {
		return newFieldError("Tools.RenderCommand", "不能为空")
	}
	if t.RenderStylesheet == "" {
		return newFieldError("Tools.RenderStylesheet", "不能为空")
	}

	return nil
}

func validateContentRoot(root string) error {
	if root == "" {
		return newFieldError("Global.ContentRoot", "不能为空")
	}
	info, err := os.Stat(root)
	if err != nil {
		return newFieldError("Global.ContentRoot", fmt.Sprintf("无法访问: %v", err))
	}
	if !info.IsDir() {
		return newFieldError("Global.ContentRoot", "必须是目录")
	}
	return nil
}

// validateCacheDir 要求缓存目录是内容根目录下的单级目录名。
func validateCacheDir(dir string) error {
	switch {
	case dir == "", dir == ".", dir == "..":
		return newFieldError("Global.CacheDir", "必须是单级目录名")
	case strings.ContainsAny(dir, `/\`):
		return newFieldError("Global.CacheDir", "不允许包含路径分隔符")
	case strings.ContainsRune(dir, 0):
		return newFieldError("Global.CacheDir", "包含非法字符")
	}
	return nil
}
