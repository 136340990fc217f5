package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot 表示请求路径解析后落在内容根目录之外。
var ErrOutsideRoot = errors.New("path escapes content root")

// Root 是启动时固定的内容根目录，按值传递给各组件。
type Root struct {
	dir string
	// realDir 是解析符号链接后的根目录，用于校验链接目标。
	realDir  string
	reserved string
}

// NewRoot 校验 dir 为已存在的目录，并记录保留缓存区的目录名。
func NewRoot(dir, reserved string) (Root, error) {
	if strings.TrimSpace(dir) == "" {
		return Root{}, errors.New("content root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve content root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Root{}, fmt.Errorf("stat content root: %w", err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("content root %s is not a directory", abs)
	}
	realDir, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, fmt.Errorf("resolve content root: %w", err)
	}
	return Root{
		dir:      filepath.Clean(abs),
		realDir:  realDir,
		reserved: strings.Trim(reserved, "/"),
	}, nil
}

// Dir 返回内容根目录的绝对路径。
func (r Root) Dir() string {
	return r.dir
}

// Reserved 返回保留缓存区的目录名。
func (r Root) Reserved() string {
	return r.reserved
}

// Resolve 把 URL 路径映射到根目录下的绝对路径，不检查文件是否存在。
// 已存在的路径会解析符号链接，链接目标落在根目录之外时同样拒绝。
func (r Root) Resolve(requestPath string) (string, error) {
	if strings.ContainsRune(requestPath, 0) {
		return "", ErrOutsideRoot
	}
	clean := path.Clean("/" + requestPath)
	joined := filepath.Join(r.dir, filepath.FromSlash(clean))
	if !within(r.dir, joined) {
		return "", ErrOutsideRoot
	}

	target, err := filepath.EvalSymlinks(joined)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 不存在的路径交给调用方按 404 处理。
		return joined, nil
	case err != nil:
		return "", fmt.Errorf("resolve %s: %w", clean, err)
	case r.realDir != "" && !within(r.realDir, target):
		return "", ErrOutsideRoot
	}
	return joined, nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rel 返回 abs 相对根目录的 URL 风格路径，根目录本身为 ""。
func (r Root) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil {
		return "", err
	}
	if !within(r.dir, abs) {
		return "", ErrOutsideRoot
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// IsReserved 判断已清理的请求路径是否位于保留缓存区。
func (r Root) IsReserved(cleanPath string) bool {
	return isReserved(cleanPath, r.reserved)
}

func isReserved(cleanPath, reserved string) bool {
	if reserved == "" {
		return false
	}
	prefix := "/" + reserved
	return cleanPath == prefix || strings.HasPrefix(cleanPath, prefix+"/")
}
