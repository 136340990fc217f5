package cache

import (
	"context"
	"errors"
	"time"

	"github.com/serben/serben/internal/derive"
)

// Store 负责派生资源的查找与生成。磁盘布局遵循：
//
//	<BasePath>/<Spec.CacheDir>/<hash>-<flattened source><Spec.Suffix>
//
// 条目一旦写入即视为不可变，源文件变化不会触发重新生成。
type Store interface {
	// Get 返回已存在的缓存条目；不存在时返回 ErrNotFound，不会调用外部工具。
	Get(ctx context.Context, locator Locator) (*Entry, error)

	// Fetch 先查缓存，未命中时以 sourcePath 为输入生成条目。
	// 同一 Locator 的并发未命中只会调用一次工具。
	Fetch(ctx context.Context, locator Locator, sourcePath string) (*Entry, error)

	// Count 返回某个种类当前已落盘的条目数，供诊断接口使用。
	Count(kind derive.Kind) (int, error)

	// BasePath 返回保留缓存区的绝对路径。
	BasePath() string
}

// Locator 唯一定位一个缓存条目；Source 是相对内容根目录的 URL 风格路径，不带前导 /。
type Locator struct {
	Kind   derive.Kind
	Source string
}

// Entry 描述一个已落盘的缓存条目。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
	// Generated 为 true 表示本次调用触发了生成（或等待了同 key 的生成）。
	Generated bool `json:"generated"`
}

var (
	// ErrNotFound 表示缓存条目不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrSourceMissing 表示派生所需的源文件不存在或不是普通文件。
	ErrSourceMissing = errors.New("derive source not found")
	// ErrUnknownKind 表示 Locator 引用了未注册的派生种类。
	ErrUnknownKind = errors.New("unknown derive kind")
	// ErrEmptyOutput 表示工具正常退出却没有产出内容。
	ErrEmptyOutput = errors.New("derive tool produced no output")
	// ErrNoTool 表示该种类没有配置可用的工具。
	ErrNoTool = errors.New("no derive tool configured")
)
