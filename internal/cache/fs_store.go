package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/serben/serben/internal/derive"
)

const (
	tempPrefix         = ".tmp-"
	defaultToolTimeout = 60 * time.Second
)

// Options 控制磁盘缓存的行为。
type Options struct {
	// BasePath 是保留缓存区目录，通常为 <ContentRoot>/<CacheDir>；首次生成时才创建。
	BasePath string
	Tools    derive.Toolset
	// ToolTimeout 限制单次外部工具调用的时长，<=0 时使用默认值。
	ToolTimeout time.Duration
	Logger      *logrus.Logger
}

// NewStore 构建磁盘缓存，整站复用一份实例。
func NewStore(opts Options) (Store, error) {
	if opts.BasePath == "" {
		return nil, errors.New("cache base path required")
	}

	abs, err := filepath.Abs(opts.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}

	timeout := opts.ToolTimeout
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &fileStore{
		basePath: abs,
		tools:    opts.Tools,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// fileStore 通过 singleflight 合并同一 Locator 的并发生成，其余并发访问不加锁。
type fileStore struct {
	basePath string
	tools    derive.Toolset
	timeout  time.Duration
	logger   *logrus.Logger

	group singleflight.Group
}

func (s *fileStore) BasePath() string {
	return s.basePath
}

// Get 只做一次 stat，不受请求取消影响，避免把已取消的命中误报为失败。
func (s *fileStore) Get(_ context.Context, locator Locator) (*Entry, error) {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}
	return statEntry(locator, filePath)
}

func (s *fileStore) Fetch(ctx context.Context, locator Locator, sourcePath string) (*Entry, error) {
	entry, err := s.Get(ctx, locator)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := checkSource(sourcePath); err != nil {
		return nil, err
	}

	value, err, _ := s.group.Do(locatorKey(locator), func() (interface{}, error) {
		return s.generate(ctx, locator, sourcePath)
	})
	if err != nil {
		return nil, err
	}

	generated := *value.(*Entry)
	generated.Generated = true
	return &generated, nil
}

func (s *fileStore) Count(kind derive.Kind) (int, error) {
	spec, ok := derive.Resolve(kind)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	entries, err := os.ReadDir(filepath.Join(s.basePath, spec.CacheDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), tempPrefix) {
			count++
		}
	}
	return count, nil
}

// generate 只能在 singleflight 内调用：先复查缓存，再运行工具写入临时文件并 rename 到位。
func (s *fileStore) generate(ctx context.Context, locator Locator, sourcePath string) (*Entry, error) {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}
	if entry, err := statEntry(locator, filePath); err == nil {
		return entry, nil
	}

	tool, err := s.tools.For(locator.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTool, err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	// 临时文件与目标同目录以保证 rename 原子；保留目标文件名结尾，外部工具可据扩展名判断格式。
	tempName := filepath.Join(dir, tempPrefix+uuid.NewString()+"-"+filepath.Base(filePath))

	// 生成结果由所有等待者共享，不随首个请求的取消而中断，只受 ToolTimeout 约束。
	toolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	started := time.Now()
	if err := tool.Generate(toolCtx, sourcePath, tempName); err != nil {
		os.Remove(tempName)
		return nil, fmt.Errorf("generate %s for %s: %w", locator.Kind, locator.Source, err)
	}

	info, err := os.Stat(tempName)
	if err != nil {
		os.Remove(tempName)
		return nil, fmt.Errorf("stat generated %s: %w", locator.Kind, err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		os.Remove(tempName)
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, locator.Source)
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, fmt.Errorf("commit cache entry: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action":      "derive",
		"kind":        locator.Kind,
		"source":      locator.Source,
		"entry":       filePath,
		"size_bytes":  info.Size(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("cache_entry_generated")

	return statEntry(locator, filePath)
}

func (s *fileStore) entryPath(locator Locator) (string, error) {
	spec, ok := derive.Resolve(locator.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, locator.Kind)
	}

	source := strings.Trim(locator.Source, "/")
	if source == "" || strings.ContainsRune(source, 0) {
		return "", errors.New("invalid cache source")
	}

	dir := filepath.Join(s.basePath, spec.CacheDir)
	filePath := filepath.Join(dir, entryName(source, spec.Suffix))
	if filepath.Dir(filePath) != dir {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}

func statEntry(locator Locator, filePath string) (*Entry, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func checkSource(sourcePath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrSourceMissing
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return ErrSourceMissing
	}
	return nil
}
