package content

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/serben/serben/internal/cache"
	"github.com/serben/serben/internal/logging"
	"github.com/serben/serben/internal/server"
)

// Options 描述内容处理器的依赖。
type Options struct {
	Root   Root
	Store  cache.Store
	Logger *logrus.Logger
	// TextMaxAge / BinaryMaxAge 写入 Cache-Control 的 max-age，单位秒。
	TextMaxAge   time.Duration
	BinaryMaxAge time.Duration
}

// Handler 为每个请求分类并分派到目录索引、文件或派生资源分支，
// 任何分支都不会把错误抛给上层，失败统一转换为 404 或 500。
type Handler struct {
	root         Root
	store        cache.Store
	lister       *Lister
	logger       *logrus.Logger
	textMaxAge   int64
	binaryMaxAge int64
}

// outcome 记录一次响应的结果，用于请求日志。
type outcome struct {
	status   int
	filePath string
	cacheHit bool
	err      error
}

// NewHandler 构建内容处理器。
func NewHandler(opts Options) (*Handler, error) {
	if opts.Root.Dir() == "" {
		return nil, errors.New("content root is required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.TextMaxAge < 0 || opts.BinaryMaxAge < 0 {
		return nil, errors.New("max age must not be negative")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		root:         opts.Root,
		store:        opts.Store,
		lister:       NewLister(opts.Root),
		logger:       logger,
		textMaxAge:   int64(opts.TextMaxAge / time.Second),
		binaryMaxAge: int64(opts.BinaryMaxAge / time.Second),
	}, nil
}

// Handle 是 catch-all 路由的入口，每个请求记录一条日志。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	route := Classify(requestPath(c), h.root.Reserved())

	out, err := h.dispatch(c, route)
	h.logResult(c, route, out, started)
	return err
}

func (h *Handler) dispatch(c fiber.Ctx, route Route) (outcome, error) {
	switch route.Class {
	case ClassReserved:
		return h.notFound(c)
	case ClassRootListing:
		return h.serveDir(c, h.root.Dir())
	}

	filePath, err := h.root.Resolve(route.Path)
	if err != nil {
		return h.notFound(c)
	}

	switch route.Class {
	case ClassIndex, ClassExtensionless:
		return h.serveExtensionless(c, filePath)
	case ClassText:
		return h.serveText(c, filePath, ContentType(route.Ext))
	case ClassSource:
		return h.serveText(c, filePath, ContentType("txt"))
	case ClassDerived:
		return h.serveDerived(c, route, filePath)
	default:
		return h.serveBinary(c, filePath, route.Ext)
	}
}

func (h *Handler) logResult(c fiber.Ctx, route Route, out outcome, started time.Time) {
	fields := logging.RequestFields(server.RequestID(c), route.Tag(), out.filePath, out.cacheHit)
	fields["action"] = "serve"
	fields["method"] = c.Method()
	fields["request_path"] = route.Path
	fields["status"] = out.status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if out.err != nil {
		fields["error"] = out.err.Error()
		h.logger.WithFields(fields).Error("serve_failed")
		return
	}
	h.logger.WithFields(fields).Info("serve_complete")
}

func requestPath(c fiber.Ctx) string {
	if c == nil {
		return "/"
	}
	uri := c.Request().URI()
	if uri == nil {
		return "/"
	}
	pathVal := string(uri.Path())
	if pathVal == "" {
		return "/"
	}
	return pathVal
}
