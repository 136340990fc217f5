package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// InternalErrorBody is the fixed body of every 500 response.
const InternalErrorBody = "Internal server error."

// ContentHandler answers every request that is not a diagnostics route. It
// allows injecting fake handlers during tests.
type ContentHandler interface {
	Handle(fiber.Ctx) error
}

// ContentHandlerFunc adapts a function to the ContentHandler interface.
type ContentHandlerFunc func(fiber.Ctx) error

// Handle makes ContentHandlerFunc satisfy ContentHandler.
func (f ContentHandlerFunc) Handle(c fiber.Ctx) error {
	return f(c)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger  *logrus.Logger
	Handler ContentHandler
	// EnableDiagnostics 为 true 时 /-/ 前缀交给后注册的诊断路由，否则按普通内容处理。
	EnableDiagnostics bool
}

const contextKeyRequestID = "_serben_request_id"

// NewApp builds a Fiber application with request-id middleware, panic
// recovery and a catch-all route into the content handler.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("content handler is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(requestIDMiddleware())
	app.Use(recover.New())

	app.All("/*", func(c fiber.Ctx) error {
		if opts.EnableDiagnostics && isDiagnosticsPath(string(c.Request().URI().Path())) {
			err := c.Next()
			// 没有诊断路由匹配时回到内容处理器，保持统一的 404 响应。
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusNotFound {
				return opts.Handler.Handle(c)
			}
			return err
		}
		return opts.Handler.Handle(c)
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID，写入 Locals 与 X-Request-ID 响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// errorHandler 处理逃逸到框架的错误：*fiber.Error 保留状态码，其余一律 500。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := InternalErrorBody

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			body = fiberErr.Message
		}

		fields := logrus.Fields{
			"action":     "serve",
			"request_id": RequestID(c),
			"path":       string(c.Request().URI().Path()),
			"status":     status,
		}
		if status >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(fields).Error("request_failed")
		} else {
			logger.WithError(err).WithFields(fields).Debug("request_rejected")
		}

		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.Status(status).SendString(body)
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
