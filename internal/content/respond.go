package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/serben/serben/internal/cache"
	"github.com/serben/serben/internal/derive"
	"github.com/serben/serben/internal/server"
)

const (
	notFoundPage         = "404.html"
	notFoundBody         = "404 Not Found."
	headerCacheHit       = "X-Serben-Cache-Hit"
	contentTypePlainText = "text/plain; charset=utf-8"
	contentTypeHTML      = "text/html; charset=utf-8"
)

func publicMaxAge(seconds int64) string {
	return "public, max-age=" + strconv.FormatInt(seconds, 10)
}

// serveExtensionless 目录返回索引，普通文件按纯文本返回（LICENSE、README 等）。
func (h *Handler) serveExtensionless(c fiber.Ctx, filePath string) (outcome, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return h.notFound(c)
		}
		return h.internalError(c, filePath, err)
	}
	if info.IsDir() {
		return h.serveDir(c, filePath)
	}
	return h.serveText(c, filePath, ContentType(""))
}

func (h *Handler) serveText(c fiber.Ctx, filePath, contentType string) (outcome, error) {
	data, isDir, err := readFile(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return h.notFound(c)
	case err != nil:
		return h.internalError(c, filePath, err)
	case isDir:
		return h.serveDir(c, filePath)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, publicMaxAge(h.textMaxAge))
	return outcome{status: fiber.StatusOK, filePath: filePath}, c.Status(fiber.StatusOK).Send(data)
}

// serveBinary 使用框架按扩展名推断的类型，未知扩展名为 application/octet-stream。
func (h *Handler) serveBinary(c fiber.Ctx, filePath, ext string) (outcome, error) {
	data, isDir, err := readFile(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return h.notFound(c)
	case err != nil:
		return h.internalError(c, filePath, err)
	case isDir:
		return h.serveDir(c, filePath)
	}

	if ext != "" {
		c.Type(ext)
	}
	c.Set(fiber.HeaderCacheControl, publicMaxAge(h.binaryMaxAge))
	return outcome{status: fiber.StatusOK, filePath: filePath}, c.Status(fiber.StatusOK).Send(data)
}

func (h *Handler) serveDir(c fiber.Ctx, dir string) (outcome, error) {
	body, err := h.lister.Render(dir)
	if err != nil {
		return h.internalError(c, dir, err)
	}
	c.Set(fiber.HeaderContentType, contentTypeHTML)
	return outcome{status: fiber.StatusOK, filePath: dir}, c.Status(fiber.StatusOK).Send(body)
}

// serveDerived 查找或生成派生资源。缓存区只会被写入，从不直接暴露给请求路径。
func (h *Handler) serveDerived(c fiber.Ctx, route Route, sourcePath string) (outcome, error) {
	spec, ok := derive.Resolve(route.Kind)
	if !ok {
		return h.notFound(c)
	}

	source, err := h.root.Rel(sourcePath)
	if err != nil || source == "" {
		return h.notFound(c)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	entry, err := h.store.Fetch(ctx, cache.Locator{Kind: route.Kind, Source: source}, sourcePath)
	if err != nil {
		if errors.Is(err, cache.ErrSourceMissing) {
			return h.notFound(c)
		}
		return h.internalError(c, sourcePath, err)
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		return h.internalError(c, entry.FilePath, fmt.Errorf("read cache entry: %w", err))
	}

	hit := !entry.Generated
	c.Set(headerCacheHit, strconv.FormatBool(hit))
	out := outcome{status: fiber.StatusOK, filePath: entry.FilePath, cacheHit: hit}
	if spec.Output == derive.OutputText {
		c.Set(fiber.HeaderContentType, ContentType(filepath.Ext(entry.FilePath)))
		c.Set(fiber.HeaderCacheControl, publicMaxAge(h.textMaxAge))
	} else {
		if route.Ext != "" {
			c.Type(route.Ext)
		}
		c.Set(fiber.HeaderCacheControl, publicMaxAge(h.binaryMaxAge))
	}
	return out, c.Status(fiber.StatusOK).Send(data)
}

// notFound 优先返回根目录下的 404.html，状态码始终为 404。
func (h *Handler) notFound(c fiber.Ctx) (outcome, error) {
	page := filepath.Join(h.root.Dir(), notFoundPage)
	out := outcome{status: fiber.StatusNotFound}
	if data, isDir, err := readFile(page); err == nil && !isDir {
		out.filePath = page
		c.Set(fiber.HeaderContentType, contentTypeHTML)
		return out, c.Status(fiber.StatusNotFound).Send(data)
	}
	c.Set(fiber.HeaderContentType, contentTypePlainText)
	return out, c.Status(fiber.StatusNotFound).SendString(notFoundBody)
}

func (h *Handler) internalError(c fiber.Ctx, filePath string, cause error) (outcome, error) {
	c.Set(fiber.HeaderContentType, contentTypePlainText)
	out := outcome{status: fiber.StatusInternalServerError, filePath: filePath, err: cause}
	return out, c.Status(fiber.StatusInternalServerError).SendString(server.InternalErrorBody)
}

// readFile 读取普通文件；路径为目录时返回 isDir=true 而非错误。
func readFile(filePath string) ([]byte, bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false, err
	}
	if info.IsDir() {
		return nil, true, nil
	}
	data, err := os.ReadFile(filePath)
	return data, false, err
}
