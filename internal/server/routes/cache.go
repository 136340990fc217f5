package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/serben/serben/internal/cache"
	"github.com/serben/serben/internal/derive"
)

// RegisterCacheRoutes 暴露 /-/cache 诊断接口，报告各派生种类的缓存条目数。
// 必须在 server.NewApp 之后注册，且 AppOptions.EnableDiagnostics 为 true。
func RegisterCacheRoutes(app *fiber.App, store cache.Store) {
	if app == nil || store == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		kinds, err := encodeKinds(derive.List(), store)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_count_failed"})
		}
		return c.JSON(fiber.Map{
			"cache_dir": store.BasePath(),
			"kinds":     kinds,
		})
	})

	app.Get("/-/cache/:kind", func(c fiber.Ctx) error {
		kind := strings.ToLower(strings.TrimSpace(c.Params("kind")))
		if kind == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kind_required"})
		}
		spec, ok := derive.Resolve(derive.Kind(kind))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "kind_not_found"})
		}
		encoded, err := encodeKind(spec, store)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_count_failed"})
		}
		return c.JSON(encoded)
	})
}

type kindPayload struct {
	Kind        derive.Kind   `json:"kind"`
	Marker      string        `json:"marker"`
	CacheDir    string        `json:"cache_dir"`
	Output      derive.Output `json:"output"`
	Description string        `json:"description"`
	Entries     int           `json:"entries"`
}

func encodeKinds(specs []derive.Spec, store cache.Store) ([]kindPayload, error) {
	result := make([]kindPayload, 0, len(specs))
	for _, spec := range specs {
		item, err := encodeKind(spec, store)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

func encodeKind(spec derive.Spec, store cache.Store) (kindPayload, error) {
	count, err := store.Count(spec.Kind)
	if err != nil {
		return kindPayload{}, err
	}
	return kindPayload{
		Kind:        spec.Kind,
		Marker:      spec.Marker,
		CacheDir:    spec.CacheDir,
		Output:      spec.Output,
		Description: spec.Description,
		Entries:     count,
	}, nil
}
