package derive

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu       sync.RWMutex
	kinds    map[Kind]Spec
	byMarker map[string]Kind
}

func newRegistry() *registry {
	return &registry{
		kinds:    make(map[Kind]Spec),
		byMarker: make(map[string]Kind),
	}
}

// Register 将派生种类加入全局注册表，种类或标记重复时返回错误。
func Register(spec Spec) error {
	return globalRegistry.register(spec)
}

// MustRegister 在注册失败时 panic，适合 init() 中调用。
func MustRegister(spec Spec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Resolve 返回指定种类的 Spec。
func Resolve(kind Kind) (Spec, bool) {
	return globalRegistry.resolve(kind)
}

// ByMarker 根据请求路径上的扩展名标记查找种类，大小写不敏感。
func ByMarker(marker string) (Spec, bool) {
	return globalRegistry.byMarkerLookup(marker)
}

// List 返回按种类排序的 Spec 列表。
func List() []Spec {
	return globalRegistry.list()
}

func normalizeMarker(marker string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(marker), "."))
}

func (r *registry) register(spec Spec) error {
	if spec.Kind == "" {
		return fmt.Errorf("derive kind is required")
	}
	marker := normalizeMarker(spec.Marker)
	if marker == "" {
		return fmt.Errorf("derive kind %s: marker is required", spec.Kind)
	}
	if spec.CacheDir == "" || strings.ContainsAny(spec.CacheDir, `/\`) {
		return fmt.Errorf("derive kind %s: cache dir must be a single path segment", spec.Kind)
	}
	if spec.Output != OutputBinary && spec.Output != OutputText {
		return fmt.Errorf("derive kind %s: unknown output %q", spec.Kind, spec.Output)
	}
	spec.Marker = marker

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[spec.Kind]; exists {
		return fmt.Errorf("derive kind %s already registered", spec.Kind)
	}
	if owner, exists := r.byMarker[marker]; exists {
		return fmt.Errorf("marker %s already used by %s", marker, owner)
	}
	for _, other := range r.kinds {
		if other.CacheDir == spec.CacheDir {
			return fmt.Errorf("cache dir %s already used by %s", spec.CacheDir, other.Kind)
		}
	}
	r.kinds[spec.Kind] = spec
	r.byMarker[marker] = spec.Kind
	return nil
}

func (r *registry) resolve(kind Kind) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.kinds[kind]
	return spec, ok
}

func (r *registry) byMarkerLookup(marker string) (Spec, bool) {
	normalized := normalizeMarker(marker)
	if normalized == "" {
		return Spec{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.byMarker[normalized]
	if !ok {
		return Spec{}, false
	}
	return r.kinds[kind], true
}

func (r *registry) list() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Spec, 0, len(r.kinds))
	for _, spec := range r.kinds {
		result = append(result, spec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})
	return result
}
