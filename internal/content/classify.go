package content

import (
	"path"
	"strings"

	"github.com/serben/serben/internal/derive"
)

// Class 是请求路径的分类结果，决定由哪个分支响应。
type Class int

const (
	ClassIndex Class = iota
	ClassRootListing
	ClassReserved
	ClassExtensionless
	ClassText
	ClassDerived
	ClassSource
	ClassBinary
)

// SourceMarker 是查看原始文本的扩展名标记，例如 page.html.source。
const SourceMarker = "source"

var classTags = map[Class]string{
	ClassIndex:         "idx",
	ClassRootListing:   "all",
	ClassReserved:      "rsv",
	ClassExtensionless: "dir",
	ClassText:          "txt",
	ClassDerived:       "drv",
	ClassSource:        "src",
	ClassBinary:        "bin",
}

// String 返回日志中使用的三字母分类标签。
func (c Class) String() string {
	if tag, ok := classTags[c]; ok {
		return tag
	}
	return "unknown"
}

var textExtensions = map[string]struct{}{
	"html": {}, "css": {}, "js": {}, "txt": {}, "md": {},
	"csv": {}, "ics": {}, "xml": {}, "htm": {}, "rss": {},
}

// Route 描述一次分类。Path 是已清理的 URL 路径，派生与 source 分支已去掉标记。
type Route struct {
	Class Class
	Path  string
	// Kind 仅在 ClassDerived 时有值。
	Kind derive.Kind
	// Ext 是 Path 最后一段的小写扩展名，不含点。
	Ext string
}

// Tag 返回日志分类标签，派生分支使用种类名。
func (r Route) Tag() string {
	if r.Class == ClassDerived {
		return string(r.Kind)
	}
	return r.Class.String()
}

// Classify 按固定顺序对请求路径分类，首个匹配生效。reserved 是保留缓存区的目录名。
func Classify(requestPath, reserved string) Route {
	clean := path.Clean("/" + requestPath)

	switch {
	case clean == "/":
		return Route{Class: ClassIndex, Path: "/index"}
	case clean == "/*":
		return Route{Class: ClassRootListing, Path: "/"}
	case isReserved(clean, reserved):
		return Route{Class: ClassReserved, Path: clean}
	}

	ext := extension(path.Base(clean))
	if ext == "" {
		return Route{Class: ClassExtensionless, Path: clean}
	}
	if _, ok := textExtensions[ext]; ok {
		return Route{Class: ClassText, Path: clean, Ext: ext}
	}

	stripped := clean[:len(clean)-len(ext)-1]
	if spec, ok := derive.ByMarker(ext); ok {
		return markedRoute(Route{Class: ClassDerived, Path: stripped, Kind: spec.Kind}, reserved)
	}
	if ext == SourceMarker {
		return markedRoute(Route{Class: ClassSource, Path: stripped}, reserved)
	}
	return Route{Class: ClassBinary, Path: clean, Ext: ext}
}

// markedRoute 在去掉标记后复查保留区，防止 /.cache/x.png.thumbnail 这类路径绕过。
func markedRoute(route Route, reserved string) Route {
	if route.Path == "" || route.Path == "/" || isReserved(route.Path, reserved) {
		return Route{Class: ClassReserved, Path: route.Path}
	}
	route.Ext = extension(path.Base(route.Path))
	return route
}

// extension 返回小写扩展名。仅以点开头的名称（.bashrc）视为没有扩展名。
func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
