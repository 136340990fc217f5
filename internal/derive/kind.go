package derive

import (
	"context"
	"fmt"
)

// Kind 标识一种派生资源。
type Kind string

const (
	KindThumbnail Kind = "thumbnail"
	KindRender    Kind = "render"
)

// Output 描述派生结果按文本还是二进制返回。
type Output string

const (
	OutputBinary Output = "binary"
	OutputText   Output = "text"
)

// Spec 记录一种派生资源的静态信息，供路由分类、缓存布局与诊断端使用。
type Spec struct {
	Kind Kind
	// Marker 是请求路径上的扩展名标记，例如 a.png.thumbnail 中的 thumbnail。
	Marker string
	// CacheDir 是保留缓存区下该种类独占的子目录名。
	CacheDir string
	// Suffix 追加在缓存文件名之后，例如渲染结果的 .html。
	Suffix      string
	Output      Output
	Description string
}

// Tool 把 source 转换为 target，二者都是绝对路径；target 由调用方选定，工具只负责写入。
type Tool interface {
	Generate(ctx context.Context, source, target string) error
}

// ToolFunc adapts a function to the Tool interface.
type ToolFunc func(ctx context.Context, source, target string) error

// Generate makes ToolFunc satisfy Tool.
func (f ToolFunc) Generate(ctx context.Context, source, target string) error {
	return f(ctx, source, target)
}

// Toolset 把每个种类映射到生成它的工具。
type Toolset map[Kind]Tool

// For 返回 kind 对应的工具。
func (t Toolset) For(kind Kind) (Tool, error) {
	tool, ok := t[kind]
	if !ok || tool == nil {
		return nil, fmt.Errorf("no tool configured for %s", kind)
	}
	return tool, nil
}
