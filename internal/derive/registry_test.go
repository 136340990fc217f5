package derive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func replaceRegistry(t *testing.T) {
	t.Helper()
	prev := globalRegistry
	globalRegistry = newRegistry()
	t.Cleanup(func() { globalRegistry = prev })
}

func TestBuiltinKindsRegistered(t *testing.T) {
	thumb, ok := ByMarker("thumbnail")
	require.True(t, ok)
	require.Equal(t, KindThumbnail, thumb.Kind)
	require.Equal(t, OutputBinary, thumb.Output)
	require.Empty(t, thumb.Suffix)

	render, ok := ByMarker(".RENDER")
	require.True(t, ok, "marker lookup should ignore case and a leading dot")
	require.Equal(t, KindRender, render.Kind)
	require.Equal(t, ".html", render.Suffix)
	require.Equal(t, OutputText, render.Output)

	_, ok = ByMarker("source")
	require.False(t, ok)
}

func TestRegisterResolveAndList(t *testing.T) {
	replaceRegistry(t)

	require.NoError(t, Register(Spec{Kind: "webp", Marker: "webp", CacheDir: "webp", Output: OutputBinary}))
	require.NoError(t, Register(Spec{Kind: "pdf", Marker: "PDF", CacheDir: "pdf", Output: OutputBinary}))

	spec, ok := Resolve("pdf")
	require.True(t, ok)
	require.Equal(t, "pdf", spec.Marker)

	list := List()
	require.Len(t, list, 2)
	require.Equal(t, Kind("pdf"), list[0].Kind)
	require.Equal(t, Kind("webp"), list[1].Kind)
}

func TestRegisterRejectsConflicts(t *testing.T) {
	replaceRegistry(t)

	require.NoError(t, Register(Spec{Kind: "a", Marker: "a", CacheDir: "a", Output: OutputText}))
	require.Error(t, Register(Spec{Kind: "a", Marker: "b", CacheDir: "b", Output: OutputText}), "duplicate kind")
	require.Error(t, Register(Spec{Kind: "b", Marker: "a", CacheDir: "b", Output: OutputText}), "duplicate marker")
	require.Error(t, Register(Spec{Kind: "c", Marker: "c", CacheDir: "a", Output: OutputText}), "duplicate cache dir")
}

func TestRegisterValidatesSpec(t *testing.T) {
	replaceRegistry(t)

	require.Error(t, Register(Spec{Marker: "x", CacheDir: "x", Output: OutputText}))
	require.Error(t, Register(Spec{Kind: "x", CacheDir: "x", Output: OutputText}))
	require.Error(t, Register(Spec{Kind: "x", Marker: "x", CacheDir: "a/b", Output: OutputText}))
	require.Error(t, Register(Spec{Kind: "x", Marker: "x", CacheDir: "x", Output: "stream"}))
}

func TestToolsetFor(t *testing.T) {
	tools := Toolset{KindThumbnail: ToolFunc(nil)}
	_, err := tools.For(KindRender)
	require.Error(t, err)
}
