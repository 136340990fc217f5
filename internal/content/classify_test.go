package content

import (
	"testing"

	"github.com/serben/serben/internal/derive"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path  string
		class Class
		clean string
		kind  derive.Kind
		ext   string
	}{
		{path: "/", class: ClassIndex, clean: "/index"},
		{path: "", class: ClassIndex, clean: "/index"},
		{path: "/*", class: ClassRootListing, clean: "/"},
		{path: "/.cache", class: ClassReserved, clean: "/.cache"},
		{path: "/.cache/thumbnails/x.png", class: ClassReserved, clean: "/.cache/thumbnails/x.png"},
		{path: "/a/../.cache/x", class: ClassReserved, clean: "/.cache/x"},
		{path: "/.cachefile", class: ClassExtensionless, clean: "/.cachefile"},
		{path: "/LICENSE", class: ClassExtensionless, clean: "/LICENSE"},
		{path: "/.bashrc", class: ClassExtensionless, clean: "/.bashrc"},
		{path: "/docs/", class: ClassExtensionless, clean: "/docs"},
		{path: "/style.css", class: ClassText, clean: "/style.css", ext: "css"},
		{path: "/Page.HTML", class: ClassText, clean: "/Page.HTML", ext: "html"},
		{path: "/photos/a.png", class: ClassBinary, clean: "/photos/a.png", ext: "png"},
		{path: "/photos/a.png.thumbnail", class: ClassDerived, clean: "/photos/a.png", kind: derive.KindThumbnail, ext: "png"},
		{path: "/a.PNG.Thumbnail", class: ClassDerived, clean: "/a.PNG", kind: derive.KindThumbnail, ext: "png"},
		{path: "/notes.md.render", class: ClassDerived, clean: "/notes.md", kind: derive.KindRender, ext: "md"},
		{path: "/index.html.source", class: ClassSource, clean: "/index.html", ext: "html"},
		{path: "/.cache/x.png.thumbnail", class: ClassReserved, clean: "/.cache/x.png.thumbnail"},
		{path: "/.cache.thumbnail", class: ClassReserved, clean: "/.cache"},
		{path: "/../../etc/passwd", class: ClassExtensionless, clean: "/etc/passwd"},
	}

	for _, tc := range cases {
		route := Classify(tc.path, ".cache")
		if route.Class != tc.class {
			t.Fatalf("%q: expected class %s, got %s", tc.path, tc.class, route.Class)
		}
		if route.Path != tc.clean {
			t.Fatalf("%q: expected path %s, got %s", tc.path, tc.clean, route.Path)
		}
		if route.Kind != tc.kind {
			t.Fatalf("%q: expected kind %q, got %q", tc.path, tc.kind, route.Kind)
		}
		if route.Ext != tc.ext {
			t.Fatalf("%q: expected ext %q, got %q", tc.path, tc.ext, route.Ext)
		}
	}
}

func TestClassifyCustomReservedDir(t *testing.T) {
	if route := Classify("/derived/thumbnails", "derived"); route.Class != ClassReserved {
		t.Fatalf("custom reserved dir should be locked, got %s", route.Class)
	}
	if route := Classify("/.cache/x.txt", "derived"); route.Class != ClassText {
		t.Fatalf("default dir is not reserved when another is configured, got %s", route.Class)
	}
}

func TestRouteTag(t *testing.T) {
	if tag := Classify("/a.png.thumbnail", ".cache").Tag(); tag != "thumbnail" {
		t.Fatalf("derived tag should be the kind, got %s", tag)
	}
	if tag := Classify("/a.bin", ".cache").Tag(); tag != "bin" {
		t.Fatalf("unexpected tag %s", tag)
	}
	if tag := Class(99).String(); tag != "unknown" {
		t.Fatalf("unexpected tag %s", tag)
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"a.PNG":      "png",
		".bashrc":    "",
		"archive.":   "",
		"README":     "",
		"a.tar.gz":   "gz",
		".env.local": "local",
	}
	for name, want := range cases {
		if got := extension(name); got != want {
			t.Fatalf("extension(%q) = %q, want %q", name, got, want)
		}
	}
}
