package content

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/serben/serben/internal/derive"
)

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "ico": {}, "webp": {},
}

const listingTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.thumbnail-container {
	width: 200px;
	height: 200px;
	background-color: grey;
	display: flex;
	align-items: center;
	justify-content: center;
	overflow: hidden;
}
.thumbnail-container img {
	max-height: 100%;
	max-width: 100%;
}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<a href="{{.Parent}}">..</a><br>
{{- range .Entries}}
{{- if .Thumbnail}}
<div class="thumbnail-container"><img src="{{.Thumbnail}}" alt="preview"></div>
{{- end}}
<a href="{{.Href}}">{{.Name}}</a><br>
{{- end}}
<footer><p>served by serben</p></footer>
</body>
</html>
`

// Lister 渲染目录索引页，每次请求重新读取目录。
type Lister struct {
	root   Root
	tmpl   *template.Template
	marker string
}

type listingPage struct {
	Title   string
	Parent  string
	Entries []listingEntry
}

type listingEntry struct {
	Name      string
	Href      string
	Thumbnail string
}

// NewLister 绑定内容根目录。
func NewLister(root Root) *Lister {
	marker := string(derive.KindThumbnail)
	if spec, ok := derive.Resolve(derive.KindThumbnail); ok {
		marker = spec.Marker
	}
	return &Lister{
		root:   root,
		tmpl:   template.Must(template.New("listing").Parse(listingTemplate)),
		marker: marker,
	}
}

// Render 生成 dir 的 HTML 索引。点文件一律隐藏，根目录下的保留缓存区也不会列出。
func (l *Lister) Render(dir string) ([]byte, error) {
	rel, err := l.root.Rel(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	page := listingPage{
		Title:  "Index: /" + rel,
		Parent: parentHref(rel),
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if rel == "" && name == l.root.Reserved() {
			continue
		}

		href := escapeURLPath(path.Join("/", rel, name))
		item := listingEntry{Name: name, Href: href}
		if !entry.IsDir() {
			if _, ok := imageExtensions[extension(name)]; ok {
				item.Thumbnail = href + "." + l.marker
			}
		}
		page.Entries = append(page.Entries, item)
	}

	var buf bytes.Buffer
	if err := l.tmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render listing: %w", err)
	}
	return buf.Bytes(), nil
}

// parentHref 返回上级链接。根目录及其直接子目录指向 /*，因为 / 会解析为 index。
func parentHref(rel string) string {
	if rel == "" || !strings.Contains(rel, "/") {
		return "/*"
	}
	return escapeURLPath("/" + path.Dir(rel))
}

func escapeURLPath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
