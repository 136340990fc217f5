package content

import "strings"

// textSubtypes 覆盖扩展名与 MIME 子类型不一致的情况，其余扩展名原样作为子类型。
var textSubtypes = map[string]string{
	"":    "plain",
	"txt": "plain",
	"js":  "javascript",
	"md":  "markdown",
	"htm": "html",
	"ics": "calendar",
	"rss": "xml",
}

// ContentType 返回文本文件的 Content-Type，例如 css -> "text/css; charset=utf-8"。
func ContentType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	subtype, ok := textSubtypes[ext]
	if !ok {
		subtype = ext
	}
	return "text/" + subtype + "; charset=utf-8"
}
