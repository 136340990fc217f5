package cache

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// maxFlatLen 保证 "<16 位 hash>-<flattened><suffix>" 远低于常见文件系统 255 字节的文件名上限。
const maxFlatLen = 128

// entryName 计算缓存文件名。目录分隔符被压平为 "_"，因此 a/b.png 与 a_b.png
// 压平后相同；前缀的 xxhash 取自原始相对路径，用来区分这类冲突。
// 截断只保留尾部，使扩展名（ImageMagick 据此选择输出格式）始终保留。
func entryName(source, suffix string) string {
	source = strings.Trim(source, "/")
	flat := strings.ReplaceAll(source, "/", "_")
	if len(flat) > maxFlatLen {
		cut := len(flat) - maxFlatLen
		for cut < len(flat) && !utf8.RuneStart(flat[cut]) {
			cut++
		}
		flat = flat[cut:]
	}
	return fmt.Sprintf("%016x-%s%s", xxhash.Sum64String(source), flat, suffix)
}

func locatorKey(locator Locator) string {
	return string(locator.Kind) + "::" + strings.Trim(locator.Source, "/")
}
