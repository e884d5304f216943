package ingest

import (
	"strings"
)

// SplitLines 将文本按非空行切分为 chunk 序列。
// 行序即 chunk 序，后续启发式按位置扫描相邻 chunk，顺序不可丢。
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}
