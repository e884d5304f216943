// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"strings"

	"policypulse/pkg/config"
)

// fieldHeuristic 结构化字段启发式：query 命中 triggers 即触发，
// 按位置在 chunk 序列中找含 terms 的行并取其邻近窗口
type fieldHeuristic struct {
	name     string
	triggers []string // query 触发词（小写）
	terms    []string // 文档行匹配词（小写）
	// tableRows > 0 表示多行表格字段：命中行后向下最多扩展 tableRows 行，
	// 遇到新的节标题提前截断
	tableRows int
}

// fieldCatalog 启发式按此顺序评估，首个产生非空结果者胜出，后续不再评估。
// 泛化词（insured、plan）排在具体词之后，避免抢占。
var fieldCatalog = []fieldHeuristic{
	{
		name:     "policy_number",
		triggers: []string{"policy number", "policy no"},
		terms:    []string{"policy no", "policy number"},
	},
	{
		name:      "nominee",
		triggers:  []string{"nominee"},
		terms:     []string{"nominee"},
		tableRows: 6,
	},
	{
		name:     "proposer",
		triggers: []string{"proposer"},
		terms:    []string{"proposer"},
	},
	{
		name:     "address",
		triggers: []string{"address"},
		terms:    []string{"address"},
	},
	{
		name:     "phone",
		triggers: []string{"phone", "mobile", "contact number"},
		terms:    []string{"phone", "mobile"},
	},
	{
		name:     "email",
		triggers: []string{"email", "e-mail"},
		terms:    []string{"email", "e-mail"},
	},
	{
		name:     "premium",
		triggers: []string{"premium"},
		terms:    []string{"premium"},
	},
	{
		name:     "sum_insured",
		triggers: []string{"sum insured", "sum assured"},
		terms:    []string{"sum insured", "sum assured"},
	},
	{
		name:     "customer_code",
		triggers: []string{"customer code"},
		terms:    []string{"customer code"},
	},
	{
		name:     "collection_number",
		triggers: []string{"collection number", "collection no"},
		terms:    []string{"collection no", "collection number"},
	},
	{
		name:     "collection_date",
		triggers: []string{"collection date"},
		terms:    []string{"collection date"},
	},
	{
		name:     "policy_category",
		triggers: []string{"policy category", "category"},
		terms:    []string{"category"},
	},
	{
		name:     "plan",
		triggers: []string{"plan", "product"},
		terms:    []string{"plan", "product"},
	},
	{
		name:     "inception_date",
		triggers: []string{"date of inception", "inception"},
		terms:    []string{"inception"},
	},
	{
		name:     "gstin",
		triggers: []string{"gstin", "gst"},
		terms:    []string{"gstin"},
	},
	{
		name:     "insured",
		triggers: []string{"who is insured", "insured"},
		terms:    []string{"insured"},
	},
}

// ExtractStructuredFields 按优先级评估字段启发式，返回首个非空窗口结果与命中字段名。
// 无任何启发式命中时返回 (nil, "")，调用方回退到相似检索。
func ExtractStructuredFields(queryText string, chunks []string, cfg config.RetrievalConfig) ([]string, string) {
	ql := strings.ToLower(queryText)
	for _, h := range fieldCatalog {
		if !containsAny(ql, h.triggers) {
			continue
		}
		passages := scanWindows(chunks, h, cfg)
		if len(passages) > 0 {
			return passages, h.name
		}
	}
	return nil, ""
}

// scanWindows 按位置扫描 chunk 序列，收集每个命中行的邻近窗口，去重保序并截断上限
func scanWindows(chunks []string, h fieldHeuristic, cfg config.RetrievalConfig) []string {
	var out []string
	seen := make(map[string]struct{})

	appendChunk := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for i, chunk := range chunks {
		if len(out) >= cfg.MaxPassages {
			break
		}
		if !containsAny(strings.ToLower(chunk), h.terms) {
			continue
		}

		start := i - cfg.WindowBefore
		if start < 0 {
			start = 0
		}
		end := i + cfg.WindowAfter
		if h.tableRows > 0 {
			// 表格字段向下扩窗，遇到新节标题提前截断
			end = i
			for j := i + 1; j <= i+h.tableRows && j < len(chunks); j++ {
				if isSectionHeader(chunks[j]) {
					break
				}
				end = j
			}
		}
		if end >= len(chunks) {
			end = len(chunks) - 1
		}

		for j := start; j <= end && len(out) < cfg.MaxPassages; j++ {
			appendChunk(chunks[j])
		}
	}

	if len(out) > cfg.MaxPassages {
		out = out[:cfg.MaxPassages]
	}
	return out
}

// isSectionHeader 判定新节标题：全大写字母行，或以冒号结尾且不含取值的行
func isSectionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if strings.HasSuffix(trimmed, ":") && !strings.ContainsAny(trimmed, "0123456789") {
		return true
	}
	hasLetter := false
	for _, r := range trimmed {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
