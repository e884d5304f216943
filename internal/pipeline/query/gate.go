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
	"context"

	"policypulse/internal/kb"
	"policypulse/internal/model/embedding"
	"policypulse/internal/pipeline/ingest"
	"policypulse/pkg/config"
	"policypulse/pkg/log"
	"policypulse/pkg/metrics"
)

// Source 标记检索结果的来源
type Source string

const (
	SourceNone          Source = "none"
	SourceDocument      Source = "document"
	SourceKnowledgeBase Source = "knowledge_base"
)

// RetrievalResult 检索门控输出：附到 prompt 的上下文片段与其来源
type RetrievalResult struct {
	Passages []string
	Source   Source
	// Field 非空表示命中结构化字段启发式，值为字段名
	Field string
}

// Gate 检索门控。判定顺序固定：
// 文档启发式 → 文档相似检索（含阈值）→ KB 兜底（无阈值）。
// 首个产出非空结果的阶段胜出，后续阶段不再执行。
type Gate struct {
	embedder embedding.Embedder
	kb       *kb.KnowledgeBase
	cfg      config.RetrievalConfig
	logger   *log.Logger
}

// NewGate 创建检索门控；knowledgeBase 可为 nil（无 KB 兜底时返回 SourceNone）
func NewGate(embedder embedding.Embedder, knowledgeBase *kb.KnowledgeBase, cfg config.RetrievalConfig, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Gate{embedder: embedder, kb: knowledgeBase, cfg: cfg, logger: logger}
}

// Retrieve 对一次用户查询产出 RetrievalResult；doc 为 nil 表示无活动文档。
// 检索落空不是错误：无任何来源可用时返回 SourceNone 和空片段。
func (g *Gate) Retrieve(ctx context.Context, doc *ingest.Document, queryText string) (RetrievalResult, error) {
	if doc != nil {
		// 阶段 1：结构化字段启发式，零网络调用
		passages, field := ExtractStructuredFields(queryText, doc.Chunks, g.cfg)
		if len(passages) > 0 {
			metrics.RetrievalTotal.WithLabelValues("document_heuristic").Inc()
			g.logger.Debug("启发式命中", "field", field, "passages", len(passages))
			return RetrievalResult{Passages: passages, Source: SourceDocument, Field: field}, nil
		}

		// 阶段 2：文档相似检索，含阈值过滤
		matches, has, err := SearchDocumentChunks(ctx, g.embedder, doc.Index, doc.Chunks, queryText, g.cfg.TopK, g.cfg.Threshold)
		if err != nil {
			// 文档检索故障不终止该轮，继续 KB 兜底
			g.logger.Warn("文档相似检索failed，回退到知识库", "error", err)
		} else if has {
			metrics.RetrievalTotal.WithLabelValues("document_similarity").Inc()
			return RetrievalResult{Passages: matches, Source: SourceDocument}, nil
		}
	}

	// 阶段 3：KB 兜底，top-k 不做阈值过滤
	if g.kb != nil {
		passages, err := g.kb.Search(ctx, queryText, g.cfg.TopK)
		if err != nil {
			return RetrievalResult{Source: SourceNone}, err
		}
		if len(passages) > 0 {
			metrics.RetrievalTotal.WithLabelValues("knowledge_base").Inc()
			return RetrievalResult{Passages: passages, Source: SourceKnowledgeBase}, nil
		}
	}

	metrics.RetrievalTotal.WithLabelValues("none").Inc()
	return RetrievalResult{Source: SourceNone}, nil
}
