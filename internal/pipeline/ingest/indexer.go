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

package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"policypulse/internal/model/embedding"
	"policypulse/internal/storage/vector"
)

// Document 已索引文档：chunk 序列与其上的向量索引成对出现。
// 新文档上传时整体重建并替换，不做增量更新。
type Document struct {
	ID     string
	Name   string
	Chunks []string
	Index  *vector.FlatIndex
}

// Indexer 将文本批量向量化并构建平铺索引
type Indexer struct {
	embedder embedding.Embedder
}

// NewIndexer 创建 Indexer
func NewIndexer(embedder embedding.Embedder) *Indexer {
	return &Indexer{embedder: embedder}
}

// BuildIndex 对全部文本做向量化并建索引；O(n) 次 embedding，向量全部驻留内存
func (ix *Indexer) BuildIndex(ctx context.Context, texts []string) (*vector.FlatIndex, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("没有可索引的文本")
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("向量化文本failed: %w", err)
	}

	idx, err := vector.NewFlatIndex(ix.embedder.Dimension())
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors); err != nil {
		return nil, fmt.Errorf("写入索引failed: %w", err)
	}
	return idx, nil
}

// BuildDocument 从原始文本构建已索引文档：按非空行切 chunk，再整体建索引
func (ix *Indexer) BuildDocument(ctx context.Context, name, text string) (*Document, error) {
	chunks := SplitLines(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("文档没有可用文本内容")
	}

	idx, err := ix.BuildIndex(ctx, chunks)
	if err != nil {
		return nil, err
	}

	return &Document{
		ID:     "doc-" + uuid.New().String(),
		Name:   name,
		Chunks: chunks,
		Index:  idx,
	}, nil
}

// QueryIndex 向量化 query 并按位置返回 k 个最近原文，不做阈值过滤
func (ix *Indexer) QueryIndex(ctx context.Context, idx *vector.FlatIndex, texts []string, query string, k int) ([]string, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("向量化查询failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("查询向量数量异常: %d", len(vectors))
	}

	results, err := idx.Search(vectors[0], k)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Position >= 0 && r.Position < len(texts) {
			out = append(out, texts[r.Position])
		}
	}
	return out, nil
}
