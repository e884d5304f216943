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
	"fmt"

	"policypulse/internal/model/embedding"
	"policypulse/internal/storage/vector"
)

// SearchDocumentChunks 在文档索引上做相似检索并按阈值过滤。
// 阈值含边界：score == threshold 的结果保留。无命中不是错误，返回 hasMatches=false。
func SearchDocumentChunks(ctx context.Context, embedder embedding.Embedder, idx *vector.FlatIndex, chunks []string, queryText string, k int, threshold float64) ([]string, bool, error) {
	vectors, err := embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, false, fmt.Errorf("向量化查询failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, false, fmt.Errorf("查询向量数量异常: %d", len(vectors))
	}

	results, err := idx.Search(vectors[0], k)
	if err != nil {
		return nil, false, err
	}

	var matches []string
	for _, r := range results {
		if r.Score < threshold {
			continue
		}
		if r.Position >= 0 && r.Position < len(chunks) {
			matches = append(matches, chunks[r.Position])
		}
	}
	return matches, len(matches) > 0, nil
}
