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

package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"

	pkgerrors "policypulse/pkg/errors"
)

// FlatIndex 平铺 L2 索引：全部向量驻留内存，整体重建、不支持增量删除。
// 位置即 ID：Search 返回的 Position 对应 Add 时的插入顺序。
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
}

// SearchResult 单条检索结果
type SearchResult struct {
	Position int     // 向量加入时的顺序位置
	Distance float64 // L2 距离
	Score    float64 // 相似度得分 1/(1+distance)
}

// NewFlatIndex 创建平铺索引，dimension 为向量维度
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrInvalidArg, "dimension %d", dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Dimension 返回索引维度
func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Len 返回已加入的向量数
func (idx *FlatIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add 追加一批向量，维度不匹配时整批拒绝
func (idx *FlatIndex) Add(vectors [][]float64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: vector dimension %d does not match index dimension %d",
				pkgerrors.ErrInvalidArg, len(v), idx.dimension)
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Search 返回与 query 最近的 k 个向量，按 L2 距离升序
func (idx *FlatIndex) Search(query []float64, k int) ([]SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			pkgerrors.ErrInvalidArg, len(query), idx.dimension)
	}
	if k <= 0 {
		k = 10
	}

	results := make([]SearchResult, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		d := euclideanDistance(query, v)
		results = append(results, SearchResult{
			Position: i,
			Distance: d,
			Score:    1.0 / (1.0 + d),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// euclideanDistance 计算欧几里得距离
func euclideanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
