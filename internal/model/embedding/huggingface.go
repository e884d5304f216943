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

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HuggingFaceAdapter Hugging Face feature-extraction 管线适配器
type HuggingFaceAdapter struct {
	model     string
	apiKey    string
	baseURL   string
	dimension int
	client    *resty.Client
}

// NewHuggingFaceAdapter 创建 HF Embedding 适配器；模型默认 all-MiniLM-L6-v2（384 维）
func NewHuggingFaceAdapter(model, apiKey, baseURL string, dimension int) *HuggingFaceAdapter {
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if dimension <= 0 {
		dimension = 384
	}
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
		if envURL := os.Getenv("HF_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &HuggingFaceAdapter{
		model:     model,
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		dimension: dimension,
		client:    client,
	}
}

// Model 返回模型名称
func (a *HuggingFaceAdapter) Model() string {
	return a.model
}

// Dimension 返回向量维度
func (a *HuggingFaceAdapter) Dimension() int {
	return a.dimension
}

// Embed 对文本做向量化，返回与 texts 一一对应的向量
func (a *HuggingFaceAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]interface{}{
		"inputs": texts,
		"options": map[string]interface{}{
			"wait_for_model": true,
		},
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+a.apiKey).
		SetBody(request).
		Post(a.baseURL + "/pipeline/feature-extraction/" + a.model)

	if err != nil {
		return nil, fmt.Errorf("调用 embedding API failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embedding API 返回错误: status %d: %s", response.StatusCode(), response.String())
	}

	var vectors [][]float64
	if err := json.Unmarshal(response.Body(), &vectors); err != nil {
		return nil, fmt.Errorf("解析 embedding 响应failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding 数量不匹配: got %d, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != a.dimension {
			return nil, fmt.Errorf("第 %d 条向量维度 %d 与配置维度 %d 不符", i, len(v), a.dimension)
		}
	}

	return vectors, nil
}
