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

package llm

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

// HuggingFaceProvider Hugging Face Inference API 客户端
type HuggingFaceProvider struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

// NewHuggingFaceProvider 创建 Hugging Face 客户端（base 优先用 HF_BASE_URL 环境变量）
func NewHuggingFaceProvider(model, apiKey, baseURL string) *HuggingFaceProvider {
	if model == "" {
		model = "HuggingFaceH4/zephyr-7b-beta"
	}
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
		if envURL := os.Getenv("HF_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &HuggingFaceProvider{
		provider: "huggingface",
		model:    model,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
	}
}

// Name 返回提供商名称
func (c *HuggingFaceProvider) Name() string {
	return c.provider
}

// Model 返回模型名称
func (c *HuggingFaceProvider) Model() string {
	return c.model
}

// Generate 生成文本
func (c *HuggingFaceProvider) Generate(ctx context.Context, prompt string, options GenerateOptions) Result {
	request := map[string]interface{}{
		"inputs": prompt,
		"parameters": map[string]interface{}{
			"max_new_tokens":   options.MaxNewTokens,
			"temperature":      options.Temperature,
			"return_full_text": false,
		},
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(request).
		Post(c.baseURL + "/models/" + c.model)

	if err != nil {
		return Retryable(fmt.Sprintf("调用 HuggingFace API failed: %v", err))
	}

	return classifyAndNormalize(c.provider, response.StatusCode(), response.Body(), normalizeGeneratedText)
}

// classifyAndNormalize 按状态码分级：401/403/404 与其余 4xx 可回退，5xx 致命
func classifyAndNormalize(provider string, status int, body []byte, normalize func([]byte) (string, error)) Result {
	switch {
	case status == http.StatusOK:
		text, err := normalize(body)
		if err != nil {
			return Fatal(fmt.Errorf("解析 %s 响应failed: %w", provider, err))
		}
		return Success(text)
	case status >= http.StatusInternalServerError:
		return Fatal(fmt.Errorf("%s API 服务端错误: status %d: %s", provider, status, string(body)))
	default:
		return Retryable(fmt.Sprintf("%s API 返回 status %d", provider, status))
	}
}

// normalizeGeneratedText 规范化 HF 风格响应：
// 对象取 generated_text；数组以最后一个元素为准；无法识别的形态退化为字面 JSON 文本。
func normalizeGeneratedText(body []byte) (string, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}

	switch v := payload.(type) {
	case []interface{}:
		if len(v) == 0 {
			return strings.TrimSpace(string(body)), nil
		}
		if obj, ok := v[len(v)-1].(map[string]interface{}); ok {
			if text, ok := obj["generated_text"].(string); ok {
				return strings.TrimSpace(text), nil
			}
		}
	case map[string]interface{}:
		if text, ok := v["generated_text"].(string); ok {
			return strings.TrimSpace(text), nil
		}
	}

	return strings.TrimSpace(string(body)), nil
}
