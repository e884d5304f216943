package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClaudeProvider Claude 客户端
type ClaudeProvider struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

// NewClaudeProvider 创建新的 Claude 客户端
func NewClaudeProvider(model, apiKey, baseURL string) *ClaudeProvider {
	if model == "" {
		model = "claude-3-opus-20240229"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
		if envURL := os.Getenv("ANTHROPIC_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &ClaudeProvider{
		provider: "claude",
		model:    model,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
	}
}

// Name 返回提供商名称
func (c *ClaudeProvider) Name() string {
	return c.provider
}

// Model 返回模型名称
func (c *ClaudeProvider) Model() string {
	return c.model
}

// Generate 生成文本
func (c *ClaudeProvider) Generate(ctx context.Context, prompt string, options GenerateOptions) Result {
	request := map[string]interface{}{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": options.Temperature,
		"max_tokens":  options.MaxNewTokens,
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(request).
		Post(c.baseURL + "/messages")

	if err != nil {
		return Retryable(fmt.Sprintf("调用 Claude API 失败: %v", err))
	}

	return classifyAndNormalize(c.provider, response.StatusCode(), response.Body(), normalizeClaudeContent)
}

// normalizeClaudeContent 解析 content 序列，以最后一个元素为准
func normalizeClaudeContent(body []byte) (string, error) {
	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("Claude API 没有返回结果")
	}

	return strings.TrimSpace(result.Content[len(result.Content)-1].Text), nil
}
