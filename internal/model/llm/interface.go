package llm

import (
	"context"
)

// GenerateOptions 生成选项
type GenerateOptions struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

// ResultKind Provider 调用结果分级
type ResultKind int

const (
	// KindSuccess 调用成功，Text 为规范化后的回复
	KindSuccess ResultKind = iota
	// KindRetryable 该 provider 不可用（401/403/404、传输错误），回退到下一个
	KindRetryable
	// KindFatal 服务端错误或无法解析的响应，终止整条回退链
	KindFatal
)

// Result Provider 调用结果（tagged variant：Success | Retryable | Fatal）
type Result struct {
	Kind   ResultKind
	Text   string
	Reason string
	Err    error
}

// Success 构造成功结果
func Success(text string) Result {
	return Result{Kind: KindSuccess, Text: text}
}

// Retryable 构造可回退结果
func Retryable(reason string) Result {
	return Result{Kind: KindRetryable, Reason: reason}
}

// Fatal 构造致命结果
func Fatal(err error) Result {
	return Result{Kind: KindFatal, Err: err}
}

// Provider 单个 LLM 后端适配器；Generate 将各家响应形态规范化为 Result
type Provider interface {
	// Name 返回 provider 名称
	Name() string
	// Model 返回模型名称
	Model() string
	// Generate 生成文本
	Generate(ctx context.Context, prompt string, options GenerateOptions) Result
}

// StreamingProvider 支持流式输出的 Provider
type StreamingProvider interface {
	Provider
	// GenerateStream 发起流式生成，返回 TokenStream
	GenerateStream(ctx context.Context, prompt string, options GenerateOptions) (TokenStream, error)
}
