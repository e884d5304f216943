package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider 为单个 Provider 施加请求速率上限的包装
type RateLimitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider 创建限流包装；requestsPerMinute <= 0 时不限流（原样返回）
func NewRateLimitedProvider(p Provider, requestsPerMinute float64, burst int) Provider {
	if requestsPerMinute <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedProvider{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst),
	}
}

// Generate 先等待令牌再调用底层 Provider；等待被取消视为该 provider 失败
func (r *RateLimitedProvider) Generate(ctx context.Context, prompt string, options GenerateOptions) Result {
	if err := r.limiter.Wait(ctx); err != nil {
		return Retryable(fmt.Sprintf("限流等待被取消: %v", err))
	}
	return r.Provider.Generate(ctx, prompt, options)
}
