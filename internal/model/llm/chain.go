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
	"fmt"

	pkgerrors "policypulse/pkg/errors"
	"policypulse/pkg/log"
	"policypulse/pkg/metrics"
)

// Chain 按固定优先级尝试多个 Provider 的回退链。
// 不变量：单轮最多一个后端胜出——首个 Success 即停止，首个 Fatal 即传播，绝不拼接两家回复。
type Chain struct {
	providers []Provider
	logger    *log.Logger
}

// NewChain 创建回退链；providers 顺序即优先级
func NewChain(providers []Provider, logger *log.Logger) *Chain {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chain{providers: providers, logger: logger}
}

// Len 返回已配置的 Provider 数
func (c *Chain) Len() int {
	return len(c.providers)
}

// Providers 返回链上的 Provider（只读）
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Generate 依序尝试每个 Provider：
// Success 胜出返回；Retryable 记录并尝试下一个；Fatal 立即传播，不再回退。
// 全部耗尽返回 ErrProviderExhausted；链为空返回 ErrNoCredentials。
func (c *Chain) Generate(ctx context.Context, prompt string, options GenerateOptions) (string, Provider, error) {
	if len(c.providers) == 0 {
		return "", nil, pkgerrors.ErrNoCredentials
	}

	for _, p := range c.providers {
		result := p.Generate(ctx, prompt, options)
		switch result.Kind {
		case KindSuccess:
			metrics.ProviderCallTotal.WithLabelValues(p.Name(), "success").Inc()
			return result.Text, p, nil
		case KindRetryable:
			metrics.ProviderCallTotal.WithLabelValues(p.Name(), "retryable").Inc()
			metrics.ProviderFallbackTotal.WithLabelValues(p.Name()).Inc()
			c.logger.Warn("provider 不可用，回退到下一个", "provider", p.Name(), "reason", result.Reason)
		case KindFatal:
			metrics.ProviderCallTotal.WithLabelValues(p.Name(), "fatal").Inc()
			return "", p, fmt.Errorf("provider %s: %w: %w", p.Name(), pkgerrors.ErrProviderBroken, result.Err)
		}
	}

	return "", nil, pkgerrors.ErrProviderExhausted
}
