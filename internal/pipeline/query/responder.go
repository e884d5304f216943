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
	"strings"

	"policypulse/internal/model/llm"
	"policypulse/pkg/config"
	pkgerrors "policypulse/pkg/errors"
	"policypulse/pkg/log"
)

// NoContextRationale 无上下文片段时的固定 rationale，不发起第二次调用
const NoContextRationale = "No relevant facts or KB snippets were found for this answer."

// MissingCredentialsReply 未配置任何凭证时的软失败回复，代替抛错
const MissingCredentialsReply = "No LLM provider credentials are configured. Please set an API key for at least one provider to start chatting."

// providerUnavailableReply 全部后端回退耗尽时的友好回复
const providerUnavailableReply = "All language model providers are currently unavailable. Please try again in a moment."

// rationaleMaxPassages rationale 调用最多引用的上下文片段数
const rationaleMaxPassages = 2

// Responder 主回复 + rationale 的双调用封装。
// rationale 是对同一胜出后端的第二次独立调用，其失败只降级为无 rationale，
// 绝不影响已生成的主回复。
type Responder struct {
	chain         *llm.Chain
	opts          llm.GenerateOptions
	rationaleOpts llm.GenerateOptions
	logger        *log.Logger
}

// NewResponder 创建 Responder；cfg 提供主调用的采样参数
func NewResponder(chain *llm.Chain, cfg config.ProviderConfig, logger *log.Logger) *Responder {
	if logger == nil {
		logger = log.NewNop()
	}
	opts := llm.GenerateOptions{MaxNewTokens: cfg.MaxNewTokens, Temperature: cfg.Temperature}
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = 256
	}
	return &Responder{
		chain:         chain,
		opts:          opts,
		rationaleOpts: llm.GenerateOptions{MaxNewTokens: 64, Temperature: cfg.Temperature},
		logger:        logger,
	}
}

// Chat 发送 prompt 取得主回复，再对胜出后端发起 rationale 调用。
// kbPassages 为空时跳过第二次调用，rationale 固定为 NoContextRationale。
// 未配置凭证与后端耗尽都软失败为友好回复文本；只有 Fatal 错误向上传播。
func (r *Responder) Chat(ctx context.Context, prompt string, kbPassages []string) (string, string, error) {
	reply, provider, err := r.chain.Generate(ctx, prompt, r.opts)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNoCredentials) {
			return MissingCredentialsReply, "", nil
		}
		if pkgerrors.Is(err, pkgerrors.ErrProviderExhausted) {
			return providerUnavailableReply, "", nil
		}
		return "", "", err
	}

	if len(kbPassages) == 0 {
		return reply, NoContextRationale, nil
	}

	rationale := r.generateRationale(ctx, provider, reply, kbPassages)
	return reply, rationale, nil
}

// StreamChat 流式版主回复；rationale 由调用方在流耗尽后
// 携带 stream.Winner() 另行生成。链为空时以软失败回复合成单 token 流。
func (r *Responder) StreamChat(ctx context.Context, prompt string) *llm.ChainStream {
	if r.chain.Len() == 0 {
		return llm.NewResolvedStream(MissingCredentialsReply, nil)
	}
	return r.chain.GenerateStream(ctx, prompt, r.opts)
}

// Rationale 对指定回复补发 rationale 调用（流式路径在拼接完整回复后使用）。
// winner 必须是产出该回复的胜出后端；为 nil（软失败回复）时不发起调用。
// kbPassages 为空时直接返回固定语，同样不发起网络调用。
func (r *Responder) Rationale(ctx context.Context, winner llm.Provider, reply string, kbPassages []string) string {
	if len(kbPassages) == 0 {
		return NoContextRationale
	}
	if winner == nil {
		return ""
	}
	return r.generateRationale(ctx, winner, reply, kbPassages)
}

// generateRationale 向胜出后端发起第二次调用，失败时降级为空 rationale
func (r *Responder) generateRationale(ctx context.Context, provider llm.Provider, reply string, kbPassages []string) string {
	passages := kbPassages
	if len(passages) > rationaleMaxPassages {
		passages = passages[:rationaleMaxPassages]
	}

	prompt := fmt.Sprintf(`You are PolicyPulse. Given the context:
"""%s"""
and the answer:
"""%s"""
Summarize in one sentence why you gave that answer, referencing the facts or KB snippets you used.`,
		strings.Join(passages, "\n"), reply)

	result := provider.Generate(ctx, prompt, r.rationaleOpts)
	if result.Kind != llm.KindSuccess {
		r.logger.Warn("rationale 调用failed，降级为无 rationale",
			"provider", provider.Name(), "reason", result.Reason, "error", result.Err)
		return ""
	}
	return strings.TrimSpace(result.Text)
}
