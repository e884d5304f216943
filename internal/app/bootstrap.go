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

// Package app 统一初始化：凭证解析、provider 回退链、embedding、知识库、
// 会话管理与编排器的装配，供 cmd/api 复用，避免在 cmd 内写业务
package app

import (
	"context"
	"fmt"

	"policypulse/internal/kb"
	"policypulse/internal/memory"
	"policypulse/internal/model/embedding"
	"policypulse/internal/model/llm"
	"policypulse/internal/orchestrator"
	"policypulse/internal/pipeline/ingest"
	"policypulse/internal/pipeline/query"
	"policypulse/internal/session"
	"policypulse/pkg/config"
	"policypulse/pkg/log"
	"policypulse/pkg/secrets"
)

// defaultCredentialKeys 各 provider 未配置 api_keys 时按序尝试的环境变量名
var defaultCredentialKeys = map[string][]string{
	"huggingface": {"HF_API_KEY", "HUGGINGFACE_API_KEY"},
	"openai":      {"OPENAI_API_KEY"},
	"claude":      {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
}

// Bootstrap 装配完成的应用组件
type Bootstrap struct {
	Config        *config.Config
	Logger        *log.Logger
	Secrets       secrets.Store
	Chain         *llm.Chain
	Embedder      embedding.Embedder
	KnowledgeBase *kb.KnowledgeBase
	Indexer       *ingest.Indexer
	Sessions      *session.Manager
	Orchestrator  *orchestrator.Orchestrator
}

// NewBootstrap 根据配置装配全部组件。
// 凭证缺失不是错误：对应 provider 被跳过，链可为空（chat 软失败），
// embedding 凭证缺失时知识库与文档检索降级为不可用。
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	logger, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	secretStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化凭证存储failed: %w", err)
	}

	chain := buildChain(ctx, cfg, secretStore, logger)

	embedder := buildEmbedder(ctx, cfg, secretStore, logger)

	var knowledge *kb.KnowledgeBase
	var indexer *ingest.Indexer
	if embedder != nil {
		indexer = ingest.NewIndexer(embedder)
		knowledge, err = kb.New(ctx, embedder)
		if err != nil {
			// 知识库构建失败只失去 KB 兜底，不阻止启动
			logger.Warn("知识库构建failed，KB 兜底不可用", "error", err)
		}
	} else {
		logger.Warn("embedding 凭证缺失，文档检索与知识库不可用")
	}

	gate := query.NewGate(embedder, knowledge, cfg.Retrieval, logger)
	responder := query.NewResponder(chain, primaryProviderConfig(cfg), logger)
	orch := orchestrator.New(gate, responder, cfg.Memory, logger)

	sessions := session.NewManager(session.NewMemoryStore(), func() *memory.Manager {
		return memory.NewManager(chain, cfg.Memory, logger)
	})

	return &Bootstrap{
		Config:        cfg,
		Logger:        logger,
		Secrets:       secretStore,
		Chain:         chain,
		Embedder:      embedder,
		KnowledgeBase: knowledge,
		Indexer:       indexer,
		Sessions:      sessions,
		Orchestrator:  orch,
	}, nil
}

// buildChain 按优先级解析各 provider 凭证并装配回退链；凭证缺失的 provider 被跳过
func buildChain(ctx context.Context, cfg *config.Config, store secrets.Store, logger *log.Logger) *llm.Chain {
	var providers []llm.Provider
	for _, name := range cfg.ProviderPriority() {
		pcfg := cfg.Model.LLM.Providers[name]

		keys := pcfg.APIKeys
		if len(keys) == 0 {
			keys = defaultCredentialKeys[name]
		}
		apiKey, ok := secrets.FirstNonEmpty(ctx, store, keys)
		if !ok {
			logger.Warn("provider 凭证缺失，跳过", "provider", name)
			continue
		}

		var p llm.Provider
		switch name {
		case "huggingface":
			p = llm.NewHuggingFaceProvider(pcfg.Model, apiKey, pcfg.BaseURL)
		case "openai":
			p = llm.NewOpenAIProvider(pcfg.Model, apiKey, pcfg.BaseURL)
		case "claude":
			p = llm.NewClaudeProvider(pcfg.Model, apiKey, pcfg.BaseURL)
		default:
			logger.Warn("未知 provider，跳过", "provider", name)
			continue
		}

		if rl, ok := cfg.RateLimits.LLM[name]; ok && rl.RequestsPerMinute > 0 {
			p = llm.NewRateLimitedProvider(p, rl.RequestsPerMinute, rl.Burst)
		}
		providers = append(providers, p)
	}
	return llm.NewChain(providers, logger)
}

// buildEmbedder 解析 embedding 凭证并创建适配器；凭证缺失返回 nil
func buildEmbedder(ctx context.Context, cfg *config.Config, store secrets.Store, logger *log.Logger) embedding.Embedder {
	ecfg := cfg.Model.Embedding

	keys := ecfg.APIKeys
	if len(keys) == 0 {
		keys = defaultCredentialKeys["huggingface"]
	}
	apiKey, ok := secrets.FirstNonEmpty(ctx, store, keys)
	if !ok {
		return nil
	}
	return embedding.NewHuggingFaceAdapter(ecfg.Model, apiKey, ecfg.BaseURL, ecfg.Dimension)
}

// primaryProviderConfig 取优先级最高的 provider 配置作为采样参数来源
func primaryProviderConfig(cfg *config.Config) config.ProviderConfig {
	for _, name := range cfg.ProviderPriority() {
		if pcfg, ok := cfg.Model.LLM.Providers[name]; ok {
			return pcfg
		}
	}
	return config.ProviderConfig{}
}
