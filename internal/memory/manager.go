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

package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"policypulse/internal/model/llm"
	"policypulse/pkg/config"
	"policypulse/pkg/log"
	"policypulse/pkg/metrics"
)

// noFactsSentinel 摘要模型表示"本轮无可记事实"的哨兵回复，不入库
const noFactsSentinel = "no new facts"

// summaryOptions 摘要调用的采样参数：短输出、低随机
var summaryOptions = llm.GenerateOptions{MaxNewTokens: 64, Temperature: 0.1}

// Manager 会话记忆管理器：每轮对话经 LLM 压缩为一条事实摘要，
// 有界 FIFO 存储，淘汰只看时序不看相关性。
// 摘要化失败只记日志，绝不向调用方传播——记忆是尽力而为的。
// HTTP 层的记忆查询/清空可能与进行中的对话轮并发，摘要列表由 mu 保护。
type Manager struct {
	chain        *llm.Chain
	maxEntries   int
	minWordCount int
	mu           sync.RWMutex
	summaries    []string
	logger       *log.Logger
}

// NewManager 创建记忆管理器
func NewManager(chain *llm.Chain, cfg config.MemoryConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10
	}
	minWords := cfg.MinWordCount
	if minWords <= 0 {
		minWords = 5
	}
	return &Manager{
		chain:        chain,
		maxEntries:   maxEntries,
		minWordCount: minWords,
		logger:       logger,
	}
}

// AddTurn 将一轮对话摘要化后入库。
// 摘要须超过最小词数且不是"无事实"哨兵才存储；容量超限时淘汰最旧一条。
func (m *Manager) AddTurn(ctx context.Context, userMsg, assistantReply string) {
	prompt := fmt.Sprintf(`Extract the most important factual information from this exchange in one sentence. Focus on concrete facts, definitions, or key information that would be useful to remember for future conversations. If there is nothing worth remembering, answer exactly "No new facts."

User: "%s"
Assistant: "%s"

Important fact:`, userMsg, assistantReply)

	summary, _, err := m.chain.Generate(ctx, prompt, summaryOptions)
	if err != nil {
		m.logger.Warn("记忆摘要化failed，跳过本轮", "error", err)
		return
	}

	summary = strings.TrimSpace(summary)
	if !m.qualifies(summary) {
		m.logger.Debug("摘要不入库", "summary", summary)
		return
	}

	m.mu.Lock()
	m.summaries = append(m.summaries, summary)
	evicted := len(m.summaries) > m.maxEntries
	if evicted {
		m.summaries = m.summaries[1:]
	}
	m.mu.Unlock()

	metrics.MemoryStoredTotal.Inc()
	if evicted {
		metrics.MemoryEvictionTotal.Inc()
	}
}

// qualifies 入库门槛：超过最小词数且不是哨兵回复
func (m *Manager) qualifies(summary string) bool {
	if summary == "" {
		return false
	}
	normalized := strings.ToLower(strings.TrimRight(summary, "."))
	if normalized == noFactsSentinel {
		return false
	}
	return len(strings.Fields(summary)) > m.minWordCount
}

// MemoryContext 将最近 n 条摘要渲染为带编号的换行列表；无摘要返回空串。
// 纯读取，不发起任何 LLM 调用。
func (m *Manager) MemoryContext(n int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || len(m.summaries) == 0 {
		return ""
	}
	start := len(m.summaries) - n
	if start < 0 {
		start = 0
	}
	recent := m.summaries[start:]

	var b strings.Builder
	for i, s := range recent {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s)
	}
	return b.String()
}

// Clear 清空全部摘要
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = nil
}

// Count 返回当前摘要条数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.summaries)
}

// Summaries 返回全部摘要的只读副本，保持时序
func (m *Manager) Summaries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.summaries))
	copy(out, m.summaries)
	return out
}
