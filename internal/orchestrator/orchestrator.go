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

// Package orchestrator 每轮对话的编排：
// 话题过滤 → 检索门控 → 记忆上下文 → prompt 组装 → LLM 调用 → 记忆更新 → 日志追加。
// 一轮内的外呼全部串行，一轮完整结束前同会话的下一轮不开始。
package orchestrator

import (
	"context"
	"io"
	"strings"
	"time"

	"policypulse/internal/filter"
	"policypulse/internal/model/llm"
	"policypulse/internal/pipeline/query"
	"policypulse/internal/prompt"
	"policypulse/internal/session"
	"policypulse/pkg/config"
	"policypulse/pkg/log"
	"policypulse/pkg/metrics"
)

// RefusalReply 话题不相关时的固定拒答，在任何检索或 LLM 调用之前返回
const RefusalReply = "I can only help with insurance, banking, and financial services questions. Please ask something related to your policy, claims, or billing."

// unsafeReply 回复含不安全内容时的替换文本
const unsafeReply = "I can't help with that request."

// TurnResult 一轮对话的产出
type TurnResult struct {
	SessionID   string       `json:"session_id"`
	Reply       string       `json:"reply"`
	Rationale   string       `json:"rationale,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Source      query.Source `json:"source"`
	Rejected    bool         `json:"rejected,omitempty"`
}

// Orchestrator 每轮对话的驱动器
type Orchestrator struct {
	gate      *query.Gate
	responder *query.Responder
	memCfg    config.MemoryConfig
	logger    *log.Logger
}

// New 创建编排器
func New(gate *query.Gate, responder *query.Responder, memCfg config.MemoryConfig, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	if memCfg.ContextSize <= 0 {
		memCfg.ContextSize = 2
	}
	return &Orchestrator{gate: gate, responder: responder, memCfg: memCfg, logger: logger}
}

// Chat 处理一轮用户消息。onToken 非 nil 且会话开启流式时，
// 每个 token 先经 onToken 推送，再拼接为完整回复。
func (o *Orchestrator) Chat(ctx context.Context, sess *session.Session, userMsg string, onToken func(string)) (*TurnResult, error) {
	sess.AcquireTurn()
	defer sess.ReleaseTurn()

	start := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	userMsg = strings.TrimSpace(userMsg)

	// 话题过滤：本地判定，不消耗任何后端额度
	if !filter.IsBFSIQuery(userMsg) {
		metrics.TurnRejectedTotal.Inc()
		sess.AppendTurn(session.RoleUser, userMsg, "")
		sess.AppendTurn(session.RoleAssistant, RefusalReply, "")
		return &TurnResult{
			SessionID: sess.ID,
			Reply:     RefusalReply,
			Source:    query.SourceNone,
			Rejected:  true,
		}, nil
	}

	retrieval, err := o.gate.Retrieve(ctx, sess.Document(), userMsg)
	if err != nil {
		return nil, err
	}

	memoryContext := ""
	if sess.Memory != nil {
		memoryContext = sess.Memory.MemoryContext(o.memCfg.ContextSize)
	}

	composed := prompt.Assemble(prompt.Input{
		Passages:      retrieval.Passages,
		MemoryContext: memoryContext,
		UserMessage:   userMsg,
	})

	var rawReply, rationale string
	if sess.Streaming() {
		var winner llm.Provider
		rawReply, winner, err = o.collectStream(ctx, composed, onToken)
		if err != nil {
			return nil, err
		}
		rationale = o.responder.Rationale(ctx, winner, rawReply, retrieval.Passages)
	} else {
		rawReply, rationale, err = o.responder.Chat(ctx, composed, retrieval.Passages)
		if err != nil {
			return nil, err
		}
	}

	parsed := prompt.ParseReply(rawReply)
	reply := parsed.Main

	if check := filter.SafetyCheck(userMsg, reply); check.Unsafe {
		o.logger.Warn("回复未通过安全检查", "reason", check.Reason)
		reply = unsafeReply
		parsed.Suggestions = nil
	}

	// 记忆更新是尽力而为的，失败在 Manager 内部消化
	if sess.Memory != nil {
		sess.Memory.AddTurn(ctx, userMsg, reply)
	}

	sess.AppendTurn(session.RoleUser, userMsg, "")
	sess.AppendTurn(session.RoleAssistant, reply, rationale)

	return &TurnResult{
		SessionID:   sess.ID,
		Reply:       reply,
		Rationale:   rationale,
		Suggestions: parsed.Suggestions,
		Source:      retrieval.Source,
	}, nil
}

// collectStream 消费 token 流并拼接完整回复；流的回退语义由 llm 层保证。
// 同时返回胜出后端，供 rationale 调用打给同一家。
func (o *Orchestrator) collectStream(ctx context.Context, composed string, onToken func(string)) (string, llm.Provider, error) {
	stream := o.responder.StreamChat(ctx, composed)
	var b strings.Builder
	for {
		token, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		if onToken != nil {
			onToken(token)
		}
		b.WriteString(token)
	}
	return b.String(), stream.Winner(), nil
}
