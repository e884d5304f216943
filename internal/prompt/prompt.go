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

// Package prompt few-shot prompt 组装与模型回复解析
package prompt

import (
	"fmt"
	"strings"
)

// fewShotExamples 固定的保险领域问答示例，按序拼入每个 prompt
var fewShotExamples = []struct {
	question string
	answer   string
}{
	{
		"How do I update my address on my policy?",
		"To update your address, log in to your account, go to 'Profile', and select 'Edit Address'.",
	},
	{
		"What documents are needed to file a claim?",
		"You typically need your policy number, a government-issued ID, and any supporting documents related to your claim.",
	},
	{
		"Can I pay my premium online?",
		"Yes, you can pay your premium online through our website or mobile app using various payment methods.",
	},
	{
		"How do I check my claim status?",
		"Log in to your account, go to 'Claims', and select the claim you want to track.",
	},
	{
		"What is the grace period for premium payment?",
		"The grace period is usually 30 days from the due date, but please check your policy for specific details.",
	},
}

// Input prompt 组装输入
type Input struct {
	// Passages 检索门控产出的上下文片段
	Passages []string
	// MemoryContext 最近记忆摘要的带编号列表，可为空
	MemoryContext string
	// UserMessage 本轮用户消息
	UserMessage string
}

// Assemble 组装 few-shot prompt：系统消息（含检索上下文与记忆）+
// 固定示例 + 本轮用户消息
func Assemble(in Input) string {
	var context strings.Builder
	if len(in.Passages) > 0 {
		context.WriteString(strings.Join(in.Passages, "\n"))
	}
	if in.MemoryContext != "" {
		if context.Len() > 0 {
			context.WriteByte('\n')
		}
		context.WriteString("Known facts from earlier in this conversation:\n")
		context.WriteString(in.MemoryContext)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant for insurance and policy questions. Use the following context to answer accurately and concisely.\nContext: %s\n\n", context.String())
	for _, ex := range fewShotExamples {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.question, ex.answer)
	}
	fmt.Fprintf(&b, "User: %s\nAssistant:", in.UserMessage)
	return b.String()
}

// maxSuggestions 最多提取的追问建议条数
const maxSuggestions = 3

// suggestionMarker 回复中建议区的标记
const suggestionMarker = "You might also ask:"

// ParsedReply 解析后的模型回复
type ParsedReply struct {
	// Main 主回答文本
	Main string
	// Suggestions 追问建议，最多 3 条
	Suggestions []string
}

// ParseReply 清洗模型回复：截断 few-shot 续写的幻觉轮次，
// 再切出主回答与追问建议
func ParseReply(raw string) ParsedReply {
	reply := raw
	// 模型有时会续写下一轮对话，截断到第一个角色标记为止
	for _, tag := range []string{"User:", "Assistant:"} {
		if i := strings.Index(reply, tag); i >= 0 {
			reply = reply[:i]
		}
	}
	reply = strings.TrimSpace(reply)

	if i := strings.Index(reply, suggestionMarker); i >= 0 {
		main := strings.TrimSpace(reply[:i])
		after := reply[i+len(suggestionMarker):]
		return ParsedReply{Main: main, Suggestions: parseSuggestionLines(after)}
	}

	// 无标记时扫描形如问题或列表项的行
	var suggestions []string
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(suggestions) >= maxSuggestions {
			break
		}
		if strings.HasPrefix(trimmed, "-") || (strings.HasSuffix(trimmed, "?") && len(trimmed) > 8) {
			suggestions = append(suggestions, cleanSuggestion(trimmed))
		}
	}
	return ParsedReply{Main: reply, Suggestions: suggestions}
}

func parseSuggestionLines(block string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, cleanSuggestion(trimmed))
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out
}

func cleanSuggestion(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "- "))
}
