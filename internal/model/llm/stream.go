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
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// TokenStream 惰性 token 序列：Next 返回下一个 token，结束时返回 io.EOF。
// 流有限且不可重启；全部 token 拼接即完整回复。
type TokenStream interface {
	Next() (string, error)
}

// singleTokenStream 由一次非流式回复合成的单 token 流
type singleTokenStream struct {
	text string
	done bool
}

func (s *singleTokenStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

// NewSingleTokenStream 将完整回复包装为单 token 流
func NewSingleTokenStream(text string) TokenStream {
	return &singleTokenStream{text: text}
}

// ChainStream 回退链上的 token 流。除 token 序列外还记录最终产出
// 回复的后端：rationale 等后续调用必须打给同一胜出 Provider，
// 中途回退后 Winner 随之切换到实际作答的后端。
type ChainStream struct {
	inner    TokenStream
	chain    *Chain
	ctx      context.Context
	prompt   string
	options  GenerateOptions
	winner   Provider
	fellBack bool
}

func (s *ChainStream) Next() (string, error) {
	token, err := s.inner.Next()
	if err != nil && err != io.EOF && !s.fellBack {
		s.fellBack = true
		s.inner, s.winner = s.chain.fallbackOnce(s.ctx, s.prompt, s.options)
		return s.inner.Next()
	}
	return token, err
}

// Winner 返回产出本次回复的后端；流耗尽后才有意义，失败时为 nil
func (s *ChainStream) Winner() Provider {
	return s.winner
}

// NewResolvedStream 将已有文本包装为 ChainStream，winner 可为 nil（无后端作答）
func NewResolvedStream(text string, winner Provider) *ChainStream {
	return &ChainStream{inner: NewSingleTokenStream(text), winner: winner, fellBack: true}
}

// GenerateStream 流式生成：沿优先级链找首个支持流式的 Provider；
// 建立或迭代失败时回退为一次 Generate 并以单 token 产出，
// 保证调用方观察到的契约（token 序列，拼接 = 完整回复）不被破坏。
func (c *Chain) GenerateStream(ctx context.Context, prompt string, options GenerateOptions) *ChainStream {
	for _, p := range c.providers {
		sp, ok := p.(StreamingProvider)
		if !ok {
			continue
		}
		stream, err := sp.GenerateStream(ctx, prompt, options)
		if err != nil {
			c.logger.Warn("建立流式连接failed，回退非流式", "provider", p.Name(), "error", err)
			break
		}
		return &ChainStream{inner: stream, chain: c, ctx: ctx, prompt: prompt, options: options, winner: p}
	}
	inner, winner := c.fallbackOnce(ctx, prompt, options)
	return &ChainStream{inner: inner, winner: winner, fellBack: true}
}

// fallbackOnce 调用一次 Generate 合成单 token 流；错误延迟到首次 Next 返回
func (c *Chain) fallbackOnce(ctx context.Context, prompt string, options GenerateOptions) (TokenStream, Provider) {
	text, p, err := c.Generate(ctx, prompt, options)
	if err != nil {
		return &errorStream{err: err}, nil
	}
	return NewSingleTokenStream(text), p
}

type errorStream struct {
	err  error
	done bool
}

func (s *errorStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return "", s.err
}

// GenerateStream Hugging Face text-generation-inference SSE 流式接口
func (c *HuggingFaceProvider) GenerateStream(ctx context.Context, prompt string, options GenerateOptions) (TokenStream, error) {
	request := map[string]interface{}{
		"inputs": prompt,
		"parameters": map[string]interface{}{
			"max_new_tokens":   options.MaxNewTokens,
			"temperature":      options.Temperature,
			"return_full_text": false,
		},
		"stream": true,
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(request).
		Post(c.baseURL + "/models/" + c.model)

	if err != nil {
		return nil, err
	}
	if response.StatusCode() != http.StatusOK {
		body := response.RawBody()
		if body != nil {
			_ = body.Close()
		}
		return nil, &streamSetupError{status: response.StatusCode()}
	}

	return &sseTokenStream{body: response.RawBody(), scanner: bufio.NewScanner(response.RawBody())}, nil
}

type streamSetupError struct {
	status int
}

func (e *streamSetupError) Error() string {
	return "stream setup failed: status " + http.StatusText(e.status)
}

// sseTokenStream 解析 SSE data 行中的 token 文本
type sseTokenStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func (s *sseTokenStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			// 空 data 行是心跳/填充，只有 [DONE] 才结束流
			continue
		}
		if payload == "[DONE]" {
			s.close()
			return "", io.EOF
		}
		var event struct {
			Token struct {
				Text string `json:"text"`
			} `json:"token"`
		}
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			s.close()
			return "", err
		}
		return event.Token.Text, nil
	}
	if err := s.scanner.Err(); err != nil {
		s.close()
		return "", err
	}
	s.close()
	return "", io.EOF
}

func (s *sseTokenStream) close() {
	if !s.closed {
		s.closed = true
		_ = s.body.Close()
	}
}
