package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// collect 耗尽一个流并拼接全部 token
func collect(t *testing.T, s TokenStream) string {
	t.Helper()
	var b strings.Builder
	for {
		token, err := s.Next()
		if err == io.EOF {
			return b.String()
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		b.WriteString(token)
	}
}

func TestSingleTokenStream(t *testing.T) {
	s := NewSingleTokenStream("whole reply")
	if got := collect(t, s); got != "whole reply" {
		t.Errorf("collect = %q", got)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("exhausted stream should keep returning EOF, got %v", err)
	}
}

func TestGenerateStream_SSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"token\":{\"text\":\"Hel\"}}\n\n"))
		_, _ = w.Write([]byte("data: {\"token\":{\"text\":\"lo\"}}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("m", "k", srv.URL)
	chain := NewChain([]Provider{p}, nil)
	stream := chain.GenerateStream(context.Background(), "hi", GenerateOptions{})

	if got := collect(t, stream); got != "Hello" {
		t.Errorf("collect = %q, want Hello", got)
	}
	if w := stream.Winner(); w != Provider(p) {
		t.Errorf("winner = %v, want the streaming provider", w)
	}
}

func TestGenerateStream_EmptyDataLineIsNotEOF(t *testing.T) {
	// 空 data 行是心跳，不得截断回复
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"token\":{\"text\":\"Hel\"}}\n\n"))
		_, _ = w.Write([]byte("data:\n\n"))
		_, _ = w.Write([]byte("data: {\"token\":{\"text\":\"lo\"}}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("m", "k", srv.URL)
	chain := NewChain([]Provider{p}, nil)
	stream := chain.GenerateStream(context.Background(), "hi", GenerateOptions{})

	if got := collect(t, stream); got != "Hello" {
		t.Errorf("collect = %q, want Hello", got)
	}
}

func TestGenerateStream_SetupFailureFallsBackToChat(t *testing.T) {
	// 流式端点拒绝，但非流式 mock 可答：契约仍是 token 序列
	broken := &brokenStreamProvider{mockProvider: mockProvider{name: "s", result: Retryable("down")}}
	good := &mockProvider{name: "b", result: Success("full reply")}
	chain := NewChain([]Provider{broken, good}, nil)

	stream := chain.GenerateStream(context.Background(), "hi", GenerateOptions{})
	if got := collect(t, stream); got != "full reply" {
		t.Errorf("collect = %q, want full reply", got)
	}
	if good.calls != 1 {
		t.Errorf("fallback chat calls = %d, want 1", good.calls)
	}
	// 胜出后端是实际作答的那家，后续 rationale 调用据此路由
	if w := stream.Winner(); w == nil || w.Name() != "b" {
		t.Errorf("winner = %v, want provider b", w)
	}
}

func TestGenerateStream_MidIterationFailureFallsBack(t *testing.T) {
	failing := &failAfterStream{tokens: []string{"par"}, err: errors.New("connection reset")}
	p := &scriptedStreamProvider{
		mockProvider: mockProvider{name: "s", result: Success("complete answer")},
		stream:       failing,
	}
	chain := NewChain([]Provider{p}, nil)

	stream := chain.GenerateStream(context.Background(), "hi", GenerateOptions{})
	var tokens []string
	for {
		token, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		tokens = append(tokens, token)
	}
	// 中途失败后回退为一次完整回复
	if len(tokens) != 2 || tokens[0] != "par" || tokens[1] != "complete answer" {
		t.Errorf("tokens = %v", tokens)
	}
	if w := stream.Winner(); w == nil || w.Name() != "s" {
		t.Errorf("winner after mid-stream fallback = %v, want provider s", w)
	}
}

func TestGenerateStream_NoStreamingProviderUsesChat(t *testing.T) {
	p := &mockProvider{name: "plain", result: Success("plain reply")}
	chain := NewChain([]Provider{p}, nil)

	stream := chain.GenerateStream(context.Background(), "hi", GenerateOptions{})
	if got := collect(t, stream); got != "plain reply" {
		t.Errorf("collect = %q", got)
	}
}

// brokenStreamProvider 流式建立永远失败
type brokenStreamProvider struct {
	mockProvider
}

func (b *brokenStreamProvider) GenerateStream(ctx context.Context, prompt string, options GenerateOptions) (TokenStream, error) {
	return nil, errors.New("stream refused")
}

// scriptedStreamProvider 返回预置流
type scriptedStreamProvider struct {
	mockProvider
	stream TokenStream
}

func (s *scriptedStreamProvider) GenerateStream(ctx context.Context, prompt string, options GenerateOptions) (TokenStream, error) {
	return s.stream, nil
}

// failAfterStream 产出若干 token 后报错
type failAfterStream struct {
	tokens []string
	err    error
	pos    int
}

func (f *failAfterStream) Next() (string, error) {
	if f.pos < len(f.tokens) {
		f.pos++
		return f.tokens[f.pos-1], nil
	}
	return "", f.err
}
