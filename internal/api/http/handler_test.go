package http

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policypulse/internal/api/http/middleware"
	"policypulse/internal/kb"
	"policypulse/internal/memory"
	"policypulse/internal/model/llm"
	"policypulse/internal/orchestrator"
	"policypulse/internal/pipeline/query"
	"policypulse/internal/session"
	"policypulse/pkg/config"
)

type fixedEmbedder struct{ dim int }

func (e *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, e.dim)
	}
	return out, nil
}

func (e *fixedEmbedder) Model() string  { return "fixed" }
func (e *fixedEmbedder) Dimension() int { return e.dim }

type fixedProvider struct{ reply string }

func (p *fixedProvider) Name() string  { return "fixed" }
func (p *fixedProvider) Model() string { return "stub" }

func (p *fixedProvider) Generate(ctx context.Context, prompt string, options llm.GenerateOptions) llm.Result {
	return llm.Success(p.reply)
}

func buildServerForTest(t *testing.T) *server.Hertz {
	t.Helper()
	embedder := &fixedEmbedder{dim: 2}
	chain := llm.NewChain([]llm.Provider{&fixedProvider{reply: "Your insurance premium is due on the first of every month."}}, nil)

	knowledge, err := kb.NewWithSentences(context.Background(), embedder, []string{
		"The grace period for premium payment is usually 30 days.",
	})
	require.NoError(t, err)

	retrievalCfg := config.RetrievalConfig{TopK: 3, Threshold: 0.1, MaxPassages: 6, WindowBefore: 1, WindowAfter: 1}
	memCfg := config.MemoryConfig{MaxEntries: 10, ContextSize: 2, MinWordCount: 5}

	gate := query.NewGate(embedder, knowledge, retrievalCfg, nil)
	responder := query.NewResponder(chain, config.ProviderConfig{MaxNewTokens: 256}, nil)
	orch := orchestrator.New(gate, responder, memCfg, nil)

	sessions := session.NewManager(session.NewMemoryStore(), func() *memory.Manager {
		return memory.NewManager(chain, memCfg, nil)
	})

	handler := NewHandler(sessions, orch, nil)
	router := NewRouter(handler, middleware.NewMiddleware())
	return router.Build(":0")
}

func performJSON(t *testing.T, h *server.Hertz, method, path string, body interface{}) *ut.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(payload), Len: len(payload)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func createSession(t *testing.T, h *server.Hertz) string {
	t.Helper()
	w := performJSON(t, h, "POST", "/api/sessions", nil)
	require.Equal(t, 201, w.Result().StatusCode())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	require.NotEmpty(t, resp["session_id"])
	return resp["session_id"]
}

func TestHealthCheck(t *testing.T) {
	h := buildServerForTest(t)
	w := performJSON(t, h, "GET", "/api/health", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
}

func TestChatFlow(t *testing.T) {
	h := buildServerForTest(t)
	id := createSession(t, h)

	w := performJSON(t, h, "POST", "/api/sessions/"+id+"/chat", map[string]string{
		"message": "what is the grace period for my premium?",
	})
	require.Equal(t, 200, w.Result().StatusCode())

	var result struct {
		Reply     string `json:"reply"`
		Rationale string `json:"rationale"`
		Source    string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &result))
	assert.Equal(t, "Your insurance premium is due on the first of every month.", result.Reply)
	assert.Equal(t, "knowledge_base", result.Source)
	assert.NotEmpty(t, result.Rationale)

	w = performJSON(t, h, "GET", "/api/sessions/"+id+"/conversation", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	var conv struct {
		Turns []session.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &conv))
	assert.Len(t, conv.Turns, 2)
}

func TestChat_MissingMessage(t *testing.T) {
	h := buildServerForTest(t)
	id := createSession(t, h)

	w := performJSON(t, h, "POST", "/api/sessions/"+id+"/chat", map[string]string{})
	assert.Equal(t, 400, w.Result().StatusCode())
}

func TestChat_UnknownSession(t *testing.T) {
	h := buildServerForTest(t)
	w := performJSON(t, h, "POST", "/api/sessions/nope/chat", map[string]string{"message": "premium"})
	assert.Equal(t, 404, w.Result().StatusCode())
}

func TestMemoryEndpoints(t *testing.T) {
	h := buildServerForTest(t)
	id := createSession(t, h)

	// 聊一轮产生记忆摘要（stub 回复超过最小词数门槛）
	w := performJSON(t, h, "POST", "/api/sessions/"+id+"/chat", map[string]string{
		"message": "when is my insurance premium due?",
	})
	require.Equal(t, 200, w.Result().StatusCode())

	w = performJSON(t, h, "GET", "/api/sessions/"+id+"/memory", nil)
	require.Equal(t, 200, w.Result().StatusCode())
	var mem struct {
		Count     int      `json:"count"`
		Summaries []string `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &mem))
	assert.Equal(t, 1, mem.Count)

	w = performJSON(t, h, "DELETE", "/api/sessions/"+id+"/memory", nil)
	require.Equal(t, 204, w.Result().StatusCode())

	w = performJSON(t, h, "GET", "/api/sessions/"+id+"/memory", nil)
	require.NoError(t, json.Unmarshal(w.Result().Body(), &mem))
	assert.Zero(t, mem.Count)
}

func TestUploadDocument_UnavailableWithoutIndexer(t *testing.T) {
	h := buildServerForTest(t)
	id := createSession(t, h)

	w := performJSON(t, h, "POST", "/api/sessions/"+id+"/documents", nil)
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestStreamingToggle(t *testing.T) {
	h := buildServerForTest(t)
	id := createSession(t, h)

	w := performJSON(t, h, "PUT", "/api/sessions/"+id+"/streaming", map[string]bool{"enabled": true})
	require.Equal(t, 200, w.Result().StatusCode())

	// 流式模式下非流式 Provider 回退为单 token，回复不变
	w = performJSON(t, h, "POST", "/api/sessions/"+id+"/chat", map[string]string{
		"message": "how do I pay my insurance premium?",
	})
	require.Equal(t, 200, w.Result().StatusCode())
	var result struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &result))
	assert.Equal(t, "Your insurance premium is due on the first of every month.", result.Reply)
}

func TestMetricsDisabledByDefault(t *testing.T) {
	h := buildServerForTest(t)
	w := performJSON(t, h, "GET", "/metrics", nil)
	assert.Equal(t, 404, w.Result().StatusCode())
}
