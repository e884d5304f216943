package query

import (
	"context"
	"testing"

	"policypulse/internal/kb"
	"policypulse/internal/pipeline/ingest"
)

// countingEmbedder 按预置表返回向量并统计 Embed 调用次数
type countingEmbedder struct {
	vectors map[string][]float64
	dim     int
	calls   int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	e.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := e.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = make([]float64, e.dim)
		}
	}
	return out, nil
}

func (e *countingEmbedder) Model() string  { return "counting" }
func (e *countingEmbedder) Dimension() int { return e.dim }

func buildTestDocument(t *testing.T, emb *countingEmbedder, text string) *ingest.Document {
	t.Helper()
	doc, err := ingest.NewIndexer(emb).BuildDocument(context.Background(), "policy.pdf", text)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	return doc
}

func TestGate_HeuristicPath_NoEmbeddingCall(t *testing.T) {
	emb := &countingEmbedder{dim: 2}
	doc := buildTestDocument(t, emb, "Certificate of Insurance\nPolicy No. : 2293112006084450\nName of Proposer : A Kumar")
	emb.calls = 0 // 只统计检索阶段的调用

	gate := NewGate(emb, nil, testRetrievalConfig(), nil)
	result, err := gate.Retrieve(context.Background(), doc, "What is the policy number?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if result.Source != SourceDocument {
		t.Errorf("source = %q, want document", result.Source)
	}
	found := false
	for _, p := range result.Passages {
		if p == "Policy No. : 2293112006084450" {
			found = true
		}
	}
	if !found {
		t.Errorf("passages should include the policy number line, got %v", result.Passages)
	}
	if emb.calls != 0 {
		t.Errorf("heuristic path must not embed, calls = %d", emb.calls)
	}
}

func TestGate_SimilarityFallback(t *testing.T) {
	emb := &countingEmbedder{
		dim: 2,
		vectors: map[string][]float64{
			"the grace period lasts thirty days": {1, 0},
			"claims need supporting documents":   {0, 1},
			"how long is the grace period":       {1, 0.1},
		},
	}
	doc := buildTestDocument(t, emb, "the grace period lasts thirty days\nclaims need supporting documents")

	gate := NewGate(emb, nil, testRetrievalConfig(), nil)
	result, err := gate.Retrieve(context.Background(), doc, "how long is the grace period")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if result.Source != SourceDocument {
		t.Fatalf("source = %q, want document", result.Source)
	}
	if result.Field != "" {
		t.Errorf("similarity path should not set Field, got %q", result.Field)
	}
	if len(result.Passages) == 0 || result.Passages[0] != "the grace period lasts thirty days" {
		t.Errorf("passages = %v", result.Passages)
	}
}

func TestGate_KBFallbackBelowThreshold(t *testing.T) {
	// 文档 chunk 距 query 很远（d=99 → score≈0.01，低于阈值），兜底到 KB
	emb := &countingEmbedder{
		dim: 2,
		vectors: map[string][]float64{
			"totally unrelated line": {99, 0},
			"what is a free look period": {0, 0},
			"kb: free look period is 15 days": {0, 0.5},
		},
	}
	doc := buildTestDocument(t, emb, "totally unrelated line")

	knowledge, err := kb.NewWithSentences(context.Background(), emb, []string{"kb: free look period is 15 days"})
	if err != nil {
		t.Fatalf("kb: %v", err)
	}

	gate := NewGate(emb, knowledge, testRetrievalConfig(), nil)
	result, err := gate.Retrieve(context.Background(), doc, "what is a free look period")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if result.Source != SourceKnowledgeBase {
		t.Fatalf("source = %q, want knowledge_base", result.Source)
	}
	if len(result.Passages) != 1 || result.Passages[0] != "kb: free look period is 15 days" {
		t.Errorf("passages = %v", result.Passages)
	}
}

func TestGate_NoDocumentGoesToKB(t *testing.T) {
	emb := &countingEmbedder{dim: 2, vectors: map[string][]float64{
		"kb sentence": {0, 0},
	}}
	knowledge, err := kb.NewWithSentences(context.Background(), emb, []string{"kb sentence"})
	if err != nil {
		t.Fatalf("kb: %v", err)
	}

	gate := NewGate(emb, knowledge, testRetrievalConfig(), nil)
	result, err := gate.Retrieve(context.Background(), nil, "anything at all")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Source != SourceKnowledgeBase {
		t.Errorf("source = %q, want knowledge_base", result.Source)
	}
}

func TestGate_NothingAvailable(t *testing.T) {
	emb := &countingEmbedder{dim: 2}
	gate := NewGate(emb, nil, testRetrievalConfig(), nil)
	result, err := gate.Retrieve(context.Background(), nil, "anything")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Source != SourceNone || len(result.Passages) != 0 {
		t.Errorf("result = %+v, want none/empty", result)
	}
}
