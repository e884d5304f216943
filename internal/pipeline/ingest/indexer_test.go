package ingest

import (
	"context"
	"testing"
)

// scriptedEmbedder 按预置表返回向量，统计调用次数
type scriptedEmbedder struct {
	vectors map[string][]float64
	dim     int
	calls   int
}

func (s *scriptedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	s.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = make([]float64, s.dim)
		}
	}
	return out, nil
}

func (s *scriptedEmbedder) Model() string  { return "scripted" }
func (s *scriptedEmbedder) Dimension() int { return s.dim }

func TestIndexer_BuildDocument_QueryIndex(t *testing.T) {
	emb := &scriptedEmbedder{
		dim: 2,
		vectors: map[string][]float64{
			"premium is due monthly": {1, 0},
			"claims need documents":  {0, 1},
			"premium":                {1, 0.1},
		},
	}
	ix := NewIndexer(emb)

	doc, err := ix.BuildDocument(context.Background(), "policy.pdf", "premium is due monthly\nclaims need documents")
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if len(doc.Chunks) != 2 || doc.Index.Len() != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.ID == "" || doc.Name != "policy.pdf" {
		t.Errorf("doc identity: %q %q", doc.ID, doc.Name)
	}

	matches, err := ix.QueryIndex(context.Background(), doc.Index, doc.Chunks, "premium", 1)
	if err != nil {
		t.Fatalf("QueryIndex: %v", err)
	}
	if len(matches) != 1 || matches[0] != "premium is due monthly" {
		t.Errorf("matches = %v", matches)
	}
}

func TestIndexer_BuildDocument_EmptyText(t *testing.T) {
	ix := NewIndexer(&scriptedEmbedder{dim: 2})
	if _, err := ix.BuildDocument(context.Background(), "x", "\n\n"); err == nil {
		t.Error("empty document should error")
	}
}
