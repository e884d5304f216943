package ingest

import (
	"testing"
)

func TestSplitLines(t *testing.T) {
	text := "Policy No. : 2293112006084450\n\n  Name of Proposer : A Kumar  \n\t\nPremium : 12,000"
	chunks := SplitLines(text)
	want := []string{
		"Policy No. : 2293112006084450",
		"Name of Proposer : A Kumar",
		"Premium : 12,000",
	}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitLines_Empty(t *testing.T) {
	if got := SplitLines(""); got != nil {
		t.Errorf("empty text should give nil, got %v", got)
	}
	if got := SplitLines("\n \n\t\n"); got != nil {
		t.Errorf("blank lines should give nil, got %v", got)
	}
}
