package filter

import (
	"testing"
)

func TestIsBFSIQuery(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"What is my premium amount?", true},
		{"How do I file a CLAIM?", true},
		{"who is the nominee on my policy", true},
		{"What's the weather today?", false},
		{"tell me a joke", false},
	}
	for _, c := range cases {
		if got := IsBFSIQuery(c.query); got != c.want {
			t.Errorf("IsBFSIQuery(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

func TestSafetyCheck_UnsafeWord(t *testing.T) {
	r := SafetyCheck("how do I hack the portal", "I cannot help with that")
	if !r.Unsafe {
		t.Error("expected unsafe")
	}
	if r.Reason == "" {
		t.Error("expected a reason")
	}
}

func TestSafetyCheck_RelevanceScore(t *testing.T) {
	r := SafetyCheck("what is the premium for my insurance policy", "the premium is due monthly")
	if !r.BFSIRelevance {
		t.Errorf("expected relevance, score = %d", r.BFSIScore)
	}
	if r.Unsafe {
		t.Errorf("unexpectedly unsafe: %s", r.Reason)
	}

	r = SafetyCheck("hello there", "hi")
	if r.BFSIRelevance {
		t.Errorf("greeting should not be relevant, score = %d", r.BFSIScore)
	}
}
