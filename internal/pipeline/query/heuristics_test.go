package query

import (
	"testing"

	"policypulse/pkg/config"
)

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		TopK:         3,
		Threshold:    0.1,
		MaxPassages:  6,
		WindowBefore: 1,
		WindowAfter:  1,
	}
}

func TestExtractStructuredFields_PolicyNumber(t *testing.T) {
	chunks := []string{
		"CERTIFICATE OF INSURANCE",
		"Policy No. : 2293112006084450",
		"Name of Proposer : A Kumar",
		"Premium : 12,000",
	}

	passages, field := ExtractStructuredFields("What is the policy number?", chunks, testRetrievalConfig())
	if field != "policy_number" {
		t.Fatalf("field = %q", field)
	}
	found := false
	for _, p := range passages {
		if p == "Policy No. : 2293112006084450" {
			found = true
		}
	}
	if !found {
		t.Errorf("window should include the policy number line, got %v", passages)
	}
}

func TestExtractStructuredFields_FirstMatchWins(t *testing.T) {
	chunks := []string{
		"Policy No. : 2293112006084450",
		"Name of Insured : B Sharma",
	}

	// query 同时含 "policy number" 和 "insured"，优先级更高的 policy_number 胜出
	passages, field := ExtractStructuredFields("policy number of the insured person", chunks, testRetrievalConfig())
	if field != "policy_number" {
		t.Fatalf("field = %q, want policy_number", field)
	}
	if len(passages) == 0 {
		t.Fatal("expected passages")
	}
}

func TestExtractStructuredFields_NomineeTableWindow(t *testing.T) {
	chunks := []string{
		"Details of Nominee",
		"Name : C Devi",
		"Relationship : Spouse",
		"Share : 100%",
		"PREMIUM DETAILS",
		"Premium : 12,000",
	}

	passages, field := ExtractStructuredFields("Who is the nominee?", chunks, testRetrievalConfig())
	if field != "nominee" {
		t.Fatalf("field = %q", field)
	}
	for _, p := range passages {
		if p == "PREMIUM DETAILS" || p == "Premium : 12,000" {
			t.Errorf("table window crossed a section header: %v", passages)
		}
	}
	want := map[string]bool{"Name : C Devi": false, "Relationship : Spouse": false, "Share : 100%": false}
	for _, p := range passages {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for line, seen := range want {
		if !seen {
			t.Errorf("missing table row %q in %v", line, passages)
		}
	}
}

func TestExtractStructuredFields_NoTrigger(t *testing.T) {
	chunks := []string{"Policy No. : 2293112006084450"}
	passages, field := ExtractStructuredFields("Tell me about grace periods", chunks, testRetrievalConfig())
	if passages != nil || field != "" {
		t.Errorf("no trigger should give nothing, got %v / %q", passages, field)
	}
}

func TestExtractStructuredFields_CapAndDedupe(t *testing.T) {
	chunks := []string{
		"Premium : 100", "Premium : 200", "Premium : 300", "Premium : 400",
		"Premium : 500", "Premium : 600", "Premium : 700", "Premium : 800",
	}
	cfg := testRetrievalConfig()
	passages, _ := ExtractStructuredFields("what is my premium", chunks, cfg)
	if len(passages) > cfg.MaxPassages {
		t.Errorf("passages = %d, cap is %d", len(passages), cfg.MaxPassages)
	}
	seen := map[string]int{}
	for _, p := range passages {
		seen[p]++
		if seen[p] > 1 {
			t.Errorf("duplicate passage %q", p)
		}
	}
}

func TestIsSectionHeader(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"PREMIUM DETAILS", true},
		{"Nominee Details:", true},
		{"Name : C Devi", false},
		{"Premium : 12,000", false},
		{"", true},
	}
	for _, c := range cases {
		if got := isSectionHeader(c.line); got != c.want {
			t.Errorf("isSectionHeader(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}
