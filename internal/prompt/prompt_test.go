package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble(t *testing.T) {
	p := Assemble(Input{
		Passages:      []string{"Policy No. : 2293112006084450", "Premium : 12,000"},
		MemoryContext: "1. The proposer's name is A Kumar.",
		UserMessage:   "What is my premium?",
	})

	assert.Contains(t, p, "Policy No. : 2293112006084450")
	assert.Contains(t, p, "Known facts from earlier in this conversation:")
	assert.Contains(t, p, "1. The proposer's name is A Kumar.")
	assert.True(t, strings.HasSuffix(p, "User: What is my premium?\nAssistant:"), "prompt must end with the user turn")

	// 固定示例全部在场且位于用户消息之前
	exampleIdx := strings.Index(p, "How do I update my address on my policy?")
	userIdx := strings.LastIndex(p, "User: What is my premium?")
	assert.Greater(t, exampleIdx, 0)
	assert.Greater(t, userIdx, exampleIdx)
}

func TestAssemble_NoContext(t *testing.T) {
	p := Assemble(Input{UserMessage: "hello"})
	assert.Contains(t, p, "Context: \n")
	assert.NotContains(t, p, "Known facts")
}

func TestParseReply_TruncatesHallucinatedTurns(t *testing.T) {
	raw := "Your premium is 12,000 per year.\nUser: and the nominee?\nAssistant: the nominee is C Devi"
	parsed := ParseReply(raw)
	assert.Equal(t, "Your premium is 12,000 per year.", parsed.Main)
	assert.Empty(t, parsed.Suggestions)
}

func TestParseReply_SuggestionMarker(t *testing.T) {
	raw := "The grace period is 30 days.\nYou might also ask:\n- What happens after the grace period?\n- How do I revive a lapsed policy?\n- Can I change my premium mode?\n- A fourth suggestion that should be dropped?"
	parsed := ParseReply(raw)
	assert.Equal(t, "The grace period is 30 days.", parsed.Main)
	assert.Equal(t, []string{
		"What happens after the grace period?",
		"How do I revive a lapsed policy?",
		"Can I change my premium mode?",
	}, parsed.Suggestions)
}

func TestParseReply_QuestionLineFallback(t *testing.T) {
	raw := "You can pay online.\nWould you like to set up auto-pay?"
	parsed := ParseReply(raw)
	assert.Equal(t, []string{"Would you like to set up auto-pay?"}, parsed.Suggestions)
}
