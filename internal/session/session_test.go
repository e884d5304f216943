package session

import (
	"context"
	"testing"

	"policypulse/internal/memory"
	pkgerrors "policypulse/pkg/errors"
)

func TestSession_AppendTurn(t *testing.T) {
	s := New("", nil)
	if s.ID == "" {
		t.Fatal("session ID should be assigned")
	}

	s.AppendTurn(RoleUser, "what is my premium?", "")
	s.AppendTurn(RoleAssistant, "12,000 per year", "based on the premium line")

	turns := s.Turns()
	if len(turns) != 2 {
		t.Fatalf("turns = %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("roles = %v %v", turns[0].Role, turns[1].Role)
	}
	if turns[1].Rationale == "" {
		t.Error("assistant turn should carry its rationale")
	}
}

func TestSession_StreamingToggle(t *testing.T) {
	s := New("s1", nil)
	if s.Streaming() {
		t.Error("streaming should default to off")
	}
	s.SetStreaming(true)
	if !s.Streaming() {
		t.Error("streaming should be on")
	}
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(NewMemoryStore(), func() *memory.Manager { return nil })

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("got %q, want %q", got.ID, s.ID)
	}

	if err := m.Delete(context.Background(), s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(context.Background(), s.ID); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("deleted session should be not found, err = %v", err)
	}
}
