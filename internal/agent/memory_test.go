package agent

import (
	"fmt"
	"testing"
)

func TestMemoryWindow(t *testing.T) {
	mem := NewMemory(3)
	for i := 0; i < 10; i++ {
		mem.Append(RoleUser, fmt.Sprintf("message %d", i))
	}

	snap := mem.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("got %d entries, want 3", len(snap))
	}
	for i, want := range []string{"message 7", "message 8", "message 9"} {
		if snap[i].Content != want {
			t.Errorf("snap[%d] = %q, want %q", i, snap[i].Content, want)
		}
	}
}

func TestMemorySnapshotIsCopy(t *testing.T) {
	mem := NewMemory(5)
	mem.Append(RoleUser, "hello")

	snap := mem.Snapshot()
	snap[0].Content = "mutated"

	if got := mem.Snapshot()[0].Content; got != "hello" {
		t.Errorf("snapshot mutation leaked into transcript: %q", got)
	}
}

func TestMemoryBackingSliceBounded(t *testing.T) {
	mem := NewMemory(4)
	for i := 0; i < 100; i++ {
		mem.Append(RoleAgent, "x")
	}
	if got := mem.Len(); got > 8 {
		t.Errorf("retained %d entries, want at most 8", got)
	}
}

func TestConversationsKeying(t *testing.T) {
	convs := NewConversations(10)

	a := convs.Get("alice")
	b := convs.Get("bob")
	if a == b {
		t.Fatal("distinct ids share a transcript")
	}
	if convs.Get("alice") != a {
		t.Error("same id returned a different transcript")
	}

	a.Append(RoleUser, "hi")
	if b.Len() != 0 {
		t.Error("entry leaked across conversations")
	}
}

func TestConversationsEmptyIDIsDefault(t *testing.T) {
	convs := NewConversations(10)
	if convs.Get("") != convs.Get("default") {
		t.Error("empty id should map to the default conversation")
	}
}
