package agent

import "sync"

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Entry is one ordered record in a conversation transcript.
type Entry struct {
	Role    Role
	Content string
}

// Memory is the append-only transcript for a single conversation. A
// sliding window bounds what Snapshot returns so prompt size and backend
// cost stay bounded; the backing slice is also trimmed so long-running
// conversations do not grow without limit.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	window  int
}

// NewMemory creates a transcript with the given snapshot window.
func NewMemory(window int) *Memory {
	if window <= 0 {
		window = 1
	}
	return &Memory{window: window}
}

// Append adds an entry to the transcript.
func (m *Memory) Append(role Role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Role: role, Content: content})
	// Retain 2x the window so the stored transcript stays bounded too.
	if max := m.window * 2; len(m.entries) > max {
		m.entries = append([]Entry(nil), m.entries[len(m.entries)-max:]...)
	}
}

// Snapshot returns the most recent entries up to the window, oldest
// first. The returned slice is a copy.
func (m *Memory) Snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if len(m.entries) > m.window {
		start = len(m.entries) - m.window
	}
	return append([]Entry(nil), m.entries[start:]...)
}

// Len returns the number of retained entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Conversations keys transcripts by conversation id so the agent itself
// holds no per-conversation state.
type Conversations struct {
	mu     sync.Mutex
	byID   map[string]*Memory
	window int
}

// NewConversations creates an empty conversation table.
func NewConversations(window int) *Conversations {
	return &Conversations{byID: make(map[string]*Memory), window: window}
}

// Get returns the transcript for id, creating it on first use. An empty
// id maps to the shared default conversation.
func (c *Conversations) Get(id string) *Memory {
	if id == "" {
		id = "default"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	mem, ok := c.byID[id]
	if !ok {
		mem = NewMemory(c.window)
		c.byID[id] = mem
	}
	return mem
}
