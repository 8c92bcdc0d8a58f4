package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/config"
	"github.com/kairosci/ai-crm/internal/tools"
)

func TestMain(m *testing.M) {
	// go.opencensus.io starts a worker goroutine from package init that
	// outlives every test; it belongs to a transitive dependency, not to
	// the code under test.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// scriptedBackend replays canned completions in order and records every
// prompt it saw.
type scriptedBackend struct {
	replies []string
	err     error
	prompts []string
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.prompts = append(b.prompts, prompt)
	if b.err != nil {
		return "", b.err
	}
	if len(b.replies) == 0 {
		return "", nil
	}
	reply := b.replies[0]
	b.replies = b.replies[1:]
	return reply, nil
}

func testConfig() config.AgentConfig {
	cfg := config.Default().Agent
	cfg.MaxIterations = 3
	return cfg
}

func newTestAgent(t *testing.T, backend Backend, calls *int) *Agent {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(&tools.Tool{
		Name:        "lookup",
		Description: "Looks things up.",
		Run: func(ctx context.Context, input string) (string, error) {
			if calls != nil {
				*calls++
			}
			return "found: " + input, nil
		},
	})
	return New(reg, backend, testConfig(), zap.NewNop())
}

func TestProcessMessageNoBackend(t *testing.T) {
	var calls int
	agent := newTestAgent(t, nil, &calls)

	res := agent.ProcessMessage(context.Background(), NewMemory(20), "hello")
	if res.Response != unavailableMessage {
		t.Errorf("got %q, want the fixed degraded message", res.Response)
	}
	if res.ActionTaken != nil {
		t.Errorf("degraded response should report no action, got %q", *res.ActionTaken)
	}
	if calls != 0 {
		t.Errorf("degraded mode invoked %d tools", calls)
	}
}

func TestProcessMessageFinalAnswer(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"Thought: nothing to do\nFinal Answer: All set.",
	}}
	agent := newTestAgent(t, backend, nil)
	mem := NewMemory(20)

	res := agent.ProcessMessage(context.Background(), mem, "hi")
	if res.Response != "All set." {
		t.Errorf("got %q, want %q", res.Response, "All set.")
	}
	if res.ActionTaken != nil {
		t.Errorf("no tool ran, got action %q", *res.ActionTaken)
	}
	if len(backend.prompts) != 1 {
		t.Errorf("backend called %d times, want 1", len(backend.prompts))
	}

	// Transcript records the exchange.
	snap := mem.Snapshot()
	if len(snap) != 2 || snap[0].Role != RoleUser || snap[1].Role != RoleAgent {
		t.Errorf("unexpected transcript: %+v", snap)
	}
}

func TestProcessMessageToolThenAnswer(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"Thought: I should look this up\nAction: lookup\nAction Input: acme",
		"Thought: I have it\nFinal Answer: Acme is a customer.",
	}}
	var calls int
	agent := newTestAgent(t, backend, &calls)
	mem := NewMemory(20)

	res := agent.ProcessMessage(context.Background(), mem, "who is acme?")
	if res.Response != "Acme is a customer." {
		t.Errorf("got %q", res.Response)
	}
	if calls != 1 {
		t.Errorf("tool ran %d times, want 1", calls)
	}
	if res.ActionTaken == nil || *res.ActionTaken != "lookup" {
		t.Errorf("got action %v, want lookup", res.ActionTaken)
	}

	// The second prompt carries the observation.
	if len(backend.prompts) != 2 {
		t.Fatalf("backend called %d times, want 2", len(backend.prompts))
	}
	if !strings.Contains(backend.prompts[1], "Observation: found: acme") {
		t.Error("second prompt missing the tool observation")
	}

	var sawTool bool
	for _, e := range mem.Snapshot() {
		if e.Role == RoleTool && e.Content == "found: acme" {
			sawTool = true
		}
	}
	if !sawTool {
		t.Error("tool observation not recorded in transcript")
	}
}

func TestProcessMessageUnknownToolRecovery(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"Action: summon_demon\nAction Input: now",
		"Final Answer: Never mind.",
	}}
	var calls int
	agent := newTestAgent(t, backend, &calls)

	res := agent.ProcessMessage(context.Background(), NewMemory(20), "do it")
	if res.Response != "Never mind." {
		t.Errorf("got %q", res.Response)
	}
	if calls != 0 {
		t.Errorf("registered tool ran %d times, want 0", calls)
	}
	if res.ActionTaken != nil {
		t.Errorf("unknown tool must not count as an action, got %q", *res.ActionTaken)
	}
	if !strings.Contains(backend.prompts[1], "summon_demon is not a valid tool, try one of [lookup].") {
		t.Errorf("second prompt missing corrective observation:\n%s", backend.prompts[1])
	}
}

func TestProcessMessageParseErrorRecovery(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"I cannot follow instructions.",
		"Final Answer: Recovered.",
	}}
	agent := newTestAgent(t, backend, nil)

	res := agent.ProcessMessage(context.Background(), NewMemory(20), "hi")
	if res.Response != "Recovered." {
		t.Errorf("got %q", res.Response)
	}
	if !strings.Contains(backend.prompts[1], "Invalid response format.") {
		t.Error("second prompt missing the format reminder")
	}
}

func TestProcessMessageBudgetExhausted(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"gibberish", "gibberish", "gibberish", "gibberish",
	}}
	agent := newTestAgent(t, backend, nil)

	res := agent.ProcessMessage(context.Background(), NewMemory(20), "hi")
	if len(backend.prompts) != 3 {
		t.Errorf("backend called %d times, want exactly the budget of 3", len(backend.prompts))
	}
	if !strings.Contains(res.Response, "3 reasoning steps") {
		t.Errorf("exhaustion message missing budget: %q", res.Response)
	}
	if !strings.Contains(res.Response, "No actions were completed.") {
		t.Errorf("exhaustion message missing hint: %q", res.Response)
	}
	if res.ActionTaken != nil {
		t.Errorf("no tool ran, got action %q", *res.ActionTaken)
	}
}

func TestProcessMessageBackendError(t *testing.T) {
	backend := &scriptedBackend{err: errors.New("connection refused")}
	agent := newTestAgent(t, backend, nil)

	res := agent.ProcessMessage(context.Background(), NewMemory(20), "hi")
	if res.Response != "Error processing message: connection refused" {
		t.Errorf("got %q", res.Response)
	}
}

func TestProcessMessageCancelledContext(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"Final Answer: too late"}}
	agent := newTestAgent(t, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := agent.ProcessMessage(ctx, NewMemory(20), "hi")
	if len(backend.prompts) != 0 {
		t.Errorf("backend called %d times after cancellation", len(backend.prompts))
	}
	if !strings.Contains(res.Response, "timed out") {
		t.Errorf("got %q", res.Response)
	}
}
