package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/config"
	"github.com/kairosci/ai-crm/internal/tools"
)

// unavailableMessage is the fixed degraded response used whenever no
// reasoning backend is available. No tool is ever invoked in this mode.
const unavailableMessage = "AI agent is not initialized. Please ensure the model file is available."

// Result is the outcome of processing one user message. ActionTaken
// lists the tools actually invoked during the turn and is nil when none
// ran.
type Result struct {
	Response    string
	ActionTaken *string
}

// Agent owns the registry and the backend handle. It holds no mutable
// per-conversation state; transcripts are passed in per call.
type Agent struct {
	registry *tools.Registry
	cfg      config.AgentConfig
	log      *zap.Logger

	mu      sync.RWMutex
	backend Backend
}

// New creates an agent over the given registry. The backend may be nil;
// the agent then serves the fixed degraded response until SetBackend is
// called (see Watcher).
func New(registry *tools.Registry, backend Backend, cfg config.AgentConfig, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{registry: registry, backend: backend, cfg: cfg, log: log}
}

// SetBackend swaps in a reasoning backend, typically when the model
// artifact appears after startup.
func (a *Agent) SetBackend(b Backend) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backend = b
}

// Backend returns the current backend, nil when unavailable.
func (a *Agent) Backend() Backend {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.backend
}

// Available reports whether a reasoning backend is attached.
func (a *Agent) Available() bool {
	return a.Backend() != nil
}

// ProcessMessage runs the bounded reasoning loop for one user message
// against the given conversation transcript. The loop is strictly
// sequential: each step's prompt depends on all prior observations.
// Cancellation is honored between iterations only, so an in-flight tool
// call completes on its own terms.
func (a *Agent) ProcessMessage(ctx context.Context, mem *Memory, message string) Result {
	backend := a.Backend()
	if backend == nil {
		return Result{Response: unavailableMessage}
	}

	history := renderHistory(mem.Snapshot())
	mem.Append(RoleUser, message)

	var (
		scratchpad strings.Builder
		invoked    []string
	)

	finish := func(response string) Result {
		mem.Append(RoleAgent, response)
		return Result{Response: response, ActionTaken: joinInvoked(invoked)}
	}

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			a.log.Warn("reasoning loop aborted", zap.Int("iteration", iteration), zap.Error(err))
			return finish("The request timed out before I could finish reasoning about it.")
		}

		prompt := buildPrompt(a.registry, history, message, scratchpad.String())
		raw, err := backend.Complete(ctx, prompt)
		if err != nil {
			a.log.Error("backend completion failed", zap.String("backend", backend.Name()), zap.Error(err))
			return finish(fmt.Sprintf("Error processing message: %v", err))
		}

		action := ParseAction(raw)
		switch action.Kind {
		case KindFinalAnswer:
			a.log.Debug("final answer", zap.Int("iteration", iteration))
			return finish(action.Answer)

		case KindParseError:
			observation := fmt.Sprintf(
				"Invalid response format. Reply with either an Action line naming one of [%s] followed by an Action Input line, or a Final Answer line.",
				strings.Join(a.registry.Names(), ", "))
			a.log.Debug("unparseable completion", zap.Int("iteration", iteration))
			appendStep(&scratchpad, raw, observation)

		case KindToolCall:
			observation, err := a.registry.Invoke(ctx, action.Tool, action.Input)
			switch {
			case errors.Is(err, tools.ErrUnknownTool):
				observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].",
					action.Tool, strings.Join(a.registry.Names(), ", "))
				a.log.Debug("unknown tool requested", zap.String("tool", action.Tool))
			case err != nil:
				// Tools render domain failures as text; an error here is
				// unexpected (e.g. cancellation mid-call).
				observation = fmt.Sprintf("Error executing %s: %v", action.Tool, err)
				a.log.Error("tool invocation failed", zap.String("tool", action.Tool), zap.Error(err))
			default:
				invoked = append(invoked, action.Tool)
				mem.Append(RoleTool, observation)
				a.log.Debug("tool invoked", zap.String("tool", action.Tool), zap.Int("iteration", iteration))
			}
			appendStep(&scratchpad, raw, observation)
		}
	}

	a.log.Warn("iteration budget exhausted", zap.Int("budget", a.cfg.MaxIterations))
	return finish(fmt.Sprintf(
		"I wasn't able to finish within %d reasoning steps, so this result may be incomplete. %s",
		a.cfg.MaxIterations, lastObservationHint(invoked)))
}

// appendStep adds one completed thought cycle to the scratchpad so the
// next prompt carries the observation.
func appendStep(scratchpad *strings.Builder, raw, observation string) {
	scratchpad.WriteString(strings.TrimSpace(raw))
	scratchpad.WriteString("\nObservation: ")
	scratchpad.WriteString(strings.TrimSpace(observation))
	scratchpad.WriteString("\nThought: ")
}

func joinInvoked(invoked []string) *string {
	if len(invoked) == 0 {
		return nil
	}
	joined := strings.Join(invoked, ", ")
	return &joined
}

func lastObservationHint(invoked []string) string {
	if len(invoked) == 0 {
		return "No actions were completed."
	}
	return fmt.Sprintf("Actions completed so far: %s.", strings.Join(invoked, ", "))
}
