// Package agent implements the conversational assistant: a bounded
// ReAct loop that turns one natural-language message into zero or more
// tool invocations against the capability registry and a final answer.
// Every failure inside the loop becomes a textual observation the model
// can recover from; only the iteration budget and context cancellation
// terminate the loop early.
package agent

import (
	"context"
	"errors"
)

// ErrModelNotFound indicates the configured model artifact is absent.
// This is a recoverable condition: the assistant degrades to a fixed
// message until the artifact appears.
var ErrModelNotFound = errors.New("model artifact not found")

// Backend proposes the next thought/action or final answer for a prompt.
// It is treated as an unreliable external collaborator: output may be
// malformed and is always re-parsed by the loop.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}
