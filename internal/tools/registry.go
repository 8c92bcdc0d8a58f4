// Package tools holds the capability registry the assistant dispatches
// through. Each tool wraps one store operation behind a text-in/text-out
// function: the input is decoded per tool (JSON object, bare id, or the
// sentinel "all") and every domain failure is rendered as observation
// text rather than returned as an error, so the reasoning loop always
// receives a string it can feed back to the model.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// Tool is a named capability the reasoning loop may invoke. Description
// documents the accepted input shape for the model; it is guidance only
// and is not enforced structurally.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Validate checks that the tool is well-formed.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Run == nil {
		return fmt.Errorf("%w: %s", ErrToolRunNil, t.Name)
	}
	return nil
}

// Registry holds the fixed set of tools. It is populated at startup and
// safe for concurrent lookup afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Returns an error for invalid or duplicate tools.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// MustRegister registers a tool and panics on error. Use for static
// registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// All returns the tools in registration order, for prompt construction.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Invoke runs the named tool against the raw input text. It returns
// ErrUnknownTool for unregistered names; any other failure surfaces in
// the returned observation text, never as an error.
func (r *Registry) Invoke(ctx context.Context, name, input string) (string, error) {
	tool := r.Get(name)
	if tool == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.Run(ctx, input)
}
