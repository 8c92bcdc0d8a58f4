package tools

import "errors"

// Tool registry errors.
var (
	// ErrUnknownTool is returned when invoking a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolRunNil is returned when a tool has no run function.
	ErrToolRunNil = errors.New("tool run function cannot be nil")

	// ErrToolAlreadyRegistered is returned when registering a duplicate.
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)
