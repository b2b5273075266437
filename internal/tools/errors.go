// Package tools provides the tool registry and execution framework.
//
// This file defines the error types returned by the registry.
package tools

import (
	"fmt"
	"strings"
)

// ErrDuplicateTool is returned by Register when a tool with the same
// name (ignoring case) is already present.
type ErrDuplicateTool struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.ToolName)
}

// ErrToolNotFound is returned when a lookup names a tool that is not in
// the registry. Available lists the registered names so callers can
// tell the model what it may choose from.
type ErrToolNotFound struct {
	ToolName  string
	Available []string
}

// Error implements the error interface.
func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool %q not found (available: %s)", e.ToolName, strings.Join(e.Available, ", "))
}

// ToolExecutionError wraps a failure raised by a tool's handler.
type ToolExecutionError struct {
	ToolName string
	Err      error
}

// Error implements the error interface.
func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.ToolName, e.Err)
}

// Unwrap returns the handler's error.
func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
