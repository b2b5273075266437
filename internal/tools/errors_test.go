package tools

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrToolNotFound_Error(t *testing.T) {
	err := &ErrToolNotFound{ToolName: "fly", Available: []string{"get_weather", "search"}}
	want := `tool "fly" not found (available: get_weather, search)`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrDuplicateTool_Error(t *testing.T) {
	err := &ErrDuplicateTool{ToolName: "search"}
	want := `tool "search" is already registered`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestToolExecutionError_WrappedErrorsAs(t *testing.T) {
	root := errors.New("timeout")
	wrapped := fmt.Errorf("loop: %w", &ToolExecutionError{ToolName: "get_weather", Err: root})

	var target *ToolExecutionError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed to match wrapped *ToolExecutionError")
	}
	if target.ToolName != "get_weather" {
		t.Errorf("ToolName = %q, want %q", target.ToolName, "get_weather")
	}
	if !errors.Is(wrapped, root) {
		t.Error("errors.Is should reach the handler error")
	}
}
