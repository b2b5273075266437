package tools

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes " + name,
		Handler: func(_ context.Context, input string) (string, error) {
			return name + ":" + input, nil
		},
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("get_weather")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := r.Register(echoTool("GET_WEATHER"))
	var dup *ErrDuplicateTool
	if !errors.As(err, &dup) {
		t.Fatalf("Register(duplicate) error = %v, want *ErrDuplicateTool", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_ResolveCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("create_task"))

	for _, name := range []string{"create_task", "Create_Task", "  CREATE_TASK "} {
		tool, err := r.Resolve(name)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", name, err)
			continue
		}
		if tool.Name != "create_task" {
			t.Errorf("Resolve(%q).Name = %q", name, tool.Name)
		}
	}
}

func TestRegistry_ResolveNotFound(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("list_tasks"))
	r.MustRegister(echoTool("create_task"))

	_, err := r.Resolve("send_mail")
	var nf *ErrToolNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("Resolve() error = %v, want *ErrToolNotFound", err)
	}
	if nf.ToolName != "send_mail" {
		t.Errorf("ToolName = %q, want %q", nf.ToolName, "send_mail")
	}
	want := []string{"create_task", "list_tasks"}
	if !reflect.DeepEqual(nf.Available, want) {
		t.Errorf("Available = %v, want %v", nf.Available, want)
	}
}

func TestRegistry_DescribeAllSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("zeta"))
	r.MustRegister(echoTool("alpha"))

	want := "alpha: echoes alpha\nzeta: echoes zeta"
	if got := r.DescribeAll(); got != want {
		t.Errorf("DescribeAll() = %q, want %q", got, want)
	}
}

func TestRegistry_PaddedNameIsTrimmed(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("  padded "))
	r.MustRegister(echoTool("alpha"))

	want := "alpha: echoes alpha\npadded: echoes   padded "
	if got := r.DescribeAll(); got != want {
		t.Errorf("DescribeAll() = %q, want %q", got, want)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"alpha", "padded"}) {
		t.Errorf("Names() = %v", got)
	}
	if _, err := r.Resolve("PADDED"); err != nil {
		t.Errorf("Resolve: %v", err)
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("echo"))
	r.MustRegister(&Tool{
		Name: "broken",
		Handler: func(context.Context, string) (string, error) {
			return "", errors.New("backend down")
		},
	})

	out, err := r.Execute(context.Background(), "ECHO", "hi")
	if err != nil {
		t.Fatalf("Execute(echo) error = %v", err)
	}
	if out != "echo:hi" {
		t.Errorf("Execute(echo) = %q", out)
	}

	_, err = r.Execute(context.Background(), "broken", "")
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute(broken) error = %v, want *ToolExecutionError", err)
	}
	if execErr.ToolName != "broken" {
		t.Errorf("ToolName = %q", execErr.ToolName)
	}
	if !strings.Contains(execErr.Unwrap().Error(), "backend down") {
		t.Errorf("Unwrap() = %v", execErr.Unwrap())
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("x"))
	defer func() {
		if recover() == nil {
			t.Error("MustRegister(duplicate) did not panic")
		}
	}()
	r.MustRegister(echoTool("X"))
}
