// Package tools provides the tool registry and execution framework.
//
// A tool takes one line of free text (the model's "Action Input") and
// returns one block of text (the "Observation"). Tools are registered
// once at startup; the registry is read-only afterwards and safe for
// concurrent use without locking.
package tools

import (
	"context"
	"sort"
	"strings"
)

// Handler executes a tool with the raw text input chosen by the model.
type Handler func(ctx context.Context, input string) (string, error)

// Tool represents a callable capability.
type Tool struct {
	Name          string
	Description   string
	RequiresInput bool
	Handler       Handler
}

// Registry holds available tools keyed by lower-cased name.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Names are trimmed and unique ignoring case.
func (r *Registry) Register(t *Tool) error {
	t.Name = strings.TrimSpace(t.Name)
	key := strings.ToLower(t.Name)
	if _, exists := r.tools[key]; exists {
		return &ErrDuplicateTool{ToolName: t.Name}
	}
	r.tools[key] = t
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate name
// is a programming error.
func (r *Registry) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Resolve looks up a tool by name, ignoring case and surrounding
// whitespace.
func (r *Registry) Resolve(name string) (*Tool, error) {
	t, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &ErrToolNotFound{ToolName: name, Available: r.Names()}
	}
	return t, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// DescribeAll renders one "name: description" line per tool, sorted by
// name, for inclusion in prompts.
func (r *Registry) DescribeAll() string {
	list := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	var sb strings.Builder
	for i, t := range list {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Name)
		sb.WriteString(": ")
		sb.WriteString(t.Description)
	}
	return sb.String()
}

// Execute resolves name and runs the tool. Handler failures are wrapped
// in [ToolExecutionError]; an unknown name yields [ErrToolNotFound].
func (r *Registry) Execute(ctx context.Context, name, input string) (string, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	out, err := t.Handler(ctx, input)
	if err != nil {
		return "", &ToolExecutionError{ToolName: t.Name, Err: err}
	}
	return out, nil
}
