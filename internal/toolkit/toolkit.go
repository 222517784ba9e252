// Package toolkit defines the tools goose offers the model, the toolkits that
// group them, and the registry that builds toolkits named in a profile.
package toolkit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gooseworks/goose/internal/config"
	"github.com/gooseworks/goose/internal/message"
)

// Toolkit is a named group of tools with an optional system prompt.
type Toolkit interface {
	Name() string
	System() string
	Tools() []Tool
	Process(ctx context.Context, use message.ToolUse) Result
}

// Closer is implemented by toolkits holding resources such as background
// processes.
type Closer interface {
	Close() error
}

// Requirements gives a toolkit access to the toolkits it declared in its
// profile entry, keyed by requirement name.
type Requirements struct {
	toolkit      string
	requirements map[string]Toolkit
}

// NewRequirements creates an empty requirement set for toolkit.
func NewRequirements(toolkit string) Requirements {
	return Requirements{toolkit: toolkit, requirements: map[string]Toolkit{}}
}

// Get returns the toolkit bound to key.
func (r Requirements) Get(key string) (Toolkit, bool) {
	tk, ok := r.requirements[key]
	return tk, ok
}

// MustGet returns the toolkit bound to key or a ToolkitError.
func (r Requirements) MustGet(key string) (Toolkit, error) {
	if tk, ok := r.requirements[key]; ok {
		return tk, nil
	}
	return nil, &ToolkitError{
		Message: fmt.Sprintf("toolkit %s requires %s", r.toolkit, key),
		Details: "add it to the toolkit's requires in the profile",
	}
}

// Constructor builds a toolkit from its resolved requirements.
type Constructor func(Requirements) (Toolkit, error)

// Registration is a named constructor with a one-line description.
type Registration struct {
	Name        string
	Description string
	New         Constructor
}

// Registry maps toolkit names to constructors.
type Registry struct {
	entries map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Registration{}}
}

// DefaultRegistry contains the built-in toolkits.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Registration{
		Name:        DeveloperName,
		Description: "Shell, file editing, web fetching and background process tools",
		New:         func(Requirements) (Toolkit, error) { return NewDeveloper(), nil },
	})
	r.Register(Registration{
		Name:        SynopsisName,
		Description: "Describes the host system and working directory to the model",
		New:         func(Requirements) (Toolkit, error) { return NewSynopsis(), nil },
	})
	return r
}

// Register adds or replaces a toolkit constructor.
func (r *Registry) Register(reg Registration) {
	r.entries[reg.Name] = reg
}

// Names lists registered toolkits alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns registrations sorted by name.
func (r *Registry) List() []Registration {
	out := make([]Registration, 0, len(r.entries))
	for _, name := range r.Names() {
		out = append(out, r.entries[name])
	}
	return out
}

// Build constructs the toolkits in specs. A toolkit is built after every
// toolkit it requires; cycles and unknown names are errors.
func (r *Registry) Build(specs []config.ToolkitSpec) (*Set, error) {
	byName := make(map[string]config.ToolkitSpec, len(specs))
	for _, spec := range specs {
		if _, ok := r.entries[spec.Name]; !ok {
			return nil, &ToolkitError{
				Message: fmt.Sprintf("unknown toolkit %q", spec.Name),
				Details: "available: " + strings.Join(r.Names(), ", "),
				Unknown: spec.Name,
			}
		}
		byName[spec.Name] = spec
	}

	built := map[string]Toolkit{}
	visiting := map[string]bool{}
	set := &Set{}

	var build func(name string) (Toolkit, error)
	build = func(name string) (Toolkit, error) {
		if tk, ok := built[name]; ok {
			return tk, nil
		}
		spec, ok := byName[name]
		if !ok {
			return nil, &ToolkitError{Message: fmt.Sprintf("toolkit %s is required but not present", name)}
		}
		if visiting[name] {
			return nil, &ToolkitError{Message: "toolkit requirements form a cycle", Details: name}
		}
		visiting[name] = true
		defer delete(visiting, name)

		reqs := NewRequirements(name)
		keys := make([]string, 0, len(spec.Requires))
		for key := range spec.Requires {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			dep, err := build(spec.Requires[key])
			if err != nil {
				return nil, err
			}
			reqs.requirements[key] = dep
		}

		tk, err := r.entries[name].New(reqs)
		if err != nil {
			return nil, &ToolkitError{Message: fmt.Sprintf("building toolkit %s", name), Details: err.Error()}
		}
		built[name] = tk
		set.toolkits = append(set.toolkits, tk)
		return tk, nil
	}

	for _, spec := range specs {
		if _, err := build(spec.Name); err != nil {
			set.Close()
			return nil, err
		}
	}
	return set, nil
}

// Set is the toolkits active in a session.
type Set struct {
	toolkits []Toolkit
}

// NewSet wraps already-built toolkits.
func NewSet(toolkits ...Toolkit) *Set {
	return &Set{toolkits: toolkits}
}

// Toolkits returns the toolkits in build order.
func (s *Set) Toolkits() []Toolkit {
	return s.toolkits
}

// System joins every non-empty toolkit system prompt.
func (s *Set) System() string {
	var parts []string
	for _, tk := range s.toolkits {
		if sys := strings.TrimSpace(tk.System()); sys != "" {
			parts = append(parts, sys)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Tools returns every tool offered by the set.
func (s *Set) Tools() []Tool {
	var tools []Tool
	for _, tk := range s.toolkits {
		tools = append(tools, tk.Tools()...)
	}
	return tools
}

func (s *Set) find(name string) (Toolkit, Tool, bool) {
	for _, tk := range s.toolkits {
		for _, tool := range tk.Tools() {
			if tool.Name == name {
				return tk, tool, true
			}
		}
	}
	return nil, Tool{}, false
}

// Dispatch runs a tool call and returns its result content. Failures become
// error results for the model rather than Go errors.
func (s *Set) Dispatch(ctx context.Context, use message.ToolUse) message.Content {
	res := s.Run(ctx, use)
	return message.ToolResult(use.ID, res.Text(), res.IsError)
}

// Run executes a tool call and returns the raw result.
func (s *Set) Run(ctx context.Context, use message.ToolUse) Result {
	tk, tool, ok := s.find(use.Name)
	if !ok {
		return Errorf("unknown tool: %s", use.Name)
	}
	if use.Parameters == nil {
		use.Parameters = map[string]any{}
	}
	if !tool.ValidateParameters(use.Parameters) {
		return Errorf("missing required parameters for %s: %s", tool.Name, strings.Join(tool.Required, ", "))
	}
	if err := ctx.Err(); err != nil {
		return Errorf("tool %s cancelled: %v", tool.Name, err)
	}
	return tk.Process(ctx, use)
}

// Close releases toolkit resources.
func (s *Set) Close() error {
	var firstErr error
	for _, tk := range s.toolkits {
		if c, ok := tk.(Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
