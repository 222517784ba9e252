package toolkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gooseworks/goose/internal/config"
	"github.com/gooseworks/goose/internal/message"
)

type stubToolkit struct {
	name   string
	system string
	tools  []Tool
	calls  []message.ToolUse
	closed bool
}

func (s *stubToolkit) Name() string   { return s.name }
func (s *stubToolkit) System() string { return s.system }
func (s *stubToolkit) Tools() []Tool  { return s.tools }
func (s *stubToolkit) Process(_ context.Context, use message.ToolUse) Result {
	s.calls = append(s.calls, use)
	return Success("ran " + use.Name)
}
func (s *stubToolkit) Close() error {
	s.closed = true
	return nil
}

func TestTool_ValidateParameters(t *testing.T) {
	t.Parallel()

	tool := Tool{Name: "text_editor", Required: []string{"command", "path"}}
	assert.True(t, tool.ValidateParameters(map[string]any{"command": "view", "path": "/tmp"}))
	assert.False(t, tool.ValidateParameters(map[string]any{"command": "view"}))
	assert.True(t, Tool{Name: "bash"}.ValidateParameters(map[string]any{}))
}

func TestToolkitError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", (&ToolkitError{Message: "boom"}).Error())
	assert.Equal(t, "boom (details)", (&ToolkitError{Message: "boom", Details: "details"}).Error())
}

func TestResult(t *testing.T) {
	t.Parallel()

	ok := Success("hello")
	assert.False(t, ok.IsError)
	assert.Equal(t, "hello", ok.Text())

	failed := Error("nope")
	assert.True(t, failed.IsError)
	assert.Empty(t, failed.Output)
	assert.Equal(t, "nope", failed.Text())

	withOutput := Result{Output: "partial", IsError: true, ErrorMessage: "exit 1"}
	assert.Equal(t, "exit 1\npartial", withOutput.Text())
}

func TestRegistry_BuildResolvesRequirements(t *testing.T) {
	t.Parallel()

	var order []string
	var seenReq Toolkit
	r := NewRegistry()
	r.Register(Registration{Name: "base", New: func(Requirements) (Toolkit, error) {
		order = append(order, "base")
		return &stubToolkit{name: "base"}, nil
	}})
	r.Register(Registration{Name: "top", New: func(reqs Requirements) (Toolkit, error) {
		order = append(order, "top")
		dep, err := reqs.MustGet("dep")
		if err != nil {
			return nil, err
		}
		seenReq = dep
		return &stubToolkit{name: "top"}, nil
	}})

	set, err := r.Build([]config.ToolkitSpec{
		{Name: "top", Requires: map[string]string{"dep": "base"}},
		{Name: "base"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "top"}, order)
	require.NotNil(t, seenReq)
	assert.Equal(t, "base", seenReq.Name())
	assert.Len(t, set.Toolkits(), 2)
}

func TestRegistry_BuildErrors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Registration{Name: "a", New: func(Requirements) (Toolkit, error) { return &stubToolkit{name: "a"}, nil }})
	r.Register(Registration{Name: "b", New: func(Requirements) (Toolkit, error) { return &stubToolkit{name: "b"}, nil }})
	r.Register(Registration{Name: "broken", New: func(Requirements) (Toolkit, error) { return nil, errors.New("no luck") }})

	tests := map[string]struct {
		specs   []config.ToolkitSpec
		wantErr string
	}{
		"unknown toolkit": {
			specs:   []config.ToolkitSpec{{Name: "missing"}},
			wantErr: `unknown toolkit "missing" (available: a, b, broken)`,
		},
		"requirement not in profile": {
			specs:   []config.ToolkitSpec{{Name: "a", Requires: map[string]string{"x": "b"}}},
			wantErr: "toolkit b is required but not present",
		},
		"cycle": {
			specs: []config.ToolkitSpec{
				{Name: "a", Requires: map[string]string{"x": "b"}},
				{Name: "b", Requires: map[string]string{"y": "a"}},
			},
			wantErr: "cycle",
		},
		"constructor failure": {
			specs:   []config.ToolkitSpec{{Name: "broken"}},
			wantErr: "building toolkit broken (no luck)",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Build(tc.specs)
			require.Error(t, err)
			var tkErr *ToolkitError
			assert.ErrorAs(t, err, &tkErr)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	assert.Equal(t, []string{"developer", "synopsis"}, r.Names())

	set, err := r.Build([]config.ToolkitSpec{{Name: "synopsis"}, {Name: "developer"}})
	require.NoError(t, err)
	defer set.Close()

	var names []string
	for _, tool := range set.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"bash", "text_editor", "fetch_web_content", "process_manager"}, names)
	assert.Contains(t, set.System(), "Operating system:")
	assert.Contains(t, set.System(), "shell commands")
}

func TestSet_Dispatch(t *testing.T) {
	t.Parallel()

	stub := &stubToolkit{
		name:   "stub",
		system: "stub system",
		tools:  []Tool{{Name: "echo", Required: []string{"text"}}},
	}
	set := NewSet(stub, &stubToolkit{name: "empty"})

	tests := map[string]struct {
		use        message.ToolUse
		wantError  bool
		wantOutput string
	}{
		"runs tool": {
			use:        message.ToolUse{ID: "call_1", Name: "echo", Parameters: map[string]any{"text": "hi"}},
			wantOutput: "ran echo",
		},
		"unknown tool": {
			use:        message.ToolUse{ID: "call_2", Name: "nope"},
			wantError:  true,
			wantOutput: "unknown tool: nope",
		},
		"missing required parameter": {
			use:        message.ToolUse{ID: "call_3", Name: "echo"},
			wantError:  true,
			wantOutput: "missing required parameters for echo: text",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			content := set.Dispatch(context.Background(), tc.use)
			assert.Equal(t, message.ContentToolResult, content.Type)
			assert.Equal(t, tc.use.ID, content.ToolUseID)
			assert.Equal(t, tc.wantError, content.IsError)
			assert.Equal(t, tc.wantOutput, content.Output)
		})
	}

	assert.Equal(t, "stub system", set.System())
	require.NoError(t, set.Close())
	assert.True(t, stub.closed)
}

func TestSet_RunCancelledContext(t *testing.T) {
	t.Parallel()

	stub := &stubToolkit{name: "stub", tools: []Tool{{Name: "echo"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewSet(stub).Run(ctx, message.ToolUse{ID: "call_1", Name: "echo"})
	assert.True(t, res.IsError)
	assert.Empty(t, stub.calls)
}

func TestRequirements_MustGet(t *testing.T) {
	t.Parallel()

	reqs := NewRequirements("synopsis")
	_, ok := reqs.Get("developer")
	assert.False(t, ok)

	_, err := reqs.MustGet("developer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toolkit synopsis requires developer")
}
