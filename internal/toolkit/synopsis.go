package toolkit

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gooseworks/goose/internal/message"
)

// Synopsis contributes a description of the host to the system prompt.
// It has no tools.
type Synopsis struct {
	now    func() time.Time
	getwd  func() (string, error)
	getenv func(string) string
}

// NewSynopsis creates a synopsis toolkit for the current process.
func NewSynopsis() *Synopsis {
	return &Synopsis{now: time.Now, getwd: os.Getwd, getenv: os.Getenv}
}

// Name implements Toolkit.
func (s *Synopsis) Name() string { return SynopsisName }

// System implements Toolkit.
func (s *Synopsis) System() string {
	cwd, err := s.getwd()
	if err != nil {
		cwd = "unknown"
	}
	shell := s.getenv("SHELL")
	if shell == "" {
		shell = "bash"
	}

	var b strings.Builder
	b.WriteString("You are goose, an assistant working in the user's terminal.\n")
	fmt.Fprintf(&b, "Operating system: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Shell: %s\n", shell)
	fmt.Fprintf(&b, "Current directory: %s\n", cwd)
	fmt.Fprintf(&b, "Current date: %s", s.now().Format("2006-01-02"))
	return b.String()
}

// Tools implements Toolkit.
func (s *Synopsis) Tools() []Tool { return nil }

// Process implements Toolkit.
func (s *Synopsis) Process(_ context.Context, use message.ToolUse) Result {
	return Errorf("synopsis toolkit has no tool %s", use.Name)
}
