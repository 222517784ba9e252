// Package cli provides the Cobra-based command tree for goose.
// It wires the session commands (start, resume, list, clear, stats, run)
// and the utility commands (version, toolkit list) onto the root command.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/sessions"
	"github.com/gooseworks/goose/internal/cli/shared"
	"github.com/gooseworks/goose/internal/cli/util"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupSessions      = shared.GroupSessions
	GroupConfiguration = shared.GroupConfiguration
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goose",
		Short: "goose, an interactive developer agent",
		Long: `goose, an interactive developer agent

Chat with a language model that can run shell commands, edit files, fetch web
pages and manage background processes on your behalf. Sessions are saved under
~/.config/goose (or $GOOSE_HOME) and can be resumed at any time.`,
		Example: `  # Start a new session with a random name
  goose session start

  # Start a named session with a profile
  goose session start r2d2 --profile work

  # Resume the most recent session
  goose session resume

  # One-shot run from a markdown file
  goose run task.md`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setup(rootCmd)
}

func setup(root *cobra.Command) {
	root.AddGroup(&cobra.Group{ID: GroupSessions, Title: "Sessions:"})
	root.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	root.SetHelpCommandGroupID(GroupConfiguration)
	root.SetCompletionCommandGroupID(GroupConfiguration)

	sessions.Register(root)
	util.Register(root)
}
