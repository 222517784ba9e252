// Package sessions provides the session CLI commands for goose.
// Includes: session start, resume, list, clear, stats, and run
package sessions

import (
	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start, resume and manage goose sessions",
	Long: `Start, resume and manage goose sessions.

Sessions are stored as JSON Lines files under the sessions directory of the
goose home (~/.config/goose or $GOOSE_HOME). Each run appends statistics to
logs/stats.yaml.`,
}

// Register adds the session and run commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	sessionCmd.GroupID = shared.GroupSessions
	sessionCmd.AddCommand(startCmd)
	sessionCmd.AddCommand(resumeCmd)
	sessionCmd.AddCommand(listCmd)
	sessionCmd.AddCommand(clearCmd)
	sessionCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runCmd)
}
