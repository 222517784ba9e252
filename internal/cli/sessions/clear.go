package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/clean"
	"github.com/gooseworks/goose/internal/cli/shared"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all but the most recent sessions",
	Long: `Delete session files, keeping the most recently modified ones.

The log and trace files of each deleted session are removed too. The stats
ledger is left untouched.`,
	Example: `  # Keep the three most recent sessions
  goose session clear

  # Keep only the latest session
  goose session clear --keep 1

  # Preview what would be removed
  goose session clear --dry-run`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runClear,
}

func init() {
	clearCmd.Flags().Int("keep", clean.DefaultKeep, "Number of most recent sessions to keep")
	clearCmd.Flags().BoolP("dry-run", "n", false, "Show what would be removed without removing")
}

func runClear(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}
	return clearSessions(cmd, env.Paths.Sessions(), env.Paths.Logs())
}

func clearSessions(cmd *cobra.Command, sessionsDir, logsDir string) error {
	keep, _ := cmd.Flags().GetInt("keep")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	targets, err := clean.StaleSessions(sessionsDir, logsDir, keep)
	if err != nil {
		return fmt.Errorf("finding sessions to clear: %w", err)
	}
	if len(targets) == 0 {
		fmt.Fprintf(out, "Nothing to clear (keeping %d most recent sessions).\n", keep)
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, "Would remove:")
		for _, target := range targets {
			fmt.Fprintf(out, "  [%s] %s (%s)\n", target.Type, target.Path, target.Description)
		}
		return nil
	}

	results := clean.RemoveFiles(targets)

	var successCount, failCount int
	for _, result := range results {
		if result.Success {
			successCount++
			fmt.Fprintf(out, "✓ Removed: %s\n", result.Target.Path)
		} else {
			failCount++
			fmt.Fprintf(out, "✗ Failed: %s (%v)\n", result.Target.Path, result.Error)
		}
	}

	fmt.Fprintf(out, "\nSummary: %d removed", successCount)
	if failCount > 0 {
		fmt.Fprintf(out, ", %d failed", failCount)
	}
	fmt.Fprintln(out)

	if failCount > 0 {
		return fmt.Errorf("%d files could not be removed", failCount)
	}
	return nil
}
