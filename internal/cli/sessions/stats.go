package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Show recorded token and cost statistics",
	Long: `Show the statistics recorded in logs/stats.yaml.

Without a name the most recently recorded session is shown. Runs of the same
session are merged. Use --all for totals over every recorded run.`,
	Example: `  # Latest session
  goose session stats

  # A specific session with the token breakdown
  goose session stats r2d2 --tokens

  # Totals over all runs with per-run costs
  goose session stats --all --cost`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runStats,
}

func init() {
	statsCmd.Flags().Bool("tokens", false, "Show prompt and completion tokens")
	statsCmd.Flags().Bool("cost", false, "Show the cost of each run")
	statsCmd.Flags().Bool("all", false, "Show totals over all recorded runs")
}

func runStats(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}
	return showStats(cmd, env.Paths.Logs(), args)
}

func showStats(cmd *cobra.Command, logsDir string, args []string) error {
	showTokens, _ := cmd.Flags().GetBool("tokens")
	showCost, _ := cmd.Flags().GetBool("cost")
	all, _ := cmd.Flags().GetBool("all")
	out := cmd.OutOrStdout()

	ledger, err := stats.LoadLedger(logsDir)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}
	if len(ledger.Runs) == 0 {
		fmt.Fprintln(out, "No statistics recorded yet.")
		return nil
	}

	var (
		summary stats.SessionStats
		runs    []stats.SessionStats
	)
	switch {
	case all:
		summary = ledger.Tracker().Total()
		runs = ledger.Runs
	default:
		id, _ := ledger.Latest()
		if len(args) > 0 {
			id = args[0]
		}
		var ok bool
		summary, ok = ledger.Tracker().Get(id)
		if !ok {
			return clierrors.NewPrerequisiteError(
				fmt.Sprintf("no statistics recorded for session '%s'", id),
				"Statistics are recorded when a session ends",
			)
		}
		for _, run := range ledger.Runs {
			if run.SessionID == id {
				runs = append(runs, run)
			}
		}
	}

	fmt.Fprintln(out, summary.Summary())
	fmt.Fprintf(out, "Runs: %d\n", len(runs))
	if showTokens {
		fmt.Fprintf(out, "Prompt tokens: %d\n", summary.PromptTokens)
		fmt.Fprintf(out, "Completion tokens: %d\n", summary.CompletionTokens)
	}
	if showCost {
		colors := shared.NewColors()
		fmt.Fprintln(out, "Cost per run:")
		for _, run := range runs {
			model := run.Model
			if model == "" {
				model = "unknown model"
			}
			fmt.Fprintf(out, "  %s  %-10s %-16s $%.4f\n",
				colors.Dim(run.StartTime.Format("2006-01-02 15:04:05")), run.SessionID, model, run.TotalCost)
		}
	}
	return nil
}
