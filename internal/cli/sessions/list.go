package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	"github.com/gooseworks/goose/internal/sessionfile"
)

var listCmd = &cobra.Command{
	Use:          "list",
	Aliases:      []string{"ls"},
	Short:        "List sessions, newest first",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runList,
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}
	return listSessions(cmd, env.Paths.Sessions())
}

func listSessions(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()

	entries, err := sessionfile.ListSorted(dir)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	colors := shared.NewColors()
	for _, entry := range entries {
		fmt.Fprintf(out, "%s  %s\n", colors.Dim(entry.Modified.Format("2006-01-02 15:04:05")), colors.Cyan(entry.Name))
	}
	return nil
}
