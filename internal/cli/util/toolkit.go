package util

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	"github.com/gooseworks/goose/internal/toolkit"
)

var toolkitCmd = &cobra.Command{
	Use:   "toolkit",
	Short: "Inspect the available toolkits",
}

var toolkitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available toolkits",
	Long:  "List the toolkits that can be named in a profile, with a one-line description.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listToolkits(cmd.OutOrStdout(), toolkit.DefaultRegistry())
	},
}

func init() {
	toolkitCmd.GroupID = shared.GroupConfiguration
	toolkitCmd.AddCommand(toolkitListCmd)
}

func listToolkits(out io.Writer, registry *toolkit.Registry) {
	colors := shared.NewColors()
	fmt.Fprintln(out, colors.White("Available toolkits:"))
	for _, reg := range registry.List() {
		fmt.Fprintf(out, "  - %s: %s\n", colors.Cyan(reg.Name), reg.Description)
	}
}
