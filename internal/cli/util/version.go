package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/build"
	"github.com/gooseworks/goose/internal/cli/shared"
	"github.com/gooseworks/goose/internal/exchange"
	"github.com/gooseworks/goose/internal/provider"
	"github.com/gooseworks/goose/internal/toolkit"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, Go version and the built-in providers, toolkits and moderators",
	Example: `  # Show version info
  goose version

  # Plain output (for scripts)
  goose version --plain`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout())
		} else {
			printPrettyVersion(cmd.OutOrStdout())
		}
	},
}

func init() {
	versionCmd.GroupID = shared.GroupConfiguration
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// plugin kinds and their registered names, in display order
func plugins() [][2]string {
	return [][2]string{
		{"providers", strings.Join(provider.Names(), ", ")},
		{"toolkits", strings.Join(toolkit.DefaultRegistry().Names(), ", ")},
		{"moderators", strings.Join(exchange.ModeratorNames(), ", ")},
	}
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "goose %s\n", build.Version)
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	for _, p := range plugins() {
		fmt.Fprintf(out, "%s: %s\n", p[0], p[1])
	}
}

// printPrettyVersion prints a styled version output with logo and box
func printPrettyVersion(out io.Writer) {
	termWidth := shared.GetTerminalWidth()
	colors := shared.NewColors()

	fmt.Fprintln(out)
	logoPadding := (termWidth - shared.LogoDisplayWidth) / 2
	if logoPadding < 0 {
		logoPadding = 0
	}
	for _, line := range shared.Logo {
		fmt.Fprintln(out, colors.Cyan(strings.Repeat(" ", logoPadding)+line))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, colors.Dim(shared.CenterText(shared.Tagline, termWidth)))
	fmt.Fprintln(out)

	info := []struct {
		label string
		value string
	}{
		{"Version", build.Version},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
	for _, p := range plugins() {
		info = append(info, struct {
			label string
			value string
		}{strings.ToUpper(p[0][:1]) + p[0][1:], p[1]})
	}

	boxWidth := 52
	if termWidth < 58 {
		boxWidth = termWidth - 6
	}
	contentWidth := boxWidth - 4

	boxPadding := (termWidth - boxWidth) / 2
	if boxPadding < 0 {
		boxPadding = 0
	}
	pad := strings.Repeat(" ", boxPadding)

	fmt.Fprintln(out, pad+shared.BoxTopLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxTopRight)
	fmt.Fprintln(out, pad+shared.BoxVertical+strings.Repeat(" ", boxWidth-2)+shared.BoxVertical)
	for _, item := range info {
		label := colors.Yellow(fmt.Sprintf("%12s", item.label))
		line := fmt.Sprintf("  %s    %s", label, colors.White(item.value))
		lineLen := 12 + 4 + len([]rune(item.value)) + 2
		if lineLen < contentWidth {
			line += strings.Repeat(" ", contentWidth-lineLen)
		}
		fmt.Fprintln(out, pad+shared.BoxVertical+" "+line+" "+shared.BoxVertical)
	}
	fmt.Fprintln(out, pad+shared.BoxVertical+strings.Repeat(" ", boxWidth-2)+shared.BoxVertical)
	fmt.Fprintln(out, pad+shared.BoxBottomLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxBottomRight)
	fmt.Fprintln(out)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
