package progress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// maxParamWidth bounds each parameter value shown on a tool line.
const maxParamWidth = 60

// FormatToolCall renders a tool call as `name key=value ...` with long
// values shortened and keys sorted.
func FormatToolCall(name string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{name}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, shorten(fmt.Sprint(params[k]), maxParamWidth)))
	}
	return strings.Join(parts, " ")
}

// shorten collapses whitespace and cuts s to width runes.
func shorten(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func paint(s string, attr color.Attribute, enabled bool) string {
	if !enabled {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// checkmark returns the appropriate checkmark symbol
func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(symbols.Checkmark, color.FgGreen, supportsColor)
}

// failureMark returns the appropriate failure symbol
func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(symbols.Failure, color.FgRed, supportsColor)
}

func toolMark(symbols ProgressSymbols, supportsColor bool) string {
	return paint(symbols.Tool, color.FgCyan, supportsColor)
}
