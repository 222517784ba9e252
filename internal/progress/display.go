package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Indicator draws a spinner while goose waits and prints one line per tool
// call and per failure.
type Indicator struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	out          io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
}

// NewIndicator creates an indicator writing to out.
func NewIndicator(caps TerminalCapabilities, out io.Writer) *Indicator {
	return &Indicator{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		out:          out,
	}
}

// Start shows msg with a spinner on a TTY. Without a TTY nothing is drawn.
func (p *Indicator) Start(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if !p.capabilities.IsTTY {
		return
	}
	p.spinner = spinner.New(
		spinner.CharSets[p.symbols.SpinnerSet],
		100*time.Millisecond,
		spinner.WithWriter(p.out),
	)
	p.spinner.Suffix = " " + msg
	p.spinner.Start()
}

// Stop clears the spinner.
func (p *Indicator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Indicator) stopLocked() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

// Tool stops the spinner and prints a tool call line.
func (p *Indicator) Tool(name string, params map[string]any) {
	p.Stop()
	fmt.Fprintf(p.out, "%s %s\n", toolMark(p.symbols, p.capabilities.SupportsColor), FormatToolCall(name, params))
}

// Done stops the spinner and prints a success line.
func (p *Indicator) Done(msg string) {
	p.Stop()
	fmt.Fprintf(p.out, "%s %s\n", checkmark(p.symbols, p.capabilities.SupportsColor), msg)
}

// Fail stops the spinner and prints a failure line.
func (p *Indicator) Fail(msg string, err error) {
	p.Stop()
	if err != nil {
		fmt.Fprintf(p.out, "%s %s: %v\n", failureMark(p.symbols, p.capabilities.SupportsColor), msg, err)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", failureMark(p.symbols, p.capabilities.SupportsColor), msg)
}
