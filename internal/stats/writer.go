package stats

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer appends completed runs to the ledger, keeping at most MaxEntries.
type Writer struct {
	LogsDir    string
	MaxEntries int

	// Warn receives non-fatal failures. Defaults to stderr.
	Warn io.Writer

	mu sync.Mutex
}

// NewWriter creates a ledger writer for logsDir.
func NewWriter(logsDir string, maxEntries int) *Writer {
	return &Writer{LogsDir: logsDir, MaxEntries: maxEntries, Warn: os.Stderr}
}

// Record appends a run and reports failures as a warning instead of an error.
func (w *Writer) Record(run SessionStats) {
	if err := w.Append(run); err != nil {
		out := w.Warn
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Warning: failed to record session stats: %v\n", err)
	}
}

// Append loads the ledger, adds run, prunes the oldest runs and saves.
func (w *Writer) Append(run SessionStats) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ledger, err := LoadLedger(w.LogsDir)
	if err != nil {
		return fmt.Errorf("loading stats ledger: %w", err)
	}

	ledger.Runs = append(ledger.Runs, run)
	if w.MaxEntries > 0 && len(ledger.Runs) > w.MaxEntries {
		ledger.Runs = ledger.Runs[len(ledger.Runs)-w.MaxEntries:]
	}

	if err := SaveLedger(w.LogsDir, ledger); err != nil {
		return fmt.Errorf("saving stats ledger: %w", err)
	}
	return nil
}
