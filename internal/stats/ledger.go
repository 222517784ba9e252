package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// LedgerFileName is the stats ledger inside the logs directory.
	LedgerFileName = "stats.yaml"
	// BackupSuffix is appended to a ledger that could not be parsed.
	BackupSuffix = ".backup"
)

// Ledger is the on-disk list of completed runs, oldest first.
type Ledger struct {
	Runs []SessionStats `yaml:"runs"`
}

// Tracker returns a tracker loaded with every run in the ledger.
func (l *Ledger) Tracker() *Tracker {
	t := NewTracker()
	for _, run := range l.Runs {
		t.Track(run)
	}
	return t
}

// Latest returns the session id of the most recently recorded run.
func (l *Ledger) Latest() (string, bool) {
	if len(l.Runs) == 0 {
		return "", false
	}
	return l.Runs[len(l.Runs)-1].SessionID, true
}

// LoadLedger reads the ledger from logsDir. A missing file yields an empty
// ledger; a corrupted one is moved aside to stats.yaml.backup.
func LoadLedger(logsDir string) (*Ledger, error) {
	path := filepath.Join(logsDir, LedgerFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{Runs: []SessionStats{}}, nil
		}
		return nil, fmt.Errorf("reading stats ledger: %w", err)
	}

	var ledger Ledger
	if err := yaml.Unmarshal(data, &ledger); err != nil {
		if err := os.Rename(path, path+BackupSuffix); err != nil {
			return nil, fmt.Errorf("backing up corrupted stats ledger: %w", err)
		}
		return &Ledger{Runs: []SessionStats{}}, nil
	}
	if ledger.Runs == nil {
		ledger.Runs = []SessionStats{}
	}
	return &ledger, nil
}

// SaveLedger writes the ledger atomically, creating logsDir if needed.
func SaveLedger(logsDir string, ledger *Ledger) error {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	data, err := yaml.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("marshaling stats ledger: %w", err)
	}

	path := filepath.Join(logsDir, LedgerFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp stats ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp stats ledger: %w", err)
	}
	return nil
}
