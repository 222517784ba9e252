// Package clean removes old session files and their logs.
package clean

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gooseworks/goose/internal/sessionfile"
)

// DefaultKeep is how many sessions `session clear` keeps by default.
const DefaultKeep = 3

// TargetType represents the type of a clean target
type TargetType string

const (
	// TypeSession is a session file
	TypeSession TargetType = "session"
	// TypeLog is a session log or trace file
	TypeLog TargetType = "log"
)

// CleanTarget represents a file to be removed during clean operation
type CleanTarget struct {
	Path        string     // Path to the file
	Type        TargetType // Type of target
	Session     string     // Session the file belongs to
	Description string     // Human-readable description for display
}

// CleanResult represents the result of attempting to remove a target
type CleanResult struct {
	Target  CleanTarget // The target that was processed
	Success bool        // Whether removal succeeded
	Error   error       // Error if removal failed
}

// StaleSessions returns every session file except the keep most recently
// modified ones. When logsDir is set, each session's log and trace files are
// included too.
func StaleSessions(sessionsDir, logsDir string, keep int) ([]CleanTarget, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	entries, err := sessionfile.ListSorted(sessionsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) <= keep {
		return nil, nil
	}

	var targets []CleanTarget
	for _, entry := range entries[keep:] {
		targets = append(targets, CleanTarget{
			Path:        entry.Path,
			Type:        TypeSession,
			Session:     entry.Name,
			Description: "Session " + entry.Name,
		})
		if logsDir == "" {
			continue
		}
		for _, suffix := range []string{".log", ".trace.json"} {
			path := filepath.Join(logsDir, entry.Name+suffix)
			if _, err := os.Stat(path); err == nil {
				targets = append(targets, CleanTarget{
					Path:        path,
					Type:        TypeLog,
					Session:     entry.Name,
					Description: "Log for session " + entry.Name,
				})
			}
		}
	}
	return targets, nil
}

// RemoveFiles removes the specified targets and returns the results.
// It continues after individual failures and reports all results.
func RemoveFiles(targets []CleanTarget) []CleanResult {
	results := make([]CleanResult, 0, len(targets))
	for _, target := range targets {
		err := os.Remove(target.Path)
		results = append(results, CleanResult{
			Target:  target,
			Success: err == nil,
			Error:   err,
		})
	}
	return results
}
