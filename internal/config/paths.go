package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnv overrides the goose home directory.
	HomeEnv = "GOOSE_HOME"

	profilesFile = "profiles.yaml"
	configFile   = "config.json"
	sessionsDir  = "sessions"
	logsDir      = "logs"
)

// Paths locates the files goose keeps under its home directory.
type Paths struct {
	Root string
}

// DefaultPaths returns $GOOSE_HOME, or ~/.config/goose when unset.
func DefaultPaths() (Paths, error) {
	if root := os.Getenv(HomeEnv); root != "" {
		return Paths{Root: expandHomePath(root)}, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("getting home directory: %w", err)
	}
	return Paths{Root: filepath.Join(homeDir, ".config", "goose")}, nil
}

// Profiles is the path of profiles.yaml.
func (p Paths) Profiles() string { return filepath.Join(p.Root, profilesFile) }

// ConfigFile is the path of config.json.
func (p Paths) ConfigFile() string { return filepath.Join(p.Root, configFile) }

// Sessions is the directory holding session files.
func (p Paths) Sessions() string { return filepath.Join(p.Root, sessionsDir) }

// Logs is the directory holding session logs, traces and the stats ledger.
func (p Paths) Logs() string { return filepath.Join(p.Root, logsDir) }

// EnsureDirs creates the sessions and logs directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Sessions(), p.Logs()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
