package cli

import (
	"github.com/gooseworks/goose/internal/cli/shared"
)

// Exit codes for the goose CLI (re-exported from shared)
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = shared.ExitSuccess

	// ExitFailure indicates a runtime or configuration failure
	ExitFailure = shared.ExitFailure

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = shared.ExitInvalidArguments

	// ExitMissingDependencies indicates something the command needs is missing
	ExitMissingDependencies = shared.ExitMissingDependency
)

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
