package errors

import "fmt"

// SessionExists is returned when `session start <name>` targets a session that already has messages.
func SessionExists(name string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("session '%s' already exists", name),
		fmt.Sprintf("Resume it with: goose session resume %s", name),
		"Or pick a different name, or omit the name to get a random one",
	)
}

// InvalidSessionName is returned when a session name is not a plain file name.
func InvalidSessionName(name string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid session name '%s': names cannot contain path separators or '..'", name),
		"Use a plain name such as r2d2, or omit the name to get a random one",
	)
}

// SessionNotFound is returned when a named session has no session file.
func SessionNotFound(name string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("session '%s' not found", name),
		"List existing sessions with: goose session list",
		fmt.Sprintf("Start a new one with: goose session start %s", name),
	)
}

// NoSessions is returned when a command needs a previous session and none exist.
func NoSessions() *CLIError {
	return NewPrerequisiteError(
		"no sessions found",
		"Start a session first with: goose session start",
	)
}

// MissingAPIKey is returned when a provider needs a key that is not set.
func MissingAPIKey(envVar string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("%s environment variable not set", envVar),
		fmt.Sprintf("Export your key: export %s=...", envVar),
	)
}

// UnknownProvider is returned when a profile names a provider goose does not ship.
func UnknownProvider(name string, available []string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("unknown provider: %s", name),
		fmt.Sprintf("Use one of: %v", available),
		"Edit the provider field of your profile in profiles.yaml",
	)
}

// UnknownToolkit is returned when a profile names a toolkit that is not registered.
func UnknownToolkit(name string, available []string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("unknown toolkit: %s", name),
		fmt.Sprintf("Available toolkits: %v", available),
		"Run 'goose toolkit list' to see what each toolkit provides",
	)
}

// InvalidProfile is returned when a profile fails validation.
func InvalidProfile(name string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("profile '%s' is invalid: %v", name, err),
		Remediation: []string{
			"Fix the profile in profiles.yaml",
			"Every toolkit listed under 'requires' must also be listed in 'toolkits'",
		},
		Err: err,
	}
}

// InvalidPlan is returned when a plan file cannot be loaded.
func InvalidPlan(path string, err error) *CLIError {
	return &CLIError{
		Category: Argument,
		Message:  fmt.Sprintf("invalid plan file %s: %v", path, err),
		Remediation: []string{
			"A plan is YAML with a 'kickoff_message' string and an optional 'tasks' list",
		},
		Err: err,
	}
}

// ConfigParseError is returned when config.json or profiles.yaml cannot be parsed.
func ConfigParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("failed to parse %s: %v", path, err),
		Remediation: []string{
			fmt.Sprintf("Check the syntax of %s", path),
			"Remove the file to let goose recreate the defaults",
		},
		Err: err,
	}
}
