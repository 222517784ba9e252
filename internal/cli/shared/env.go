package shared

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/config"
	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/input"
	"github.com/gooseworks/goose/internal/provider"
	"github.com/gooseworks/goose/internal/session"
	"github.com/gooseworks/goose/internal/toolkit"
)

// Flag names shared by the commands that open a session.
const (
	ProfileFlag  = "profile"
	LogLevelFlag = "log-level"
	TracingFlag  = "tracing"
)

// Environment is the goose home directory and the loaded configuration.
type Environment struct {
	Paths  config.Paths
	Config *config.Configuration
}

// LoadEnvironment resolves the goose home directory and loads config.json.
func LoadEnvironment() (*Environment, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Configuration)
	}
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, clierrors.ConfigParseError(paths.ConfigFile(), err)
	}
	return &Environment{Paths: paths, Config: cfg}, nil
}

// AddSessionFlags adds --profile, --log-level and --tracing to cmd.
func AddSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String(ProfileFlag, "", "Profile to use from profiles.yaml (default \"default\")")
	cmd.Flags().String(LogLevelFlag, "", "Session log level: DEBUG, INFO, WARN or ERROR")
	cmd.Flags().Bool(TracingFlag, false, "Write OpenTelemetry spans to the logs directory")
}

// SessionOptions builds session options from the command's flags and streams.
func SessionOptions(cmd *cobra.Command, env *Environment, name string) session.Options {
	profile, _ := cmd.Flags().GetString(ProfileFlag)
	logLevel, _ := cmd.Flags().GetString(LogLevelFlag)
	tracing, _ := cmd.Flags().GetBool(TracingFlag)
	return session.Options{
		Name:     name,
		Profile:  profile,
		LogLevel: logLevel,
		Tracing:  tracing,
		Paths:    env.Paths,
		Config:   env.Config,
		Input:    NewInput(cmd.InOrStdin(), cmd.OutOrStdout()),
		Out:      cmd.OutOrStdout(),
		Warn:     cmd.ErrOrStderr(),
	}
}

// NewInput returns a terminal prompt when in is a file and a plain line
// reader otherwise.
func NewInput(in io.Reader, out io.Writer) input.Handler {
	if f, ok := in.(*os.File); ok {
		return input.NewFilePrompt(f, out)
	}
	return input.NewReaderPrompt(in, out)
}

// SessionError converts an error from opening a session into a CLI error
// with remediation steps.
func SessionError(err error) error {
	if err == nil {
		return nil
	}
	if clierrors.IsCLIError(err) {
		return err
	}

	var unknownProvider *provider.UnknownProviderError
	var toolkitErr *toolkit.ToolkitError
	var profileErr *config.ProfileError
	var parseErr *config.ValidationError

	switch {
	case errors.Is(err, provider.ErrMissingAPIKey):
		return clierrors.MissingAPIKey(provider.APIKeyEnv)
	case errors.As(err, &unknownProvider):
		return clierrors.UnknownProvider(unknownProvider.Name, provider.Names())
	case errors.As(err, &toolkitErr) && toolkitErr.Unknown != "":
		return clierrors.UnknownToolkit(toolkitErr.Unknown, toolkit.DefaultRegistry().Names())
	case errors.As(err, &toolkitErr):
		return clierrors.Wrap(err, clierrors.Configuration, "Check the toolkits and requires of your profile in profiles.yaml")
	case errors.As(err, &profileErr):
		return clierrors.InvalidProfile(profileErr.Name, profileErr.Err)
	case errors.As(err, &parseErr):
		return clierrors.ConfigParseError(parseErr.FilePath, err)
	case errors.Is(err, session.ErrPlanOnNonEmpty):
		return clierrors.NewArgumentError(err.Error(), "Start a new session to use a plan")
	default:
		return clierrors.Wrap(err, clierrors.Runtime)
	}
}
