package sessions

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/session"
	"github.com/gooseworks/goose/internal/sessionfile"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [name]",
	Short: "Resume an existing session",
	Long: `Resume an existing session. Without a name the most recently modified
session is resumed.`,
	Example: `  # Resume the latest session
  goose session resume

  # Resume a specific session
  goose session resume r2d2 --profile work`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runResume,
}

func init() {
	shared.AddSessionFlags(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}

	name, err := resolveSession(env.Paths.Sessions(), args)
	if err != nil {
		return err
	}

	s, err := session.New(shared.SessionOptions(cmd, env, name))
	if err != nil {
		return shared.SessionError(err)
	}
	return shared.SessionError(s.Run(cmd.Context()))
}

// resolveSession returns the named session, or the latest one when no name
// is given. The session file must exist.
func resolveSession(sessionsDir string, args []string) (string, error) {
	if len(args) == 0 {
		latest, ok, err := sessionfile.Latest(sessionsDir)
		if err != nil {
			return "", clierrors.Wrap(err, clierrors.Runtime)
		}
		if !ok {
			return "", clierrors.NoSessions()
		}
		return latest.Name, nil
	}

	name := args[0]
	if err := sessionfile.ValidateName(name); err != nil {
		return "", clierrors.InvalidSessionName(name)
	}
	if _, err := os.Stat(sessionfile.Path(sessionsDir, name)); err != nil {
		return "", clierrors.SessionNotFound(name)
	}
	return name, nil
}
