package sessions

import (
	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/session"
	"github.com/gooseworks/goose/internal/sessionfile"
)

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a new interactive session",
	Long: `Start a new interactive session.

Without a name goose picks a random one. Naming an existing session is an
error; use 'goose session resume' to continue it. Press Ctrl+C while goose is
working to interrupt the current step, or submit an empty line to exit.`,
	Example: `  # Start a session with a random name
  goose session start

  # Start a named session with a specific profile
  goose session start r2d2 --profile work

  # Seed the session with a plan
  goose session start --plan plan.yaml`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runStart,
}

func init() {
	shared.AddSessionFlags(startCmd)
	startCmd.Flags().String("plan", "", "YAML plan with a kickoff_message and optional tasks")
}

func runStart(cmd *cobra.Command, args []string) error {
	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	if err := checkNewSession(env.Paths.Sessions(), name); err != nil {
		return err
	}

	opts := shared.SessionOptions(cmd, env, name)
	if planPath, _ := cmd.Flags().GetString("plan"); planPath != "" {
		plan, err := session.LoadPlan(planPath)
		if err != nil {
			return clierrors.InvalidPlan(planPath, err)
		}
		opts.Plan = plan
	}

	s, err := session.New(opts)
	if err != nil {
		return shared.SessionError(err)
	}
	return shared.SessionError(s.Run(cmd.Context()))
}

// checkNewSession rejects names that are unsafe or already hold a
// conversation. An empty session file is reused.
func checkNewSession(sessionsDir, name string) error {
	if name == "" {
		return nil
	}
	if err := sessionfile.ValidateName(name); err != nil {
		return clierrors.InvalidSessionName(name)
	}
	if sessionfile.IsExisting(sessionfile.Path(sessionsDir, name)) {
		return clierrors.SessionExists(name)
	}
	return nil
}
