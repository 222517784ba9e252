package sessions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gooseworks/goose/internal/cli/shared"
	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/session"
	"github.com/gooseworks/goose/internal/sessionfile"
)

var runCmd = &cobra.Command{
	Use:   "run [message_file]",
	Short: "Run a single message through a session and exit",
	Long: `Run a single pass: send the contents of a markdown file (or stdin when no
file or "-" is given) as one message, print the reply including any tool
calls, and exit. The session is saved and can be resumed later.`,
	Example: `  # Send a prepared message
  goose run task.md

  # Pipe a message in
  echo "summarize README.md" | goose run

  # Continue the most recent session
  goose run next.md --resume-session`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runSinglePass,
}

func init() {
	runCmd.GroupID = shared.GroupSessions
	shared.AddSessionFlags(runCmd)
	runCmd.Flags().Bool("resume-session", false, "Continue the most recently modified session")
}

func runSinglePass(cmd *cobra.Command, args []string) error {
	text, err := readMessage(cmd, args)
	if err != nil {
		return err
	}

	env, err := shared.LoadEnvironment()
	if err != nil {
		return err
	}

	var name string
	if resume, _ := cmd.Flags().GetBool("resume-session"); resume {
		latest, ok, err := sessionfile.Latest(env.Paths.Sessions())
		if err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		if ok {
			name = latest.Name
		}
	}

	s, err := session.New(shared.SessionOptions(cmd, env, name))
	if err != nil {
		return shared.SessionError(err)
	}
	return shared.SessionError(s.SinglePass(cmd.Context(), text))
}

func readMessage(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", clierrors.NewArgumentError(fmt.Sprintf("cannot read message: %v", err))
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", clierrors.NewArgumentErrorWithUsage(
			"the message is empty",
			"goose run [message_file]",
			"Write the message to a markdown file or pipe it on stdin",
		)
	}
	return text, nil
}
