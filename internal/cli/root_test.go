package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/message"
	"github.com/gooseworks/goose/internal/sessionfile"
	"github.com/gooseworks/goose/internal/stats"
)

const chatReply = `{
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello from the server"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

// setupHome points goose at a temp home and a fake OpenAI endpoint.
// Tests using it cannot run in parallel: they set environment variables and
// share the global root command.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply))
	}))
	t.Cleanup(server.Close)

	t.Setenv("GOOSE_HOME", home)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", server.URL)
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Groups(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"session", "run", "version", "toolkit"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRun_SinglePass(t *testing.T) {
	home := setupHome(t)
	msgFile := filepath.Join(t.TempDir(), "task.md")
	require.NoError(t, os.WriteFile(msgFile, []byte("# Task\nSay hello\n"), 0o644))

	out, _, err := execute(t, "", "run", msgFile)
	require.NoError(t, err)

	assert.Contains(t, out, "No configuration present, we will create a profile 'default'")
	assert.Contains(t, out, "Hello from the server")
	assert.Contains(t, out, "ended run | name: ")
	assert.Contains(t, out, "to resume: goose session resume ")
	assert.FileExists(t, filepath.Join(home, "profiles.yaml"))

	latest, ok, err := sessionfile.Latest(filepath.Join(home, "sessions"))
	require.NoError(t, err)
	require.True(t, ok)
	msgs, err := sessionfile.Read(latest.Path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "# Task\nSay hello", msgs[0].Text())

	ledger, err := stats.LoadLedger(filepath.Join(home, "logs"))
	require.NoError(t, err)
	require.Len(t, ledger.Runs, 1)
	assert.Equal(t, 15, ledger.Runs[0].TotalTokens)
}

func TestRun_EmptyMessage(t *testing.T) {
	setupHome(t)

	_, _, err := execute(t, "   \n", "run")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
}

func TestSessionStart_Interactive(t *testing.T) {
	home := setupHome(t)

	out, _, err := execute(t, "hi goose\n\n", "session", "start", "r2d2")
	require.NoError(t, err)

	assert.Contains(t, out, "starting session | name: ")
	assert.Contains(t, out, "r2d2")
	assert.Contains(t, out, "saving to "+filepath.Join(home, "sessions", "r2d2.jsonl"))
	assert.Contains(t, out, "Hello from the server")

	msgs, err := sessionfile.Read(filepath.Join(home, "sessions", "r2d2.jsonl"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.RoleUser, msgs[0].Role)

	statsOut, _, err := execute(t, "", "session", "stats", "r2d2")
	require.NoError(t, err)
	assert.Contains(t, statsOut, "Session r2d2 stats:")
	assert.Contains(t, statsOut, "Messages: 2")
	assert.Contains(t, statsOut, "Tokens: 15")
}

func TestSessionStart_ExistingSession(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, sessionfile.Write(filepath.Join(home, "sessions", "c3p0.jsonl"),
		[]message.Message{message.User("earlier")}))

	_, _, err := execute(t, "", "session", "start", "c3p0")
	require.Error(t, err)

	cliErr := clierrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, clierrors.Argument, cliErr.Category)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
	assert.Contains(t, strings.Join(cliErr.Remediation, "\n"), "goose session resume c3p0")
}

func TestSessionResume_Errors(t *testing.T) {
	tests := map[string]struct {
		args    []string
		wantMsg string
	}{
		"no sessions": {
			args:    []string{"session", "resume"},
			wantMsg: "no sessions found",
		},
		"unknown session": {
			args:    []string{"session", "resume", "zz99"},
			wantMsg: "session 'zz99' not found",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			setupHome(t)

			_, _, err := execute(t, "", tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitMissingDependencies, ExitCode(err))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestSessionResume_Latest(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, sessionfile.Write(filepath.Join(home, "sessions", "a1b2.jsonl"),
		[]message.Message{message.User("earlier"), message.Assistant("reply")}))

	out, _, err := execute(t, "", "session", "resume")
	require.NoError(t, err)
	assert.Contains(t, out, "a1b2")
}

func TestRun_MissingAPIKey(t *testing.T) {
	setupHome(t)
	t.Setenv("OPENAI_API_KEY", "")

	msgFile := filepath.Join(t.TempDir(), "task.md")
	require.NoError(t, os.WriteFile(msgFile, []byte("hello"), 0o644))

	_, _, err := execute(t, "", "run", msgFile)
	require.Error(t, err)
	assert.Equal(t, ExitMissingDependencies, ExitCode(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY environment variable not set")
}
