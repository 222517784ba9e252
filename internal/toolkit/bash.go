package toolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"
)

// MaxOutputBytes bounds the output returned to the model by one command.
const MaxOutputBytes = 64 * 1024

// killWait bounds how long a cancelled command may keep its output pipes open.
const killWait = time.Second

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// bashScript assembles the script run by the bash tool: cd, then source,
// then the command.
func bashScript(params map[string]any) (string, bool) {
	var steps []string
	if dir, ok := stringParam(params, "working_dir"); ok {
		steps = append(steps, "cd "+shellQuote(dir))
	}
	if src, ok := stringParam(params, "source_path"); ok {
		steps = append(steps, "source "+shellQuote(src))
	}
	if cmd, ok := stringParam(params, "command"); ok {
		steps = append(steps, cmd)
	}
	if len(steps) == 0 {
		return "", false
	}
	return strings.Join(steps, " && "), true
}

func runBash(ctx context.Context, params map[string]any) Result {
	script, ok := bashScript(params)
	if !ok {
		return Error("at least one of working_dir, source_path or command must be provided")
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killWait
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := truncateOutput(out.String(), MaxOutputBytes)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{Output: output, IsError: true, ErrorMessage: "command interrupted: " + ctxErr.Error()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Output: output, IsError: true, ErrorMessage: fmt.Sprintf("command exited with code %d", exitErr.ExitCode())}
		}
		return Errorf("running command: %v", err)
	}
	return Success(output)
}

// truncateOutput keeps the tail of s within limit bytes on a rune boundary.
func truncateOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	start := len(s) - limit
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return fmt.Sprintf("[output truncated, showing last %d bytes]\n%s", len(s)-start, s[start:])
}
