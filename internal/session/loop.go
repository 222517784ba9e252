package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"

	clierrors "github.com/gooseworks/goose/internal/errors"
	"github.com/gooseworks/goose/internal/exchange"
	"github.com/gooseworks/goose/internal/input"
	"github.com/gooseworks/goose/internal/logging"
	"github.com/gooseworks/goose/internal/message"
)

// Recovery notices shown after an interruption.
const (
	RecoveryIdle     = "We interrupted before the next processing started."
	RecoveryReply    = "We interrupted before the model replied and removed the last message."
	RecoveryToolCall = "We interrupted the existing tool call. How would you like to proceed?"

	// ToolInterrupted is the error output given to tool calls that were cut off.
	ToolInterrupted = "Interrupted by the user"
)

// Run prints the banner and reads messages until the user exits. Ctrl+C
// while the model or a tool is working cancels that turn and returns to the
// prompt. Statistics are recorded when Run returns.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() { err = errors.Join(err, s.Close()) }()

	s.banner()
	stop := s.watchInterrupts()
	defer stop()

	if s.input == nil {
		s.input = input.NewPrompt()
	}

	if s.pending() {
		if err := s.reply(ctx); err != nil {
			s.showError(err)
		}
	}

	for ctx.Err() == nil {
		if s.interrupted.Load() {
			s.handleInterrupt()
			break
		}

		in, err := s.input.GetUserInput()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if in.ToExit() {
			break
		}

		if err := s.ProcessMessage(ctx, message.User(in.Text)); err != nil {
			s.showError(err)
		}
	}
	return nil
}

// SinglePass sends text as one user message, waits for the full reply and
// prints how to resume the session.
func (s *Session) SinglePass(ctx context.Context, text string) (err error) {
	defer func() { err = errors.Join(err, s.Close()) }()

	s.banner()
	stop := s.watchInterrupts()
	defer stop()

	if err := s.ProcessMessage(ctx, message.User(text)); err != nil {
		return err
	}

	dim := color.New(color.Faint)
	dim.Fprintf(s.out, "ended run | name: %s profile: %s\n", s.name, s.profileName)
	dim.Fprintf(s.out, "to resume: goose session resume %s --profile %s\n", s.name, s.profileName)
	return nil
}

// ProcessMessage validates and appends m, then gets the model's reply,
// running any tools it asks for. The session file is rewritten afterwards.
// An interrupted turn is recovered and reported as success.
func (s *Session) ProcessMessage(ctx context.Context, m message.Message) error {
	if err := s.exchange.AddMessage(m); err != nil {
		return err
	}
	s.stats.AddMessage()
	return s.reply(ctx)
}

// Interrupt cancels the turn in progress. Run calls it on SIGINT.
func (s *Session) Interrupt() {
	s.interrupted.Store(true)
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) banner() {
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint)
	dim.Fprintf(s.out, "starting session | name: %s profile: %s\n", cyan(s.name), cyan(s.profileName))
	dim.Fprintf(s.out, "saving to %s\n", s.path)
}

// pending reports whether the transcript ends with a user message the model
// has not answered yet, such as a plan's kickoff message.
func (s *Session) pending() bool {
	last, ok := s.exchange.Last()
	return ok && last.IsUser() && len(last.ToolResults()) == 0
}

func (s *Session) reply(ctx context.Context) error {
	ctx = s.context(ctx)
	turn, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()
	if s.interrupted.Load() {
		cancel()
	}

	s.indicator.Start("thinking...")
	_, err := s.exchange.Reply(turn)
	s.indicator.Stop()

	switch {
	case err == nil:
	case s.interrupted.Load() || errors.Is(err, context.Canceled):
		logging.FromContext(ctx).Info("turn interrupted", slog.Int("messages", s.exchange.Len()))
		s.handleInterrupt()
		err = nil
	case errors.Is(err, exchange.ErrToolRoundsExceeded):
		logging.LogError(logging.FromContext(ctx), "tool loop stopped", err)
	default:
		logging.LogError(logging.FromContext(ctx), "turn failed", err)
		s.rewind()
	}

	s.save()
	return err
}

// rewind makes the transcript valid for the next request after a failed or
// interrupted turn and returns the notice describing what happened.
func (s *Session) rewind() string {
	recovery := RecoveryIdle
	if last, ok := s.exchange.Last(); ok && last.IsUser() && len(last.ToolResults()) == 0 {
		s.exchange.Pop()
		recovery = RecoveryReply
	}
	if last, ok := s.exchange.Last(); ok && last.IsAssistant() && last.HasToolUse() {
		results := exchange.ErrorResults(last.ToolUses(), ToolInterrupted)
		if err := s.exchange.AddMessage(results); err == nil {
			s.exchange.AddMessage(message.Assistant(RecoveryToolCall))
		}
		recovery = RecoveryToolCall
	}
	return recovery
}

func (s *Session) handleInterrupt() {
	recovery := s.rewind()
	color.New(color.FgYellow).Fprintln(s.out, recovery)
	s.interrupted.Store(false)
}

func (s *Session) showError(err error) {
	fmt.Fprint(s.warn, clierrors.FormatSimpleError(err, clierrors.Runtime))
}

func (s *Session) watchInterrupts() func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-signals:
				s.Interrupt()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}
