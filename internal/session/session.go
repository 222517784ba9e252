// Package session runs an interactive goose session: it reads user input,
// drives the exchange with the configured provider and toolkits, persists
// the transcript after every turn and records statistics when it closes.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gooseworks/goose/internal/config"
	"github.com/gooseworks/goose/internal/exchange"
	"github.com/gooseworks/goose/internal/input"
	"github.com/gooseworks/goose/internal/logging"
	"github.com/gooseworks/goose/internal/message"
	"github.com/gooseworks/goose/internal/names"
	"github.com/gooseworks/goose/internal/progress"
	"github.com/gooseworks/goose/internal/provider"
	"github.com/gooseworks/goose/internal/sessionfile"
	"github.com/gooseworks/goose/internal/stats"
	"github.com/gooseworks/goose/internal/toolkit"
	"github.com/gooseworks/goose/internal/tracing"
)

// ProviderFactory creates the provider named in a profile.
type ProviderFactory func(name string, cfg provider.Config) (provider.Provider, error)

// Options configures a Session.
type Options struct {
	// Name of the session. Empty picks a random name.
	Name string
	// Profile name. Empty means config.DefaultProfileName.
	Profile string
	// Plan seeds an empty session with a first message.
	Plan *Plan
	// LogLevel overrides the configured log level.
	LogLevel string
	// Tracing writes spans to logs/<name>.trace.json.
	Tracing bool

	Paths  config.Paths
	Config *config.Configuration

	// Registry defaults to toolkit.DefaultRegistry().
	Registry *toolkit.Registry
	// NewProvider defaults to provider.New.
	NewProvider ProviderFactory
	// Input defaults to a terminal prompt on stdin.
	Input input.Handler
	// Out receives session output. Defaults to stdout.
	Out io.Writer
	// Warn receives non-fatal warnings. Defaults to stderr.
	Warn io.Writer
}

// Session is one named conversation backed by a session file.
type Session struct {
	name        string
	profileName string
	profile     config.Profile
	path        string

	cfg      *config.Configuration
	paths    config.Paths
	exchange *exchange.Exchange
	toolkits *toolkit.Set
	input    input.Handler
	out      io.Writer
	warn     io.Writer

	indicator *progress.Indicator
	log       *logging.SessionLog
	shutdown  tracing.ShutdownFunc
	stats     *stats.SessionStats
	writer    *stats.Writer

	interrupted atomic.Bool
	mu          sync.Mutex
	cancel      context.CancelFunc
	closed      bool
}

// New prepares a session: it ensures the profile exists, builds the
// toolkits and provider and loads any existing transcript.
func New(opts Options) (s *Session, err error) {
	if opts.Config == nil {
		return nil, errors.New("session requires a configuration")
	}
	name := opts.Name
	if name == "" {
		name = names.GenerateName()
	}
	profileName := opts.Profile
	if profileName == "" {
		profileName = config.DefaultProfileName
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	warn := opts.Warn
	if warn == nil {
		warn = os.Stderr
	}
	registry := opts.Registry
	if registry == nil {
		registry = toolkit.DefaultRegistry()
	}
	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = provider.New
	}
	cfg := opts.Config

	profile, err := config.EnsureProfile(out, opts.Paths, cfg, profileName)
	if err != nil {
		return nil, err
	}

	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	set, err := registry.Build(profile.Toolkits)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { set.Close() })

	prov, err := newProvider(profile.Provider, provider.Config{
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	moderator, err := exchange.NewModerator(moderatorName(profile, cfg), cfg.ContextLimit)
	if err != nil {
		return nil, err
	}

	path := sessionfile.Path(opts.Paths.Sessions(), name)
	history, err := sessionfile.ReadOrCreate(path)
	if err != nil {
		return nil, err
	}
	if opts.Plan != nil {
		if len(history) > 0 {
			return nil, ErrPlanOnNonEmpty
		}
		history = append(history, opts.Plan.Message())
	}

	levelName := opts.LogLevel
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	sessionLog, err := logging.OpenSessionLog(opts.Paths.Logs(), name, level)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { sessionLog.Close() })

	shutdown, err := tracing.Setup(opts.Paths.Logs(), name, opts.Tracing)
	if err != nil {
		return nil, err
	}

	run := stats.New(name)
	run.SetCostPerToken(cfg.CostPerToken)
	run.Profile = profileName
	run.Model = profile.Processor

	s = &Session{
		name:        name,
		profileName: profileName,
		profile:     profile,
		path:        path,
		cfg:         cfg,
		paths:       opts.Paths,
		toolkits:    set,
		input:       opts.Input,
		out:         out,
		warn:        warn,
		indicator:   progress.NewIndicator(capabilities(out), out),
		log:         sessionLog,
		shutdown:    shutdown,
		stats:       run,
		writer:      stats.NewWriter(opts.Paths.Logs(), cfg.StatsMaxEntries),
	}
	s.writer.Warn = warn

	s.exchange, err = exchange.New(exchange.Options{
		Provider:      prov,
		Model:         profile.Processor,
		System:        set.System(),
		Toolkits:      set,
		Moderator:     moderator,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		MaxToolRounds: cfg.MaxToolRounds,
		Messages:      history,
		OnMessage:     s.onMessage,
		OnUsage:       s.onUsage,
	})
	if err != nil {
		shutdown(context.Background())
		return nil, err
	}

	sessionLog.Logger.Info("session opened",
		slog.String("profile", profileName),
		slog.String("provider", profile.Provider),
		slog.String("model", profile.Processor),
		slog.Int("messages", len(history)),
	)
	return s, nil
}

// moderatorName is the profile's moderator, or the configured one when the
// profile leaves it out.
func moderatorName(profile config.Profile, cfg *config.Configuration) string {
	if profile.Moderator != "" {
		return profile.Moderator
	}
	return cfg.Moderator
}

func capabilities(out io.Writer) progress.TerminalCapabilities {
	if f, ok := out.(*os.File); ok {
		return progress.DetectTerminalCapabilities(f)
	}
	return progress.TerminalCapabilities{}
}

// Name is the session name.
func (s *Session) Name() string { return s.name }

// ProfileName is the name of the profile in use.
func (s *Session) ProfileName() string { return s.profileName }

// Profile is the profile in use.
func (s *Session) Profile() config.Profile { return s.profile }

// Path is the session file.
func (s *Session) Path() string { return s.path }

// Messages returns the transcript.
func (s *Session) Messages() []message.Message { return s.exchange.Messages() }

// Stats returns a snapshot of this run's statistics.
func (s *Session) Stats() stats.SessionStats { return *s.stats }

func (s *Session) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, s.log.Logger)
}

func (s *Session) onMessage(m message.Message) {
	s.stats.AddMessage()
	if !m.IsAssistant() {
		return
	}
	if text := m.Text(); text != "" {
		s.indicator.Stop()
		fmt.Fprintln(s.out, text)
	}
	for _, use := range m.ToolUses() {
		s.indicator.Tool(use.Name, use.Parameters)
	}
	if m.HasToolUse() {
		s.indicator.Start("running tools...")
	}
}

func (s *Session) onUsage(u provider.Usage) {
	s.stats.AddUsage(u.PromptTokens, u.CompletionTokens)
}

// save rewrites the session file. Failures are reported as warnings.
func (s *Session) save() {
	if err := sessionfile.Write(s.path, s.exchange.Messages()); err != nil {
		logging.LogError(s.log.Logger, "saving session failed", err)
		fmt.Fprintf(s.warn, "Warning: failed to save session: %v\n", err)
	}
}

// Close records the run's statistics and releases the toolkits, the trace
// exporter and the session log. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.indicator.Stop()
	s.stats.Complete()
	logging.LogOperation(s.log.Logger, "session completed",
		slog.Duration("duration", s.stats.Duration()),
		slog.Int("messages", s.stats.TotalMessages),
		slog.Int("prompt_tokens", s.stats.PromptTokens),
		slog.Int("completion_tokens", s.stats.CompletionTokens),
		slog.Int("tokens", s.stats.TotalTokens),
		slog.Float64("cost", s.stats.TotalCost),
	)
	s.writer.Record(*s.stats)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(
		s.shutdown(ctx),
		s.toolkits.Close(),
		s.log.Close(),
	)
}
