// Package exchange drives a conversation with a provider: it sends the
// moderated history, appends replies and runs requested tools until the
// model answers without tool calls.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/gooseworks/goose/internal/logging"
	"github.com/gooseworks/goose/internal/message"
	"github.com/gooseworks/goose/internal/provider"
	"github.com/gooseworks/goose/internal/toolkit"
	"github.com/gooseworks/goose/internal/tracing"
)

// DefaultMaxToolRounds bounds the tool loop in Reply.
const DefaultMaxToolRounds = 10

// ErrToolRoundsExceeded is returned by Reply when the model keeps calling
// tools past the configured limit.
var ErrToolRoundsExceeded = errors.New("tool round limit reached")

// Options configures an Exchange.
type Options struct {
	Provider      provider.Provider
	Model         string
	System        string
	Toolkits      *toolkit.Set
	Moderator     Moderator
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
	Messages      []message.Message

	// OnMessage is called for every message appended by Generate or Reply.
	OnMessage func(message.Message)
	// OnUsage is called after every provider call.
	OnUsage func(provider.Usage)
	// Tracer defaults to the global goose tracer.
	Tracer trace.Tracer
}

// Exchange is one conversation with a provider.
type Exchange struct {
	opts     Options
	messages []message.Message
	usage    provider.Usage
	tracer   trace.Tracer
}

// New creates an exchange seeded with opts.Messages.
func New(opts Options) (*Exchange, error) {
	if opts.Provider == nil {
		return nil, errors.New("exchange requires a provider")
	}
	if opts.Toolkits == nil {
		opts.Toolkits = toolkit.NewSet()
	}
	if opts.Moderator == nil {
		opts.Moderator = Passive{}
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Tracer()
	}
	msgs := append([]message.Message(nil), opts.Messages...)
	opts.Messages = nil
	return &Exchange{opts: opts, messages: msgs, tracer: tracer}, nil
}

// Messages returns a copy of the history.
func (e *Exchange) Messages() []message.Message {
	return append([]message.Message(nil), e.messages...)
}

// Len is the number of messages in the history.
func (e *Exchange) Len() int { return len(e.messages) }

// Last returns the most recent message.
func (e *Exchange) Last() (message.Message, bool) {
	if len(e.messages) == 0 {
		return message.Message{}, false
	}
	return e.messages[len(e.messages)-1], true
}

// Pop removes and returns the most recent message.
func (e *Exchange) Pop() (message.Message, bool) {
	last, ok := e.Last()
	if ok {
		e.messages = e.messages[:len(e.messages)-1]
	}
	return last, ok
}

// Usage is the cumulative token usage of this exchange.
func (e *Exchange) Usage() provider.Usage { return e.usage }

// Model is the model used for completions.
func (e *Exchange) Model() string { return e.opts.Model }

// System is the system prompt.
func (e *Exchange) System() string { return e.opts.System }

// AddMessage validates and appends a message.
func (e *Exchange) AddMessage(m message.Message) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	e.messages = append(e.messages, m)
	return nil
}

func (e *Exchange) appendMessage(m message.Message) {
	e.messages = append(e.messages, m)
	if e.opts.OnMessage != nil {
		e.opts.OnMessage(m)
	}
}

// Generate makes one provider call and appends the reply. Nothing is
// appended when the call fails or ctx is cancelled.
func (e *Exchange) Generate(ctx context.Context) (message.Message, error) {
	logger := logging.FromContext(ctx)
	history := e.opts.Moderator.Rewrite(e.opts.System, e.messages)

	ctx, span := e.tracer.Start(ctx, "exchange.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			tracing.AttrProvider.String(e.opts.Provider.Name()),
			tracing.AttrModel.String(e.opts.Model),
			tracing.AttrMessageCount.Int(len(history)),
		),
	)
	defer span.End()

	reply, usage, err := e.opts.Provider.Complete(ctx, provider.Request{
		Model:       e.opts.Model,
		System:      e.opts.System,
		Messages:    history,
		Tools:       e.opts.Toolkits.Tools(),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tracing.RecordError(span, err)
		logging.LogError(logger, "provider call failed", err, slog.String("model", e.opts.Model))
		return message.Message{}, err
	}

	span.SetAttributes(
		tracing.AttrPromptTokens.Int(usage.PromptTokens),
		tracing.AttrCompletionTokens.Int(usage.CompletionTokens),
	)
	tracing.RecordError(span, nil)

	e.usage = e.usage.Add(usage)
	if e.opts.OnUsage != nil {
		e.opts.OnUsage(usage)
	}
	logger.Debug("provider reply",
		slog.String("model", e.opts.Model),
		slog.Int("sent_messages", len(history)),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
	)

	e.appendMessage(reply)
	return reply, nil
}

// Reply generates until the model answers without tool calls, running every
// requested tool in between. It returns the final assistant message.
func (e *Exchange) Reply(ctx context.Context) (message.Message, error) {
	for round := 0; ; round++ {
		reply, err := e.Generate(ctx)
		if err != nil {
			return message.Message{}, err
		}
		uses := reply.ToolUses()
		if len(uses) == 0 {
			return reply, nil
		}
		if round >= e.opts.MaxToolRounds {
			e.appendMessage(ErrorResults(uses, ErrToolRoundsExceeded.Error()))
			return reply, fmt.Errorf("%w (%d)", ErrToolRoundsExceeded, e.opts.MaxToolRounds)
		}

		results := make([]message.Content, 0, len(uses))
		for _, use := range uses {
			results = append(results, e.runTool(ctx, round, use))
			if err := ctx.Err(); err != nil {
				return message.Message{}, err
			}
		}
		e.appendMessage(message.New(message.RoleUser, results...))
	}
}

func (e *Exchange) runTool(ctx context.Context, round int, use message.ToolUse) message.Content {
	ctx, span := e.tracer.Start(ctx, "tool."+use.Name,
		trace.WithAttributes(
			tracing.AttrToolName.String(use.Name),
			tracing.AttrToolUseID.String(use.ID),
			tracing.AttrToolRound.Int(round),
		),
	)
	defer span.End()

	result := e.opts.Toolkits.Dispatch(ctx, use)
	span.SetAttributes(tracing.AttrToolIsError.Bool(result.IsError))
	if result.IsError {
		tracing.RecordError(span, errors.New(result.Output))
	} else {
		tracing.RecordError(span, nil)
	}

	logging.FromContext(ctx).Debug("tool call",
		slog.String("tool", use.Name),
		slog.String("tool_use_id", use.ID),
		slog.Bool("is_error", result.IsError),
	)
	return result
}

// ErrorResults answers every tool use with the same error so the history
// stays well formed when tools were not run.
func ErrorResults(uses []message.ToolUse, reason string) message.Message {
	results := make([]message.Content, 0, len(uses))
	for _, use := range uses {
		results = append(results, message.ToolResult(use.ID, reason, true))
	}
	return message.New(message.RoleUser, results...)
}
