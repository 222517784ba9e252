package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gooseworks/goose/internal/message"
	"github.com/gooseworks/goose/internal/provider"
	"github.com/gooseworks/goose/internal/toolkit"
)

type scriptedProvider struct {
	replies  []message.Message
	err      error
	requests []provider.Request
	onCall   func(ctx context.Context)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req provider.Request) (message.Message, provider.Usage, error) {
	p.requests = append(p.requests, req)
	if p.onCall != nil {
		p.onCall(ctx)
	}
	if p.err != nil {
		return message.Message{}, provider.Usage{}, p.err
	}
	if len(p.replies) == 0 {
		return message.Assistant("done"), provider.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}, nil
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, provider.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

type echoToolkit struct {
	calls  int
	onCall func()
}

func (e *echoToolkit) Name() string   { return "echo" }
func (e *echoToolkit) System() string { return "" }
func (e *echoToolkit) Tools() []toolkit.Tool {
	return []toolkit.Tool{{Name: "echo", Required: []string{"text"}}}
}
func (e *echoToolkit) Process(_ context.Context, use message.ToolUse) toolkit.Result {
	e.calls++
	if e.onCall != nil {
		e.onCall()
	}
	return toolkit.Success(use.Parameters["text"].(string))
}

func toolCall(id, text string) message.Message {
	return message.New(message.RoleAssistant, message.ToolUseContent(id, "echo", map[string]any{"text": text}))
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestExchange_AddMessageValidates(t *testing.T) {
	t.Parallel()

	ex, err := New(Options{Provider: &scriptedProvider{}})
	require.NoError(t, err)

	require.NoError(t, ex.AddMessage(message.User("hi")))
	err = ex.AddMessage(message.New(message.RoleUser))
	require.Error(t, err)
	assert.Equal(t, 1, ex.Len())
}

func TestExchange_New(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.Error(t, err)

	seed := []message.Message{message.User("a"), message.Assistant("b")}
	ex, err := New(Options{Provider: &scriptedProvider{}, Messages: seed})
	require.NoError(t, err)
	seed[0] = message.User("changed")
	assert.Equal(t, "a", ex.Messages()[0].Text())

	last, ok := ex.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", last.Text())
	assert.Equal(t, 1, ex.Len())
}

func TestExchange_ReplyRunsTools(t *testing.T) {
	t.Parallel()

	prov := &scriptedProvider{replies: []message.Message{
		toolCall("call_1", "first"),
		toolCall("call_2", "second"),
		message.Assistant("all done"),
	}}
	echo := &echoToolkit{}
	rec, tp := newRecorder()

	var appended []message.Message
	var usages []provider.Usage
	ex, err := New(Options{
		Provider:  prov,
		Model:     "gpt-4",
		System:    "sys",
		Toolkits:  toolkit.NewSet(echo),
		OnMessage: func(m message.Message) { appended = append(appended, m) },
		OnUsage:   func(u provider.Usage) { usages = append(usages, u) },
		Tracer:    tp.Tracer("test"),
	})
	require.NoError(t, err)
	require.NoError(t, ex.AddMessage(message.User("go")))

	reply, err := ex.Reply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "all done", reply.Text())
	assert.Equal(t, 2, echo.calls)

	msgs := ex.Messages()
	require.Len(t, msgs, 6)
	results := msgs[2].ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "call_1", results[0].ToolUseID)
	assert.Equal(t, "first", results[0].Output)

	assert.Len(t, appended, 5)
	assert.Len(t, usages, 3)
	assert.Equal(t, 45, ex.Usage().TotalTokens)

	require.Len(t, prov.requests, 3)
	assert.Equal(t, "gpt-4", prov.requests[0].Model)
	assert.Equal(t, "sys", prov.requests[0].System)
	assert.Len(t, prov.requests[0].Tools, 1)
	assert.Len(t, prov.requests[2].Messages, 5)

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"exchange.generate", "tool.echo", "exchange.generate", "tool.echo", "exchange.generate"}, names)
}

func TestExchange_ReplyToolRoundLimit(t *testing.T) {
	t.Parallel()

	prov := &scriptedProvider{replies: []message.Message{
		toolCall("call_1", "a"),
		toolCall("call_2", "b"),
		toolCall("call_3", "c"),
	}}
	ex, err := New(Options{Provider: prov, Toolkits: toolkit.NewSet(&echoToolkit{}), MaxToolRounds: 2})
	require.NoError(t, err)
	require.NoError(t, ex.AddMessage(message.User("loop")))

	_, err = ex.Reply(context.Background())
	require.ErrorIs(t, err, ErrToolRoundsExceeded)

	last, ok := ex.Last()
	require.True(t, ok)
	results := last.ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "call_3", results[0].ToolUseID)
	assert.True(t, results[0].IsError)
}

func TestExchange_GenerateErrorAppendsNothing(t *testing.T) {
	t.Parallel()

	rec, tp := newRecorder()
	ex, err := New(Options{Provider: &scriptedProvider{err: errors.New("boom")}, Tracer: tp.Tracer("test")})
	require.NoError(t, err)
	require.NoError(t, ex.AddMessage(message.User("hi")))

	_, err = ex.Reply(context.Background())
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, ex.Len())

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestExchange_CancelDuringGenerate(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	prov := &scriptedProvider{onCall: func(context.Context) { cancel() }}
	ex, err := New(Options{Provider: prov})
	require.NoError(t, err)
	require.NoError(t, ex.AddMessage(message.User("hi")))

	_, err = ex.Reply(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ex.Len())
}

func TestExchange_CancelDuringTool(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	prov := &scriptedProvider{replies: []message.Message{toolCall("call_1", "x")}}
	echo := &echoToolkit{onCall: cancel}
	ex, err := New(Options{Provider: prov, Toolkits: toolkit.NewSet(echo)})
	require.NoError(t, err)
	require.NoError(t, ex.AddMessage(message.User("hi")))

	_, err = ex.Reply(ctx)
	require.ErrorIs(t, err, context.Canceled)

	last, ok := ex.Last()
	require.True(t, ok)
	assert.True(t, last.HasToolUse())
	assert.Equal(t, 2, ex.Len())
}

func TestErrorResults(t *testing.T) {
	t.Parallel()

	msg := ErrorResults([]message.ToolUse{{ID: "a"}, {ID: "b"}}, "Interrupted by the user")
	assert.True(t, msg.IsUser())
	require.NoError(t, msg.Validate())
	results := msg.ToolResults()
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[1].ToolUseID)
	assert.Equal(t, "Interrupted by the user", results[1].Output)
	assert.True(t, results[1].IsError)
}
