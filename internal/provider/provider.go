// Package provider talks to language model APIs.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gooseworks/goose/internal/message"
	"github.com/gooseworks/goose/internal/toolkit"
)

// Usage is the token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add sums two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Request is one completion call.
type Request struct {
	Model       string
	System      string
	Messages    []message.Message
	Tools       []toolkit.Tool
	Temperature float64
	MaxTokens   int
}

// Provider completes a conversation with an assistant message.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (message.Message, Usage, error)
}

// Config holds connection settings shared by providers.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type constructor func(Config) (Provider, error)

var registry = map[string]constructor{
	OpenAIName: func(cfg Config) (Provider, error) { return NewOpenAI(cfg) },
}

// Names lists the available providers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownProviderError is returned by New for unregistered names.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q (available: %s)", e.Name, strings.Join(Names(), ", "))
}

// New builds the named provider.
func New(name string, cfg Config) (Provider, error) {
	build, ok := registry[name]
	if !ok {
		return nil, &UnknownProviderError{Name: name}
	}
	return build(cfg)
}
