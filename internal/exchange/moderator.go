package exchange

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gooseworks/goose/internal/message"
)

// Moderator names.
const (
	ModeratorPassive  = "passive"
	ModeratorTruncate = "truncate"
	ModeratorSynopsis = "synopsis"
)

// Moderator decides which part of the history is sent to the model.
type Moderator interface {
	Name() string
	Rewrite(system string, msgs []message.Message) []message.Message
}

// NewModerator builds the named moderator. limit is the context size in
// estimated tokens.
func NewModerator(name string, limit int) (Moderator, error) {
	switch name {
	case ModeratorPassive:
		return Passive{}, nil
	case ModeratorTruncate:
		return &Truncate{Limit: limit, name: ModeratorTruncate}, nil
	case ModeratorSynopsis:
		return &Truncate{Limit: limit, name: ModeratorSynopsis}, nil
	default:
		return nil, fmt.Errorf("unknown moderator %q (available: %s)", name, strings.Join(ModeratorNames(), ", "))
	}
}

// ModeratorNames lists the available moderators.
func ModeratorNames() []string {
	names := []string{ModeratorPassive, ModeratorTruncate, ModeratorSynopsis}
	sort.Strings(names)
	return names
}

// Passive sends the whole history.
type Passive struct{}

// Name implements Moderator.
func (Passive) Name() string { return ModeratorPassive }

// Rewrite implements Moderator.
func (Passive) Rewrite(_ string, msgs []message.Message) []message.Message { return msgs }

// Truncate drops the oldest messages until the history fits Limit. The kept
// history always starts with a user text message and includes the last
// message.
type Truncate struct {
	Limit int
	name  string
}

// Name implements Moderator.
func (t *Truncate) Name() string {
	if t.name == "" {
		return ModeratorTruncate
	}
	return t.name
}

// Rewrite implements Moderator.
func (t *Truncate) Rewrite(system string, msgs []message.Message) []message.Message {
	if t.Limit <= 0 || len(msgs) == 0 {
		return msgs
	}

	total := EstimateText(system)
	sizes := make([]int, len(msgs))
	for i, m := range msgs {
		sizes[i] = EstimateMessage(m)
		total += sizes[i]
	}

	start := 0
	for total > t.Limit && start < len(msgs)-1 {
		total -= sizes[start]
		start++
	}
	if start == 0 {
		return msgs
	}

	for i := start; i < len(msgs); i++ {
		if isUserText(msgs[i]) {
			return msgs[i:]
		}
	}
	for i := start - 1; i >= 0; i-- {
		if isUserText(msgs[i]) {
			return msgs[i:]
		}
	}
	return msgs
}

// isUserText reports whether m can open a conversation: a user message with
// text and no tool results.
func isUserText(m message.Message) bool {
	return m.IsUser() && m.Text() != "" && len(m.ToolResults()) == 0
}

// EstimateText approximates the token count of s at four characters per token.
func EstimateText(s string) int {
	if s == "" {
		return 0
	}
	return len(s)/4 + 1
}

// EstimateMessage approximates the token count of a message.
func EstimateMessage(m message.Message) int {
	n := 4
	for _, c := range m.Content {
		n += EstimateText(c.String())
	}
	return n
}
