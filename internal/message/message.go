// Package message defines the conversation model exchanged between the user,
// the model provider and the toolkits.
package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleUser is a message from the user, including tool results.
	RoleUser Role = "user"
	// RoleAssistant is a message from the model, including tool uses.
	RoleAssistant Role = "assistant"
)

// ContentType identifies the kind of a content block.
type ContentType string

const (
	// ContentText is plain text.
	ContentText ContentType = "text"
	// ContentToolUse is a tool invocation requested by the model.
	ContentToolUse ContentType = "tool_use"
	// ContentToolResult is the output of a tool invocation.
	ContentToolResult ContentType = "tool_result"
)

// Content is one block of a message. Only the fields relevant to Type are set.
type Content struct {
	Type ContentType `json:"type"`

	// Text block
	Text string `json:"text,omitempty"`

	// Tool use block
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`

	// Tool result block
	ToolUseID string `json:"tool_use_id,omitempty"`
	Output    string `json:"output,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ToolUse is a tool invocation extracted from a message.
type ToolUse struct {
	ID         string
	Name       string
	Parameters map[string]any
}

// Text creates a text content block.
func Text(text string) Content {
	return Content{Type: ContentText, Text: text}
}

// ToolUseContent creates a tool use content block.
func ToolUseContent(id, name string, parameters map[string]any) Content {
	return Content{Type: ContentToolUse, ID: id, Name: name, Parameters: parameters}
}

// ToolResult creates a tool result content block.
func ToolResult(toolUseID, output string, isError bool) Content {
	return Content{Type: ContentToolResult, ToolUseID: toolUseID, Output: output, IsError: isError}
}

// String renders the block for display.
func (c Content) String() string {
	switch c.Type {
	case ContentText:
		return c.Text
	case ContentToolUse:
		return fmt.Sprintf("Tool use: %s with parameters: %v", c.Name, c.Parameters)
	case ContentToolResult:
		if c.IsError {
			return "Tool error: " + c.Output
		}
		return "Tool result: " + c.Output
	default:
		return ""
	}
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role      `json:"role"`
	ID      string    `json:"id"`
	Created int64     `json:"created"`
	Content []Content `json:"content"`
}

// New creates a message with a fresh id and creation timestamp.
func New(role Role, content ...Content) Message {
	return Message{
		Role:    role,
		ID:      "msg_" + uuid.NewString(),
		Created: time.Now().Unix(),
		Content: content,
	}
}

// User creates a user text message.
func User(text string) Message {
	return New(RoleUser, Text(text))
}

// Assistant creates an assistant text message.
func Assistant(text string) Message {
	return New(RoleAssistant, Text(text))
}

// Text joins every text block with newlines.
func (m Message) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == ContentText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolUses returns the tool invocations in the message.
func (m Message) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			uses = append(uses, ToolUse{ID: c.ID, Name: c.Name, Parameters: c.Parameters})
		}
	}
	return uses
}

// ToolResults returns the tool result blocks in the message.
func (m Message) ToolResults() []Content {
	var results []Content
	for _, c := range m.Content {
		if c.Type == ContentToolResult {
			results = append(results, c)
		}
	}
	return results
}

// IsUser reports whether the user authored the message.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// IsAssistant reports whether the model authored the message.
func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }

// HasToolUse reports whether the message requests any tool invocation.
func (m Message) HasToolUse() bool {
	return m.has(ContentToolUse)
}

func (m Message) has(types ...ContentType) bool {
	for _, c := range m.Content {
		for _, t := range types {
			if c.Type == t {
				return true
			}
		}
	}
	return false
}

// Validate checks the content rules for the message's role.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser:
		if !m.has(ContentText, ContentToolResult) {
			return errors.New("user message must include a Text or ToolResult")
		}
		if m.has(ContentToolUse) {
			return errors.New("user message does not support ToolUse")
		}
	case RoleAssistant:
		if !m.has(ContentText, ContentToolUse) {
			return errors.New("assistant message must include a Text or ToolUse")
		}
		if m.has(ContentToolResult) {
			return errors.New("assistant message does not support ToolResult")
		}
	default:
		return fmt.Errorf("unknown message role %q", m.Role)
	}
	return nil
}

// Summary renders the role and text of the message.
func (m Message) Summary() string {
	return fmt.Sprintf("message:%s\n%s", m.Role, m.Text())
}
