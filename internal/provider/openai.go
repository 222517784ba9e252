package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gooseworks/goose/internal/message"
)

const (
	// OpenAIName is the registry name of the OpenAI provider.
	OpenAIName = "openai"

	// APIKeyEnv holds the OpenAI API key.
	APIKeyEnv = "OPENAI_API_KEY"
	// BaseURLEnv overrides the API endpoint.
	BaseURLEnv = "OPENAI_BASE_URL"

	defaultBaseURL = "https://api.openai.com/v1"
	completionPath = "/chat/completions"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// OpenAI is a chat completions client with tool calling.
type OpenAI struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOpenAI creates the client. The key and endpoint fall back to
// OPENAI_API_KEY and OPENAI_BASE_URL.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(BaseURLEnv))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &OpenAI{apiKey: apiKey, endpoint: completionURL(baseURL), httpClient: client}, nil
}

// completionURL accepts either an API root or a full completions URL.
func completionURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, completionPath) {
		return base
	}
	return base + completionPath
}

// Name implements Provider.
func (c *OpenAI) Name() string { return OpenAIName }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete implements Provider.
func (c *OpenAI) Complete(ctx context.Context, req Request) (message.Message, Usage, error) {
	payload := chatRequest{
		Model:       req.Model,
		Messages:    toChatMessages(req.System, req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, tool := range req.Tools {
		payload.Tools = append(payload.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return message.Message{}, Usage{}, fmt.Errorf("encoding openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return message.Message{}, Usage{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return message.Message{}, Usage{}, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return message.Message{}, Usage{}, fmt.Errorf("reading openai response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return message.Message{}, Usage{}, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
		}
		return message.Message{}, Usage{}, fmt.Errorf("unable to parse openai response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return message.Message{}, Usage{}, fmt.Errorf("openai request failed: %s", parsed.Error.Message)
		}
		return message.Message{}, Usage{}, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return message.Message{}, parsed.Usage, fmt.Errorf("openai returned zero choices")
	}

	reply := fromChatMessage(parsed.Choices[0].Message)
	if len(reply.Content) == 0 {
		return message.Message{}, parsed.Usage, fmt.Errorf("openai returned empty content")
	}
	usage := parsed.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return reply, usage, nil
}

func strPtr(s string) *string { return &s }

// toChatMessages flattens goose messages into the chat format. Tool results
// become separate "tool" messages following the assistant's tool calls.
func toChatMessages(system string, msgs []message.Message) []chatMessage {
	var out []chatMessage
	if system != "" {
		out = append(out, chatMessage{Role: "system", Content: strPtr(system)})
	}

	for _, m := range msgs {
		switch m.Role {
		case message.RoleUser:
			for _, res := range m.ToolResults() {
				out = append(out, chatMessage{Role: "tool", ToolCallID: res.ToolUseID, Content: strPtr(toolOutput(res))})
			}
			if text := m.Text(); text != "" {
				out = append(out, chatMessage{Role: "user", Content: strPtr(text)})
			}
		case message.RoleAssistant:
			cm := chatMessage{Role: "assistant"}
			if text := m.Text(); text != "" {
				cm.Content = strPtr(text)
			}
			for _, use := range m.ToolUses() {
				args, err := json.Marshal(use.Parameters)
				if err != nil || use.Parameters == nil {
					args = []byte("{}")
				}
				cm.ToolCalls = append(cm.ToolCalls, toolCall{
					ID:       use.ID,
					Type:     "function",
					Function: functionCall{Name: use.Name, Arguments: string(args)},
				})
			}
			out = append(out, cm)
		}
	}
	return out
}

func toolOutput(res message.Content) string {
	if res.IsError {
		return "Error: " + res.Output
	}
	return res.Output
}

func fromChatMessage(cm chatMessage) message.Message {
	var content []message.Content
	if cm.Content != nil && strings.TrimSpace(*cm.Content) != "" {
		content = append(content, message.Text(*cm.Content))
	}
	for _, call := range cm.ToolCalls {
		params := map[string]any{}
		if strings.TrimSpace(call.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &params); err != nil {
				params = map[string]any{}
			}
		}
		content = append(content, message.ToolUseContent(call.ID, call.Function.Name, params))
	}
	return message.New(message.RoleAssistant, content...)
}
