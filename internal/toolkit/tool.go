package toolkit

import (
	"fmt"
	"strconv"
)

// Tool describes a function the model may call. Parameters is a JSON schema
// object.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Required    []string       `json:"required,omitempty"`
}

// ValidateParameters reports whether every required parameter is present.
func (t Tool) ValidateParameters(params map[string]any) bool {
	for _, req := range t.Required {
		if _, ok := params[req]; !ok {
			return false
		}
	}
	return true
}

// Result is the outcome of a tool call.
type Result struct {
	Output       string `json:"output"`
	IsError      bool   `json:"is_error"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Success wraps tool output.
func Success(output string) Result {
	return Result{Output: output}
}

// Error reports a failed tool call.
func Error(message string) Result {
	return Result{IsError: true, ErrorMessage: message}
}

// Errorf formats a failed tool call.
func Errorf(format string, args ...any) Result {
	return Error(fmt.Sprintf(format, args...))
}

// Text is what the model sees for this result.
func (r Result) Text() string {
	if r.IsError {
		if r.Output != "" {
			return r.ErrorMessage + "\n" + r.Output
		}
		return r.ErrorMessage
	}
	return r.Output
}

// ToolkitError is returned when a toolkit cannot be built or used.
type ToolkitError struct {
	Message string
	Details string

	// Unknown is set to the toolkit name when the registry has no such toolkit.
	Unknown string
}

func (e *ToolkitError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

// schema builds a JSON schema object for a tool.
func schema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

// stringParam returns a non-empty string parameter.
func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// intParam accepts JSON numbers and numeric strings.
func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func intSliceParam(params map[string]any, key string) ([]int, bool) {
	raw, ok := params[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(raw))
	for i := range raw {
		n, ok := intParam(map[string]any{"v": raw[i]}, "v")
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
