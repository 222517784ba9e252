package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gooseworks/goose/internal/message"
)

// ErrPlanOnNonEmpty is returned when a plan is given for a session that
// already has messages.
var ErrPlanOnNonEmpty = errors.New("The plan can only be set on an empty session.")

// Plan seeds a new session with a kickoff message and a task list.
type Plan struct {
	KickoffMessage string   `yaml:"kickoff_message" validate:"required"`
	Tasks          []string `yaml:"tasks" validate:"dive,required"`
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan. Unknown keys are rejected.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	plan.KickoffMessage = strings.TrimSpace(plan.KickoffMessage)
	if err := validator.New().Struct(plan); err != nil {
		return nil, fmt.Errorf("validating plan: %w", err)
	}
	return &plan, nil
}

// Message renders the plan as the first user message of a session.
func (p *Plan) Message() message.Message {
	var b strings.Builder
	b.WriteString(p.KickoffMessage)
	if len(p.Tasks) > 0 {
		b.WriteString("\n\nHere is the plan we will follow:\n")
		for i, task := range p.Tasks {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(task))
		}
	}
	return message.User(strings.TrimRight(b.String(), "\n"))
}
