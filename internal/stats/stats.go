// Package stats tracks message, token and cost statistics for sessions and
// keeps a ledger of completed runs in the logs directory.
package stats

import (
	"fmt"
	"time"
)

// DefaultCostPerToken is the flat rate used when no model price is known.
const DefaultCostPerToken = 0.0001

// SessionStats holds the counters for one run of a session.
type SessionStats struct {
	SessionID        string     `yaml:"session_id"`
	Profile          string     `yaml:"profile,omitempty"`
	Model            string     `yaml:"model,omitempty"`
	StartTime        time.Time  `yaml:"start_time"`
	EndTime          *time.Time `yaml:"end_time,omitempty"`
	TotalMessages    int        `yaml:"total_messages"`
	PromptTokens     int        `yaml:"prompt_tokens"`
	CompletionTokens int        `yaml:"completion_tokens"`
	TotalTokens      int        `yaml:"total_tokens"`
	TotalCost        float64    `yaml:"total_cost"`

	costPerToken float64
}

// New starts statistics for sessionID at the current time.
func New(sessionID string) *SessionStats {
	return &SessionStats{
		SessionID:    sessionID,
		StartTime:    time.Now(),
		costPerToken: DefaultCostPerToken,
	}
}

// SetCostPerToken overrides the flat rate used by AddTokens.
func (s *SessionStats) SetCostPerToken(rate float64) {
	s.costPerToken = rate
}

func (s *SessionStats) rate() float64 {
	if s.costPerToken > 0 {
		return s.costPerToken
	}
	return DefaultCostPerToken
}

// Duration is the time from start to end, or to now while still running.
// It is never negative.
func (s *SessionStats) Duration() time.Duration {
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	d := end.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Complete marks the run as finished.
func (s *SessionStats) Complete() {
	now := time.Now()
	s.EndTime = &now
}

// AddMessage counts one message.
func (s *SessionStats) AddMessage() {
	s.TotalMessages++
}

// AddTokens counts tokens at the flat rate.
func (s *SessionStats) AddTokens(tokens int) {
	if tokens <= 0 {
		return
	}
	s.TotalTokens += tokens
	s.TotalCost += float64(tokens) * s.rate()
}

// AddUsage counts prompt and completion tokens, priced by model when known.
func (s *SessionStats) AddUsage(prompt, completion int) {
	if prompt < 0 {
		prompt = 0
	}
	if completion < 0 {
		completion = 0
	}
	s.PromptTokens += prompt
	s.CompletionTokens += completion
	s.TotalTokens += prompt + completion
	s.TotalCost += Cost(s.Model, prompt, completion, s.rate())
}

// Summary renders the statistics for display and logs.
func (s *SessionStats) Summary() string {
	return fmt.Sprintf(
		"Session %s stats:\nDuration: %s\nMessages: %d\nTokens: %d\nEstimated cost: $%.4f",
		s.SessionID,
		s.Duration().Round(time.Millisecond),
		s.TotalMessages,
		s.TotalTokens,
		s.TotalCost,
	)
}

// Tracker collects statistics for several runs.
type Tracker struct {
	stats []SessionStats
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track records a run.
func (t *Tracker) Track(stats SessionStats) {
	t.stats = append(t.stats, stats)
}

// Len is the number of recorded runs.
func (t *Tracker) Len() int {
	return len(t.stats)
}

// Get merges every run recorded for sessionID. The merged start time is the
// earliest start and the end time the latest end.
func (t *Tracker) Get(sessionID string) (SessionStats, bool) {
	var merged *SessionStats
	for i := range t.stats {
		s := t.stats[i]
		if s.SessionID != sessionID {
			continue
		}
		if merged == nil {
			copied := s
			merged = &copied
			continue
		}
		if s.StartTime.Before(merged.StartTime) {
			merged.StartTime = s.StartTime
		}
		if s.EndTime != nil && (merged.EndTime == nil || s.EndTime.After(*merged.EndTime)) {
			end := *s.EndTime
			merged.EndTime = &end
		}
		accumulate(merged, s)
	}
	if merged == nil {
		return SessionStats{}, false
	}
	return *merged, true
}

// Total sums every recorded run under the id "total".
func (t *Tracker) Total() SessionStats {
	total := New("total")
	for _, s := range t.stats {
		accumulate(total, s)
	}
	return *total
}

func accumulate(into *SessionStats, s SessionStats) {
	into.TotalMessages += s.TotalMessages
	into.PromptTokens += s.PromptTokens
	into.CompletionTokens += s.CompletionTokens
	into.TotalTokens += s.TotalTokens
	into.TotalCost += s.TotalCost
}
