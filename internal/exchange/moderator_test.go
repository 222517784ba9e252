package exchange

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gooseworks/goose/internal/message"
)

func TestNewModerator(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"passive", "truncate", "synopsis"} {
		m, err := NewModerator(name, 1000)
		require.NoError(t, err)
		assert.Equal(t, name, m.Name())
	}

	_, err := NewModerator("summarize", 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: passive, synopsis, truncate")
}

func TestPassive(t *testing.T) {
	t.Parallel()

	msgs := []message.Message{message.User(strings.Repeat("x", 10000))}
	assert.Equal(t, msgs, Passive{}.Rewrite("", msgs))
}

func TestTruncate_Rewrite(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 400) // ~101 tokens

	tests := map[string]struct {
		limit     int
		msgs      []message.Message
		wantFirst string
		wantLen   int
	}{
		"fits": {
			limit:   10000,
			msgs:    []message.Message{message.User("a"), message.Assistant("b"), message.User("c")},
			wantLen: 3, wantFirst: "a",
		},
		"drops oldest turns": {
			limit: 250,
			msgs: []message.Message{
				message.User(big), message.Assistant(big),
				message.User("recent"), message.Assistant(big),
				message.User("last"),
			},
			wantLen: 3, wantFirst: "recent",
		},
		"skips leading assistant and tool results": {
			limit: 150,
			msgs: []message.Message{
				message.User(big),
				toolCall("call_1", big),
				message.New(message.RoleUser, message.ToolResult("call_1", "ok", false)),
				message.User("last"),
			},
			wantLen: 1, wantFirst: "last",
		},
		"keeps last message even when too big": {
			limit: 10,
			msgs: []message.Message{
				message.User("a"), message.Assistant("b"), message.User(big),
			},
			wantLen: 1, wantFirst: big,
		},
		"walks back to a user text message": {
			limit: 150,
			msgs: []message.Message{
				message.User(big),
				toolCall("call_1", big),
				message.New(message.RoleUser, message.ToolResult("call_1", big, false)),
			},
			wantLen: 3, wantFirst: big,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := (&Truncate{Limit: tc.limit}).Rewrite("", tc.msgs)
			require.Len(t, got, tc.wantLen)
			assert.Equal(t, tc.wantFirst, got[0].Text())
			assert.Equal(t, tc.msgs[len(tc.msgs)-1].ID, got[len(got)-1].ID)
		})
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, EstimateText(""))
	assert.Equal(t, 3, EstimateText("12345678"))
	assert.Equal(t, 4+3, EstimateMessage(message.User("12345678")))
}
