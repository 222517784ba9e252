package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    string
		wantErr string
	}{
		"kickoff only": {
			input: "kickoff_message: Build the parser\n",
			want:  "Build the parser",
		},
		"kickoff with tasks": {
			input: "kickoff_message: Ship it\ntasks:\n  - write tests\n  - fix bugs\n",
			want:  "Ship it\n\nHere is the plan we will follow:\n1. write tests\n2. fix bugs",
		},
		"missing kickoff": {
			input:   "tasks:\n  - a\n",
			wantErr: "validating plan",
		},
		"empty task": {
			input:   "kickoff_message: x\ntasks:\n  - \"\"\n",
			wantErr: "validating plan",
		},
		"unknown key": {
			input:   "kickoff_message: x\ngoal: y\n",
			wantErr: "parsing plan",
		},
		"bad yaml": {
			input:   "kickoff_message: [unclosed\n",
			wantErr: "parsing plan",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			plan, err := ParsePlan([]byte(tc.input))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			msg := plan.Message()
			assert.True(t, msg.IsUser())
			assert.Equal(t, tc.want, msg.Text())
		})
	}
}

func TestLoadPlan(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kickoff_message: hello\n"), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", plan.KickoffMessage)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
