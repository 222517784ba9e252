package clean

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSession(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestStaleSessions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		keep      int
		wantNames []string
	}{
		"keeps newest three": {keep: 3, wantNames: []string{"d4d4", "e5e5"}},
		"keep all":           {keep: 10, wantNames: nil},
		"keep none":          {keep: 0, wantNames: []string{"a1a1", "b2b2", "c3c3", "d4d4", "e5e5"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			for i, n := range []string{"a1a1", "b2b2", "c3c3", "d4d4", "e5e5"} {
				writeSession(t, dir, n, time.Duration(i)*time.Hour)
			}

			targets, err := StaleSessions(dir, "", tc.keep)
			require.NoError(t, err)

			var names []string
			for _, target := range targets {
				assert.Equal(t, TypeSession, target.Type)
				names = append(names, target.Session)
			}
			assert.Equal(t, tc.wantNames, names)
		})
	}
}

func TestStaleSessions_IncludesLogs(t *testing.T) {
	t.Parallel()

	sessions := t.TempDir()
	logs := t.TempDir()
	writeSession(t, sessions, "new1", 0)
	writeSession(t, sessions, "old1", time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(logs, "old1.log"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(logs, "old1.trace.json"), nil, 0o644))

	targets, err := StaleSessions(sessions, logs, 1)
	require.NoError(t, err)
	require.Len(t, targets, 3)
	assert.Equal(t, TypeSession, targets[0].Type)
	assert.Equal(t, TypeLog, targets[1].Type)
	assert.Equal(t, TypeLog, targets[2].Type)

	results := RemoveFiles(targets)
	for _, r := range results {
		assert.True(t, r.Success, r.Target.Path)
	}
	assert.NoFileExists(t, filepath.Join(sessions, "old1.jsonl"))
	assert.FileExists(t, filepath.Join(sessions, "new1.jsonl"))
	assert.NoFileExists(t, filepath.Join(logs, "old1.log"))
}

func TestStaleSessions_Errors(t *testing.T) {
	t.Parallel()

	_, err := StaleSessions(t.TempDir(), "", -1)
	assert.Error(t, err)

	targets, err := StaleSessions(filepath.Join(t.TempDir(), "missing"), "", 3)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestRemoveFiles_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := writeSession(t, dir, "r2d2", 0)

	results := RemoveFiles([]CleanTarget{
		{Path: filepath.Join(dir, "missing.jsonl"), Type: TypeSession},
		{Path: existing, Type: TypeSession},
	})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, errors.Is(results[0].Error, os.ErrNotExist))
	assert.True(t, results[1].Success)
	assert.NoFileExists(t, existing)
}
