package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Configuration {
	return &Configuration{Provider: "openai", Processor: "gpt-4", Accelerator: "gpt-4o-mini"}
}

func TestProfile_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		profile Profile
		wantErr string
	}{
		"default profile is valid": {
			profile: DefaultProfile("openai", "gpt-4", "gpt-4o-mini"),
		},
		"requirement present": {
			profile: Profile{
				Provider: "openai", Processor: "gpt-4", Accelerator: "gpt-4o-mini", Moderator: "passive",
				Toolkits: []ToolkitSpec{
					{Name: "developer"},
					{Name: "synopsis", Requires: map[string]string{"developer": "developer"}},
				},
			},
		},
		"requirement missing": {
			profile: Profile{
				Provider: "openai", Processor: "gpt-4", Accelerator: "gpt-4o-mini", Moderator: "passive",
				Toolkits: []ToolkitSpec{
					{Name: "synopsis", Requires: map[string]string{"developer": "developer"}},
				},
			},
			wantErr: "Toolkit synopsis requires developer but it is not present",
		},
		"moderator omitted": {
			profile: Profile{Provider: "openai", Processor: "gpt-4", Accelerator: "gpt-4o-mini"},
		},
		"unknown moderator": {
			profile: Profile{Provider: "openai", Processor: "gpt-4", Accelerator: "gpt-4o-mini", Moderator: "aggressive"},
			wantErr: "Moderator",
		},
		"missing provider": {
			profile: Profile{Processor: "gpt-4", Accelerator: "gpt-4o-mini", Moderator: "passive"},
			wantErr: "Provider",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.profile.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestProfile_ProfileInfo(t *testing.T) {
	t.Parallel()

	p := DefaultProfile("openai", "gpt-4o", "gpt-4o-mini")
	assert.Equal(t, "provider:openai, processor:gpt-4o toolkits: synopsis, developer", p.ProfileInfo())
	assert.Equal(t, "synopsis", p.Moderator)
}

func TestReadProfiles_Formats(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`default:
  provider: openai
  processor: gpt-4
  accelerator: gpt-4o-mini
  moderator: truncate
  toolkits:
    - developer
    - name: synopsis
      requires:
        developer: developer
`), 0o644))

	profiles, err := ReadProfiles(path)
	require.NoError(t, err)
	require.Contains(t, profiles, "default")
	p := profiles["default"]
	assert.Equal(t, []string{"developer", "synopsis"}, p.ToolkitNames())
	assert.Equal(t, "developer", p.Toolkits[1].Requires["developer"])
	assert.NoError(t, p.Validate())
}

func TestReadProfiles_SyntaxError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default:\n  provider: [openai\n"), 0o644))

	_, err := ReadProfiles(path)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, path, verr.FilePath)
}

func TestEnsureProfile(t *testing.T) {
	t.Parallel()

	t.Run("creates profiles file", func(t *testing.T) {
		t.Parallel()
		paths := Paths{Root: filepath.Join(t.TempDir(), "goose")}
		var out bytes.Buffer

		profile, err := EnsureProfile(&out, paths, testConfig(), "")
		require.NoError(t, err)
		assert.Equal(t, "openai", profile.Provider)
		assert.Contains(t, out.String(), "No configuration present, we will create a profile 'default' at: "+paths.Profiles())
		assert.Contains(t, out.String(), "You can add your own profile in this file to further configure goose!")

		stored, err := ReadProfiles(paths.Profiles())
		require.NoError(t, err)
		assert.Equal(t, profile, stored["default"])
	})

	t.Run("adds missing profile", func(t *testing.T) {
		t.Parallel()
		paths := Paths{Root: t.TempDir()}
		existing := DefaultProfile("openai", "gpt-4o", "gpt-4o-mini")
		require.NoError(t, WriteProfiles(paths.Profiles(), map[string]Profile{"default": existing}))
		var out bytes.Buffer

		_, err := EnsureProfile(&out, paths, testConfig(), "work")
		require.NoError(t, err)
		assert.Equal(t, "Your configuration doesn't have a profile named 'work', adding one now\n", out.String())

		stored, err := ReadProfiles(paths.Profiles())
		require.NoError(t, err)
		assert.Len(t, stored, 2)
		assert.Equal(t, "gpt-4o", stored["default"].Processor)
		assert.Equal(t, "gpt-4", stored["work"].Processor)
	})

	t.Run("returns stored profile silently", func(t *testing.T) {
		t.Parallel()
		paths := Paths{Root: t.TempDir()}
		existing := DefaultProfile("openai", "gpt-4o", "gpt-4o-mini")
		existing.Moderator = "passive"
		require.NoError(t, WriteProfiles(paths.Profiles(), map[string]Profile{"default": existing}))
		var out bytes.Buffer

		profile, err := EnsureProfile(&out, paths, testConfig(), "default")
		require.NoError(t, err)
		assert.Empty(t, out.String())
		assert.Equal(t, "passive", profile.Moderator)
	})

	t.Run("invalid stored profile", func(t *testing.T) {
		t.Parallel()
		paths := Paths{Root: t.TempDir()}
		bad := DefaultProfile("openai", "gpt-4o", "gpt-4o-mini")
		bad.Toolkits = []ToolkitSpec{{Name: "synopsis", Requires: map[string]string{"dev": "developer"}}}
		require.NoError(t, WriteProfiles(paths.Profiles(), map[string]Profile{"default": bad}))

		_, err := EnsureProfile(&bytes.Buffer{}, paths, testConfig(), "default")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires developer but it is not present")
		var profileErr *ProfileError
		require.ErrorAs(t, err, &profileErr)
		assert.Equal(t, "default", profileErr.Name)
	})
}
