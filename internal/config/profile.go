package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultProfileName is used when no --profile is given.
const DefaultProfileName = "default"

// ToolkitSpec names a toolkit and the toolkits it depends on. Requires maps
// a requirement key to the name of another toolkit in the same profile.
type ToolkitSpec struct {
	Name     string            `yaml:"name" validate:"required"`
	Requires map[string]string `yaml:"requires,omitempty"`
}

// UnmarshalYAML accepts either a bare toolkit name or a mapping.
func (t *ToolkitSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Name = node.Value
		return nil
	}
	type plain ToolkitSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = ToolkitSpec(p)
	return nil
}

// Profile selects the provider, models, moderator and toolkits for a session.
// An empty Moderator falls back to the configured default.
type Profile struct {
	Provider    string        `yaml:"provider" validate:"required"`
	Processor   string        `yaml:"processor" validate:"required"`
	Accelerator string        `yaml:"accelerator" validate:"required"`
	Moderator   string        `yaml:"moderator,omitempty" validate:"omitempty,oneof=passive truncate synopsis"`
	Toolkits    []ToolkitSpec `yaml:"toolkits" validate:"dive"`
}

// Validate checks required fields and that every requirement points at a
// toolkit present in the profile.
func (p Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return err
	}
	present := make(map[string]bool, len(p.Toolkits))
	for _, tk := range p.Toolkits {
		present[tk.Name] = true
	}
	for _, tk := range p.Toolkits {
		for _, req := range tk.Requires {
			if !present[req] {
				return fmt.Errorf("Toolkit %s requires %s but it is not present", tk.Name, req)
			}
		}
	}
	return nil
}

// ProfileError reports a stored profile that failed validation.
type ProfileError struct {
	Name string
	Err  error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile %s: %v", e.Name, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }

// ToolkitNames lists the toolkit names in profile order.
func (p Profile) ToolkitNames() []string {
	names := make([]string, 0, len(p.Toolkits))
	for _, tk := range p.Toolkits {
		names = append(names, tk.Name)
	}
	return names
}

// ProfileInfo is a one-line description used in session logs.
func (p Profile) ProfileInfo() string {
	return fmt.Sprintf("provider:%s, processor:%s toolkits: %s",
		p.Provider, p.Processor, strings.Join(p.ToolkitNames(), ", "))
}

// DefaultProfile builds the profile written when none exists.
func DefaultProfile(provider, processor, accelerator string) Profile {
	return Profile{
		Provider:    provider,
		Processor:   processor,
		Accelerator: accelerator,
		Moderator:   "synopsis",
		Toolkits: []ToolkitSpec{
			{Name: "synopsis"},
			{Name: "developer"},
		},
	}
}

// ReadProfiles loads profiles.yaml. A missing file is reported with
// os.ErrNotExist so callers can create it.
func ReadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	profiles := map[string]Profile{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return profiles, nil
	}
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		line, column := extractLineColumn(err.Error())
		return nil, &ValidationError{
			FilePath: path,
			Line:     line,
			Column:   column,
			Message:  cleanYAMLError(err.Error()),
		}
	}
	return profiles, nil
}

// WriteProfiles writes profiles.yaml atomically, creating parent directories.
func WriteProfiles(path string, profiles map[string]Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp profiles file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp profiles file: %w", err)
	}
	return nil
}

// EnsureProfile returns the named profile, creating profiles.yaml or adding
// a default profile under that name when needed. Notices go to out.
func EnsureProfile(out io.Writer, paths Paths, cfg *Configuration, name string) (Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	path := paths.Profiles()
	provider, processor, accelerator := cfg.DefaultModelConfiguration()

	profiles, err := ReadProfiles(path)
	if errors.Is(err, os.ErrNotExist) {
		profile := DefaultProfile(provider, processor, accelerator)
		if err := WriteProfiles(path, map[string]Profile{name: profile}); err != nil {
			return Profile{}, err
		}
		fmt.Fprintf(out, "No configuration present, we will create a profile '%s' at: %s\n", name, path)
		fmt.Fprintln(out, "You can add your own profile in this file to further configure goose!")
		return profile, nil
	}
	if err != nil {
		return Profile{}, err
	}

	if profile, ok := profiles[name]; ok {
		if err := profile.Validate(); err != nil {
			return Profile{}, &ProfileError{Name: name, Err: err}
		}
		return profile, nil
	}

	profile := DefaultProfile(provider, processor, accelerator)
	fmt.Fprintf(out, "Your configuration doesn't have a profile named '%s', adding one now\n", name)
	profiles[name] = profile
	if err := WriteProfiles(path, profiles); err != nil {
		return Profile{}, err
	}
	return profile, nil
}
