// Package sessionfile stores session transcripts as JSON Lines, one message per line.
package sessionfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gooseworks/goose/internal/message"
)

const (
	// Suffix is the extension of session files.
	Suffix = ".jsonl"
	// BackupSuffix is appended to session files that could not be parsed.
	BackupSuffix = ".backup"
)

// ErrInvalidName is returned for session names that would leave the sessions directory.
var ErrInvalidName = errors.New("session names cannot contain path separators or '..'")

// ValidateName checks that name maps to a file directly inside the sessions directory.
func ValidateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Entry is a session file found on disk.
type Entry struct {
	Name     string
	Path     string
	Modified time.Time
}

// Path returns the session file path for name inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+Suffix)
}

// IsExisting reports whether path is a session file with content.
func IsExisting(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// IsEmpty reports whether path is a session file without content.
func IsEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() == 0
}

// ReadOrCreate reads the messages in path, creating an empty file when missing.
func ReadOrCreate(path string) ([]message.Message, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking session file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating sessions directory: %w", err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, fmt.Errorf("creating session file: %w", err)
		}
		return []message.Message{}, nil
	}
	return Read(path)
}

// Read parses every non-blank line of path as a message.
// A file that does not parse is renamed with BackupSuffix and an empty
// transcript is returned.
func Read(path string) ([]message.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	messages, err := decode(data)
	if err != nil {
		if backupErr := os.Rename(path, path+BackupSuffix); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted session file: %w", backupErr)
		}
		return []message.Message{}, nil
	}
	return messages, nil
}

func decode(data []byte) ([]message.Message, error) {
	messages := []message.Message{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var msg message.Message
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func encode(messages []message.Message) ([]byte, error) {
	var buf bytes.Buffer
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("marshaling message %s: %w", msg.ID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Write replaces the contents of path with messages using an atomic rename.
func Write(path string, messages []message.Message) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating sessions directory: %w", err)
	}

	data, err := encode(messages)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp session file: %w", err)
	}
	return nil
}

// Append adds messages to the end of path, creating it if needed.
func Append(path string, messages []message.Message) error {
	data, err := encode(messages)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening session file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending to session file: %w", err)
	}
	return nil
}

// List returns the session files in dir. A missing dir yields no entries.
func List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != Suffix {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(de.Name(), Suffix),
			Path:     filepath.Join(dir, de.Name()),
			Modified: info.ModTime(),
		})
	}
	return entries, nil
}

// ListSorted returns the session files in dir, most recently modified first.
func ListSorted(dir string) ([]Entry, error) {
	entries, err := List(dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// Exists reports whether dir holds at least one session file.
func Exists(dir string) bool {
	entries, err := List(dir)
	return err == nil && len(entries) > 0
}

// Latest returns the most recently modified session in dir.
func Latest(dir string) (Entry, bool, error) {
	entries, err := ListSorted(dir)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}
