package toolkit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// editor implements text_editor and remembers prior file contents so edits
// can be undone.
type editor struct {
	mu      sync.Mutex
	history map[string][]editSnapshot
}

type editSnapshot struct {
	content string
	existed bool
}

func newEditor() *editor {
	return &editor{history: map[string][]editSnapshot{}}
}

func (e *editor) run(params map[string]any) Result {
	command, _ := stringParam(params, "command")
	path, ok := stringParam(params, "path")
	if !ok {
		return Error("path is required")
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return Errorf("resolving path: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch command {
	case "view":
		return e.view(path, params)
	case "create":
		return e.create(path, params)
	case "str_replace":
		return e.strReplace(path, params)
	case "insert":
		return e.insert(path, params)
	case "undo_edit":
		return e.undo(path)
	default:
		return Errorf("unknown text_editor command %q", command)
	}
}

func (e *editor) view(path string, params map[string]any) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Errorf("cannot view %s: %v", path, err)
	}
	if info.IsDir() {
		return listDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Errorf("reading %s: %v", path, err)
	}
	lines := splitLines(string(data))

	start, end := 1, len(lines)
	if r, ok := intSliceParam(params, "view_range"); ok {
		if len(r) != 2 {
			return Error("view_range must contain exactly two integers")
		}
		start = r[0]
		if r[1] != -1 {
			end = r[1]
		}
		if start < 1 || start > len(lines) || end < start || end > len(lines) {
			return Errorf("invalid view_range [%d, %d] for file with %d lines", r[0], r[1], len(lines))
		}
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i, lines[i-1])
	}
	return Success(b.String())
}

func listDir(path string) Result {
	entries, err := os.ReadDir(path)
	if err != nil {
		return Errorf("listing %s: %v", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return Success(strings.Join(names, "\n"))
}

func (e *editor) create(path string, params map[string]any) Result {
	text, ok := params["file_text"].(string)
	if !ok {
		return Error("file_text is required for create")
	}
	if err := e.snapshot(path); err != nil {
		return Errorf("reading %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Errorf("creating directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return Errorf("writing %s: %v", path, err)
	}
	return Success(fmt.Sprintf("File created at %s", path))
}

func (e *editor) strReplace(path string, params map[string]any) Result {
	oldStr, ok := params["old_str"].(string)
	if !ok || oldStr == "" {
		return Error("old_str is required for str_replace")
	}
	newStr, _ := params["new_str"].(string)

	data, err := os.ReadFile(path)
	if err != nil {
		return Errorf("reading %s: %v", path, err)
	}
	content := string(data)
	switch n := strings.Count(content, oldStr); n {
	case 0:
		return Errorf("old_str not found in %s", path)
	case 1:
	default:
		return Errorf("old_str appears %d times in %s; it must be unique", n, path)
	}

	e.push(path, content, true)
	if err := os.WriteFile(path, []byte(strings.Replace(content, oldStr, newStr, 1)), 0o644); err != nil {
		return Errorf("writing %s: %v", path, err)
	}
	return Success(fmt.Sprintf("Replaced text in %s", path))
}

func (e *editor) insert(path string, params map[string]any) Result {
	line, ok := intParam(params, "insert_line")
	if !ok {
		return Error("insert_line is required for insert")
	}
	newStr, ok := params["new_str"].(string)
	if !ok {
		return Error("new_str is required for insert")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Errorf("reading %s: %v", path, err)
	}
	content := string(data)
	lines := splitLines(content)
	if line < 0 || line > len(lines) {
		return Errorf("insert_line %d is out of range for file with %d lines", line, len(lines))
	}

	inserted := append([]string{}, lines[:line]...)
	inserted = append(inserted, splitLines(newStr)...)
	inserted = append(inserted, lines[line:]...)

	e.push(path, content, true)
	if err := os.WriteFile(path, []byte(strings.Join(inserted, "\n")+"\n"), 0o644); err != nil {
		return Errorf("writing %s: %v", path, err)
	}
	return Success(fmt.Sprintf("Inserted text after line %d of %s", line, path))
}

func (e *editor) undo(path string) Result {
	snaps := e.history[path]
	if len(snaps) == 0 {
		return Errorf("no edit history for %s", path)
	}
	last := snaps[len(snaps)-1]
	e.history[path] = snaps[:len(snaps)-1]

	if !last.existed {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return Errorf("removing %s: %v", path, err)
		}
		return Success(fmt.Sprintf("Removed %s created by the last edit", path))
	}
	if err := os.WriteFile(path, []byte(last.content), 0o644); err != nil {
		return Errorf("restoring %s: %v", path, err)
	}
	return Success(fmt.Sprintf("Restored previous content of %s", path))
}

// snapshot records the current state of path, including its absence.
func (e *editor) snapshot(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		e.push(path, "", false)
		return nil
	}
	if err != nil {
		return err
	}
	e.push(path, string(data), true)
	return nil
}

func (e *editor) push(path, content string, existed bool) {
	e.history[path] = append(e.history[path], editSnapshot{content: content, existed: existed})
}

// splitLines splits on newlines, ignoring a single trailing newline.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
