package toolkit

import (
	"context"
	"net/http"
	"time"

	"github.com/gooseworks/goose/internal/message"
)

// Names of the built-in toolkits.
const (
	DeveloperName = "developer"
	SynopsisName  = "synopsis"
)

// Developer provides the shell, editor, web and process tools.
type Developer struct {
	editor *editor
	procs  *processManager
	client *http.Client

	// TempDir receives fetched web content. Empty means os.TempDir().
	TempDir string
}

// NewDeveloper creates a developer toolkit.
func NewDeveloper() *Developer {
	return &Developer{
		editor: newEditor(),
		procs:  newProcessManager(),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Toolkit.
func (d *Developer) Name() string { return DeveloperName }

// System implements Toolkit.
func (d *Developer) System() string {
	return "You can run shell commands, view and edit files, fetch web pages and manage " +
		"background processes. Prefer small, verifiable steps and check the output of " +
		"each command before moving on."
}

// Tools implements Toolkit.
func (d *Developer) Tools() []Tool {
	return []Tool{
		{
			Name: "bash",
			Description: "Run commands in a bash shell. Perform bash-related operations in a specific order: " +
				"1. Change the working directory (if provided) " +
				"2. Source a file (if provided) " +
				"3. Run a shell command (if provided) " +
				"At least one of the parameters must be provided.",
			Parameters: schema(map[string]any{
				"working_dir": prop("string", "The directory to change to."),
				"source_path": prop("string", "The file to source before running the command."),
				"command":     prop("string", "The bash shell command to run."),
			}),
		},
		{
			Name:        "text_editor",
			Description: "Perform text editing operations on files. The `command` parameter specifies the operation to perform.",
			Parameters: schema(map[string]any{
				"command": enumProp("The commands to run.\nAllowed options are: `view`, `create`, `str_replace`, `insert`, `undo_edit`.",
					"view", "create", "str_replace", "insert", "undo_edit"),
				"path":        prop("string", "Absolute path (or relative path against cwd) to file or directory."),
				"file_text":   prop("string", "Required parameter of `create` command, with the content\nof the file to be created."),
				"old_str":     prop("string", "Required parameter of `str_replace` command containing the\nstring in `path` to replace."),
				"new_str":     prop("string", "Optional parameter of `str_replace` command\ncontaining the new string (if not given, no string will be added).\nRequired parameter of `insert` command containing the string to insert."),
				"insert_line": prop("integer", "Required parameter of `insert` command.\nThe `new_str` will be inserted AFTER the line `insert_line` of `path`."),
				"view_range": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"description": "Optional parameter of `view` command when `path` points to a file.\nIf none is given, the full file is shown.",
				},
			}, "command", "path"),
			Required: []string{"command", "path"},
		},
		{
			Name:        "fetch_web_content",
			Description: "Fetches content from a web page and returns paths to files containing the content.",
			Parameters: schema(map[string]any{
				"url": prop("string", "url of the site to visit."),
			}, "url"),
			Required: []string{"url"},
		},
		{
			Name:        "process_manager",
			Description: "Manage background processes.",
			Parameters: schema(map[string]any{
				"command": enumProp("The command to run.\nAllowed options are: `start`, `list`, `view_output`, `cancel`.",
					"start", "list", "view_output", "cancel"),
				"shell_command": prop("string", "Required parameter for the `start` command, representing\nthe shell command to be executed in the background."),
				"process_id":    prop("integer", "Required parameter for `view_output` and `cancel` commands,\nrepresenting the process ID of the background process to manage."),
			}, "command"),
			Required: []string{"command"},
		},
	}
}

// Process implements Toolkit.
func (d *Developer) Process(ctx context.Context, use message.ToolUse) Result {
	switch use.Name {
	case "bash":
		return runBash(ctx, use.Parameters)
	case "text_editor":
		return d.editor.run(use.Parameters)
	case "fetch_web_content":
		return fetchWebContent(ctx, d.client, d.TempDir, use.Parameters)
	case "process_manager":
		return d.procs.run(use.Parameters)
	default:
		return Errorf("developer toolkit has no tool %s", use.Name)
	}
}

// Close stops any background processes still running.
func (d *Developer) Close() error {
	return d.procs.stopAll()
}
