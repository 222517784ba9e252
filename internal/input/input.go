// Package input reads user messages from the terminal.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	keyCtrlC = 3
	keyCtrlD = 4

	clearScreen = "\x1b[2J\x1b[1;1H"
)

// UserInput is one line entered at the prompt.
type UserInput struct {
	Text string
}

// ToExit reports whether the input ends the session.
func (u UserInput) ToExit() bool {
	return strings.TrimSpace(u.Text) == ""
}

// ToContinue reports whether the input should be sent to the model.
func (u UserInput) ToContinue() bool {
	return !u.ToExit()
}

// Handler gets input from and shows output to the user.
type Handler interface {
	GetUserInput() (UserInput, error)
	Display(msg string)
	Clear()
}

// PromptText is the prompt shown before each input line.
func PromptText() string {
	return color.New(color.FgGreen, color.Bold).Sprint("❯") + " "
}

// Prompt is the default Handler. On a terminal it uses a raw-mode line
// editor with history; otherwise it reads lines from the input stream.
type Prompt struct {
	in  io.Reader
	out io.Writer
	fd  int
	tty bool

	reader *bufio.Reader

	mu   sync.Mutex
	keys *keyTracker
	term *term.Terminal
}

// NewPrompt creates a prompt on stdin/stdout.
func NewPrompt() *Prompt {
	return NewFilePrompt(os.Stdin, os.Stdout)
}

// NewFilePrompt creates a prompt reading from in. Raw mode is used when in
// is a terminal.
func NewFilePrompt(in *os.File, out io.Writer) *Prompt {
	fd := int(in.Fd())
	p := &Prompt{in: in, out: out, fd: fd, tty: term.IsTerminal(fd)}
	if !p.tty {
		p.reader = bufio.NewReader(in)
	}
	return p
}

// NewReaderPrompt creates a line-based prompt for non-terminal input.
func NewReaderPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out, fd: -1, reader: bufio.NewReader(in)}
}

// IsTerminal reports whether the prompt uses the line editor.
func (p *Prompt) IsTerminal() bool { return p.tty }

// GetUserInput implements Handler. Ctrl+C and Ctrl+D at the prompt return
// empty input.
func (p *Prompt) GetUserInput() (UserInput, error) {
	if !p.tty {
		return p.readLine()
	}
	return p.readTerminal()
}

func (p *Prompt) readLine() (UserInput, error) {
	fmt.Fprint(p.out, PromptText())
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return UserInput{}, fmt.Errorf("reading input: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
	}
	return UserInput{Text: strings.TrimSpace(line)}, nil
}

func (p *Prompt) readTerminal() (UserInput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := term.MakeRaw(p.fd)
	if err != nil {
		return UserInput{}, fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(p.fd, state)

	if p.term == nil {
		p.keys = &keyTracker{r: p.in}
		p.term = term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{p.keys, p.out}, PromptText())
	}

	line, err := p.term.ReadLine()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return UserInput{}, fmt.Errorf("reading input: %w", err)
		}
		switch p.keys.last {
		case keyCtrlC:
			fmt.Fprint(p.out, "^C\r\n")
		default:
			fmt.Fprint(p.out, "^D\r\n")
		}
		return UserInput{}, nil
	}
	return UserInput{Text: line}, nil
}

// Display implements Handler.
func (p *Prompt) Display(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Clear implements Handler.
func (p *Prompt) Clear() {
	fmt.Fprint(p.out, clearScreen)
}

// keyTracker remembers the last byte read so the prompt can tell Ctrl+C
// from Ctrl+D; the line editor reports both as io.EOF.
type keyTracker struct {
	r    io.Reader
	last byte
}

func (k *keyTracker) Read(b []byte) (int, error) {
	n, err := k.r.Read(b)
	if n > 0 {
		k.last = b[n-1]
	}
	return n, err
}
