package toolkit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// processManager runs shell commands in the background for the
// process_manager tool.
type processManager struct {
	mu     sync.Mutex
	nextID int
	procs  map[int]*backgroundProcess
}

type backgroundProcess struct {
	id      int
	command string
	cmd     *exec.Cmd
	started time.Time

	mu     sync.Mutex
	output bytes.Buffer
	done   chan struct{}
	err    error
}

func (p *backgroundProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output.Write(b)
}

func (p *backgroundProcess) snapshot() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output.String()
}

func (p *backgroundProcess) status() string {
	select {
	case <-p.done:
		if p.err != nil {
			return "exited: " + p.err.Error()
		}
		return "exited"
	default:
		return "running"
	}
}

func newProcessManager() *processManager {
	return &processManager{nextID: 1, procs: map[int]*backgroundProcess{}}
}

func (m *processManager) run(params map[string]any) Result {
	command, _ := stringParam(params, "command")
	switch command {
	case "start":
		shell, ok := stringParam(params, "shell_command")
		if !ok {
			return Error("shell_command is required for start")
		}
		return m.start(shell)
	case "list":
		return m.list()
	case "view_output":
		id, ok := intParam(params, "process_id")
		if !ok {
			return Error("process_id is required for view_output")
		}
		return m.viewOutput(id)
	case "cancel":
		id, ok := intParam(params, "process_id")
		if !ok {
			return Error("process_id is required for cancel")
		}
		return m.cancel(id)
	default:
		return Errorf("unknown process_manager command %q", command)
	}
}

func (m *processManager) start(shell string) Result {
	cmd := exec.Command("bash", "-c", shell)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.mu.Unlock()

	p := &backgroundProcess{id: id, command: shell, cmd: cmd, started: time.Now(), done: make(chan struct{})}
	cmd.Stdout = p
	cmd.Stderr = p

	if err := cmd.Start(); err != nil {
		return Errorf("starting process: %v", err)
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	m.mu.Lock()
	m.procs[id] = p
	m.mu.Unlock()

	return Success(fmt.Sprintf("Started process %d: %s", id, shell))
}

func (m *processManager) get(id int) (*backgroundProcess, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.procs[id]
	return p, ok
}

func (m *processManager) list() Result {
	m.mu.Lock()
	ids := make([]int, 0, len(m.procs))
	for id := range m.procs {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	if len(ids) == 0 {
		return Success("No background processes")
	}
	sort.Ints(ids)

	var lines []string
	for _, id := range ids {
		p, _ := m.get(id)
		lines = append(lines, fmt.Sprintf("%d: %s (%s)", id, p.command, p.status()))
	}
	return Success(strings.Join(lines, "\n"))
}

func (m *processManager) viewOutput(id int) Result {
	p, ok := m.get(id)
	if !ok {
		return Errorf("no process with id %d", id)
	}
	return Success(truncateOutput(p.snapshot(), MaxOutputBytes))
}

func (m *processManager) cancel(id int) Result {
	p, ok := m.get(id)
	if !ok {
		return Errorf("no process with id %d", id)
	}
	if err := terminate(p); err != nil {
		return Errorf("cancelling process %d: %v", id, err)
	}
	m.mu.Lock()
	delete(m.procs, id)
	m.mu.Unlock()
	return Success(fmt.Sprintf("Cancelled process %d", id))
}

// terminate sends SIGTERM to the process group, then SIGKILL after a grace
// period.
func terminate(p *backgroundProcess) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	pgid := -p.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(2 * time.Second):
	}
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	<-p.done
	return nil
}

func (m *processManager) stopAll() error {
	m.mu.Lock()
	procs := make([]*backgroundProcess, 0, len(m.procs))
	for _, p := range m.procs {
		procs = append(procs, p)
	}
	m.procs = map[int]*backgroundProcess{}
	m.mu.Unlock()

	var errs []error
	for _, p := range procs {
		if err := terminate(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
