package harness

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
)

// State is a process's liveness as seen by the harness.
type State string

const (
	Running    State = "running"
	Terminated State = "terminated"
)

// Process is one spawned child with captured output. Owned exclusively by
// the Harness that spawned it.
type Process struct {
	Name string

	cmd  *exec.Cmd
	argv []string

	mu     sync.Mutex
	stdout []string
	stderr []string

	stdoutClosed chan struct{}

	waitOnce sync.Once
	waitDone chan struct{}
	waitErr  error
}

// spawn launches bin with args in its own process group and starts the
// output pumps. The returned error wraps the underlying OS error.
func spawn(ctx context.Context, name, bin string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: stdout pipe: %w", name, err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("spawn %s: stderr pipe: %w", name, err)
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}

	// Drop the parent's write ends so the pumps see EOF when the child exits.
	stdoutW.Close()
	stderrW.Close()

	p := &Process{
		Name:         name,
		cmd:          cmd,
		argv:         append([]string{bin}, args...),
		stdoutClosed: make(chan struct{}),
		waitDone:     make(chan struct{}),
	}

	go p.pump(stdoutR, &p.stdout, p.stdoutClosed)
	go p.pump(stderrR, &p.stderr, nil)

	return p, nil
}

// pump copies one output stream into the in-memory line buffer so unread
// output never blocks the child. Read errors count as end-of-stream; lines
// already read stay available.
func (p *Process) pump(r *os.File, buf *[]string, closed chan struct{}) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		p.mu.Lock()
		*buf = append(*buf, scanner.Text())
		p.mu.Unlock()
	}

	r.Close()

	if closed != nil {
		close(closed)
	}
}

// Pid returns the OS process identifier.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Invocation returns the exact command line the process was launched with.
func (p *Process) Invocation() string {
	return strings.Join(p.argv, " ")
}

// Stdout returns a snapshot of the stdout lines captured so far.
func (p *Process) Stdout() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.stdout))
	copy(out, p.stdout)
	return out
}

// Stderr returns a snapshot of the stderr lines captured so far.
func (p *Process) Stderr() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.stderr))
	copy(out, p.stderr)
	return out
}

// DrainStdout waits for the stdout stream to close, bounded by timeout,
// then returns everything captured. complete is false if the wait ended
// with the process still holding its stream open; the partial lines are
// returned either way.
func (p *Process) DrainStdout(ctx context.Context, timeout time.Duration) (lines []string, complete bool) {
	select {
	case <-p.stdoutClosed:
		complete = true
	case <-ctx.Done():
	case <-time.After(timeout):
	}

	return p.Stdout(), complete
}

// Alive probes the OS for the child pid.
func (p *Process) Alive() bool {
	if p.cmd.Process == nil {
		return false
	}

	select {
	case <-p.waitDone:
		return false
	default:
	}

	exists, err := gops.PidExists(int32(p.cmd.Process.Pid))
	return err == nil && exists
}

// LivenessState reports the process's state as the harness sees it.
func (p *Process) LivenessState() State {
	if p.Alive() {
		return Running
	}

	return Terminated
}

// signalGroup delivers sig to the child's process group. Signaling an
// already-dead process is a no-op, not an error.
func (p *Process) signalGroup(sig syscall.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}

	err := syscall.Kill(-p.cmd.Process.Pid, sig)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}

	return fmt.Errorf("signal %s: %w", p.Name, err)
}

// reap waits for the child exactly once; later callers share the result.
func (p *Process) reap() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.waitDone)
	})

	<-p.waitDone
	return p.waitErr
}
