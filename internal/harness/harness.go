package harness

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/SirZayers/nimble-harness/pkg/threadsafe"
)

var red = color.New(color.FgRed).SprintFunc()

// Options configures a Harness.
type Options struct {
	// ShutdownTimeout is how long Stop waits for a graceful exit before
	// escalating to SIGKILL.
	ShutdownTimeout time.Duration

	// Verbose logs each invocation string before spawning.
	Verbose bool
}

// DefaultOptions returns the default harness options.
func DefaultOptions() Options {
	return Options{
		ShutdownTimeout: 10 * time.Second,
		Verbose:         false,
	}
}

// Harness owns every process it spawns and guarantees they are signaled
// and reaped on shutdown, whichever way the run ends.
type Harness struct {
	processes *threadsafe.Map[string, *Process]
	opts      Options

	mu    sync.Mutex
	order []string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Harness whose children are torn down when ctx is cancelled
// or Shutdown is called.
func New(ctx context.Context, opts Options) *Harness {
	hctx, cancel := context.WithCancel(ctx)

	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = DefaultOptions().ShutdownTimeout
	}

	return &Harness{
		processes: threadsafe.NewMap[string, *Process](),
		opts:      opts,
		ctx:       hctx,
		cancel:    cancel,
	}
}

// Spawn launches bin with args under the given name and records the handle.
// A spawn failure is fatal to the run; the caller decides what to do with
// processes already running.
func (h *Harness) Spawn(name, bin string, args ...string) (*Process, error) {
	select {
	case <-h.ctx.Done():
		return nil, h.ctx.Err()
	default:
	}

	if _, exists := h.processes.Get(name); exists {
		return nil, fmt.Errorf("spawn %s: name already in use", name)
	}

	if h.opts.Verbose {
		log.Printf("Executing: %s", strings.Join(append([]string{bin}, args...), " "))
	}

	proc, err := spawn(h.ctx, name, bin, args...)
	if err != nil {
		return nil, err
	}

	h.processes.Set(name, proc)

	h.mu.Lock()
	h.order = append(h.order, name)
	h.mu.Unlock()

	return proc, nil
}

// Get retrieves a process by name.
func (h *Harness) Get(name string) (*Process, bool) {
	return h.processes.Get(name)
}

// Signal delivers sig to the named process group without waiting for it
// to exit. Signaling an already-dead process is a no-op.
func (h *Harness) Signal(name string, sig syscall.Signal) error {
	proc, exists := h.processes.Get(name)
	if !exists {
		return fmt.Errorf("process %q not found", name)
	}

	return proc.signalGroup(sig)
}

// Stop sends SIGTERM to the named process group, then SIGKILL after the
// shutdown timeout. Stopping an already-dead process is a no-op.
func (h *Harness) Stop(name string) error {
	proc, exists := h.processes.Get(name)
	if !exists {
		return fmt.Errorf("process %q not found", name)
	}

	if err := proc.signalGroup(syscall.SIGTERM); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		proc.reap()
		close(done)
	}()

	select {
	case <-done:
		// Process exited gracefully
	case <-time.After(h.opts.ShutdownTimeout):
		fmt.Printf("%s not responding to SIGTERM, force killing...\n", name)
		proc.signalGroup(syscall.SIGKILL)
		<-done
	}

	return nil
}

// Kill sends SIGKILL to the named process group and reaps it.
func (h *Harness) Kill(name string) error {
	proc, exists := h.processes.Get(name)
	if !exists {
		return fmt.Errorf("process %q not found", name)
	}

	if err := proc.signalGroup(syscall.SIGKILL); err != nil {
		return err
	}

	proc.reap()
	return nil
}

// Shutdown stops every process still alive, in reverse spawn order so the
// coordinator goes down before the endorsers it is connected to. Safe to
// call more than once.
func (h *Harness) Shutdown() {
	h.cancel()

	h.mu.Lock()
	names := make([]string, len(h.order))
	copy(names, h.order)
	h.mu.Unlock()

	for i := len(names) - 1; i >= 0; i-- {
		if err := h.Stop(names[i]); err != nil {
			fmt.Println(red("Error stopping"), red(names[i]))
		}
	}
}
