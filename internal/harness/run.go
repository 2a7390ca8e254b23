package harness

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"syscall"
	"time"

	"github.com/SirZayers/nimble-harness/internal/report"
)

// Timings are the waits between orchestration steps.
type Timings struct {
	// StartupGrace is how long the endorsers get to bind their listen
	// addresses before the coordinator is launched. Best-effort timing,
	// not a readiness guarantee.
	StartupGrace time.Duration

	// SteadyState is how long the system runs undisturbed before the
	// fault is injected.
	SteadyState time.Duration

	// RecoveryWindow is how long the survivors get after the fault
	// before output is drained.
	RecoveryWindow time.Duration
}

// RunSpec is everything one run needs: the binaries, the topology, the
// timing windows, and the optional output checks.
type RunSpec struct {
	Name           string
	EndorserBin    string
	CoordinatorBin string
	Topology       Topology
	Timings        Timings
	DrainTimeout   time.Duration
	Checks         []Check
	Options        Options
}

const coordinatorName = "coordinator"

func endorserName(i int) string {
	return fmt.Sprintf("endorser-%d", i)
}

// Run drives one fault-injection scenario end to end: launch every
// endorser, launch the coordinator against them, let the system settle,
// terminate the fault-target endorser, wait out the recovery window, then
// drain and report the coordinator's output.
//
// Spawn failures abort the run. Signal and drain problems do not; the
// harness is observational, so it completes its remaining steps and
// reports what it saw. All spawned processes are torn down before Run
// returns, whichever way it ends.
func Run(ctx context.Context, spec RunSpec) (*report.Report, error) {
	if err := spec.Topology.Validate(); err != nil {
		return nil, err
	}

	rep := report.New(spec.Name)
	defer rep.Finish()

	h := New(ctx, spec.Options)
	defer h.Shutdown()

	for i, endorser := range spec.Topology.Endorsers {
		name := endorserName(i)

		proc, err := h.Spawn(name, spec.EndorserBin, "-p", strconv.Itoa(endorser.Port))
		if err != nil {
			return rep, err
		}

		rep.Record(report.EventSpawn, name, proc.Invocation())
	}

	if err := wait(ctx, spec.Timings.StartupGrace); err != nil {
		return rep, err
	}

	coord, err := h.Spawn(coordinatorName, spec.CoordinatorBin, "-e", spec.Topology.Coordinator.EndpointArg())
	if err != nil {
		return rep, err
	}
	rep.Record(report.EventSpawn, coordinatorName, coord.Invocation())

	if err := wait(ctx, spec.Timings.SteadyState); err != nil {
		return rep, err
	}

	target := endorserName(spec.Topology.FaultTarget)
	if err := h.Signal(target, syscall.SIGTERM); err != nil {
		log.Printf("fault injection: %v", err)
	}
	rep.Record(report.EventSignal, target, "SIGTERM")

	if err := wait(ctx, spec.Timings.RecoveryWindow); err != nil {
		return rep, err
	}

	lines, complete := coord.DrainStdout(ctx, spec.DrainTimeout)
	rep.Lines = lines
	rep.DrainTimedOut = !complete
	rep.Record(report.EventDrain, coordinatorName, fmt.Sprintf("%d lines", len(lines)))

	rep.Checks = evaluateChecks(spec.Checks, lines)

	return rep, nil
}

// wait blocks for d or until ctx is cancelled. The child processes keep
// running and producing output during the wait.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
