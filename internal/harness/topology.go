package harness

import (
	"fmt"
	"strings"
)

// EndorserSpec is the listen address of one endorser instance.
type EndorserSpec struct {
	Host string
	Port int
}

// Addr returns the endorser's address as the coordinator expects it.
func (e EndorserSpec) Addr() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// CoordinatorSpec holds the ordered endorser addresses the coordinator
// connects to.
type CoordinatorSpec struct {
	Endorsers []string
}

// EndpointArg returns the comma-joined value passed to the coordinator's
// single -e flag.
func (c CoordinatorSpec) EndpointArg() string {
	return strings.Join(c.Endorsers, ",")
}

// Topology is the full test scenario shape: the endorsers to launch, the
// coordinator derived from them, and which endorser gets terminated.
type Topology struct {
	Endorsers   []EndorserSpec
	Coordinator CoordinatorSpec
	FaultTarget int
}

// NewTopology builds a topology from a shared host, one port per endorser,
// and the index of the endorser to fault.
func NewTopology(host string, ports []int, faultTarget int) Topology {
	endorsers := make([]EndorserSpec, 0, len(ports))
	addrs := make([]string, 0, len(ports))

	for _, port := range ports {
		spec := EndorserSpec{Host: host, Port: port}
		endorsers = append(endorsers, spec)
		addrs = append(addrs, spec.Addr())
	}

	return Topology{
		Endorsers:   endorsers,
		Coordinator: CoordinatorSpec{Endorsers: addrs},
		FaultTarget: faultTarget,
	}
}

// Validate fails fast, before anything is spawned.
func (t Topology) Validate() error {
	if len(t.Endorsers) == 0 {
		return fmt.Errorf("topology: at least one endorser is required")
	}

	seen := make(map[int]bool, len(t.Endorsers))
	for _, e := range t.Endorsers {
		if e.Port <= 0 || e.Port > 65535 {
			return fmt.Errorf("topology: invalid port %d", e.Port)
		}

		if seen[e.Port] {
			return fmt.Errorf("topology: duplicate port %d", e.Port)
		}
		seen[e.Port] = true
	}

	if t.FaultTarget < 0 || t.FaultTarget >= len(t.Endorsers) {
		return fmt.Errorf(
			"topology: fault target %d out of range, have %d endorsers",
			t.FaultTarget, len(t.Endorsers),
		)
	}

	return nil
}
