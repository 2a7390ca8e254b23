package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/SirZayers/nimble-harness/internal/harness"
)

// DefaultPath is where Run looks for a scenario when none is given.
const DefaultPath = "scenario.yaml"

// Check mirrors harness.Check with YAML bindings.
type Check struct {
	Contains string `yaml:"contains,omitempty"`
	Matches  string `yaml:"matches,omitempty"`
	JSON     string `yaml:"json,omitempty"`
	Equals   string `yaml:"equals,omitempty"`
}

// Scenario is the externalized run configuration: executable paths, the
// topology, the timing windows, and optional output checks. Durations are
// Go duration strings ("2s", "500ms").
type Scenario struct {
	Name           string `yaml:"name"`
	EndorserBin    string `yaml:"endorser_bin"`
	CoordinatorBin string `yaml:"coordinator_bin"`
	Host           string `yaml:"host"`
	Ports          []int  `yaml:"ports"`
	FaultTarget    int    `yaml:"fault_target"`

	StartupGrace   string `yaml:"startup_grace"`
	SteadyState    string `yaml:"steady_state"`
	RecoveryWindow string `yaml:"recovery_window"`
	DrainTimeout   string `yaml:"drain_timeout"`

	Checks []Check `yaml:"checks,omitempty"`
}

// Default returns the stock two-endorser scenario: endorsers on
// 9090/9091, the first one faulted, 2s grace and 30s steady-state and
// recovery windows.
func Default() *Scenario {
	return &Scenario{
		Name:           "node-loss",
		EndorserBin:    "endorser",
		CoordinatorBin: "coordinator",
		Host:           "localhost",
		Ports:          []int{9090, 9091},
		FaultTarget:    0,
		StartupGrace:   "2s",
		SteadyState:    "30s",
		RecoveryWindow: "30s",
		DrainTimeout:   "10s",
	}
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario file %s not found\nRun 'nimble-harness init' to create one", path)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(bytes, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// Save writes the scenario to the default path.
func Save(sc *Scenario) error {
	return SaveTo(sc, DefaultPath)
}

// SaveTo writes the scenario to the given path.
func SaveTo(sc *Scenario, path string) error {
	bytes, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to serialize scenario: %w", err)
	}

	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	return nil
}

// Validate checks everything that can be checked without spawning.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name cannot be empty")
	}

	if sc.EndorserBin == "" || sc.CoordinatorBin == "" {
		return fmt.Errorf("endorser_bin and coordinator_bin are required")
	}

	if _, err := sc.Timings(); err != nil {
		return err
	}

	if _, err := sc.ParsedDrainTimeout(); err != nil {
		return err
	}

	for _, c := range sc.Checks {
		if err := c.toHarness().Validate(); err != nil {
			return err
		}
	}

	return sc.Topology().Validate()
}

// Topology builds the harness topology from the scenario.
func (sc *Scenario) Topology() harness.Topology {
	host := sc.Host
	if host == "" {
		host = "localhost"
	}

	return harness.NewTopology(host, sc.Ports, sc.FaultTarget)
}

// Timings parses the three timing windows.
func (sc *Scenario) Timings() (harness.Timings, error) {
	grace, err := parseWindow("startup_grace", sc.StartupGrace)
	if err != nil {
		return harness.Timings{}, err
	}

	steady, err := parseWindow("steady_state", sc.SteadyState)
	if err != nil {
		return harness.Timings{}, err
	}

	recovery, err := parseWindow("recovery_window", sc.RecoveryWindow)
	if err != nil {
		return harness.Timings{}, err
	}

	return harness.Timings{
		StartupGrace:   grace,
		SteadyState:    steady,
		RecoveryWindow: recovery,
	}, nil
}

// ParsedDrainTimeout parses the drain deadline, defaulting to 10s.
func (sc *Scenario) ParsedDrainTimeout() (time.Duration, error) {
	if sc.DrainTimeout == "" {
		return 10 * time.Second, nil
	}

	return parseWindow("drain_timeout", sc.DrainTimeout)
}

// HarnessChecks converts the YAML checks into harness checks.
func (sc *Scenario) HarnessChecks() []harness.Check {
	checks := make([]harness.Check, 0, len(sc.Checks))
	for _, c := range sc.Checks {
		checks = append(checks, c.toHarness())
	}

	return checks
}

func (c Check) toHarness() harness.Check {
	return harness.Check{
		Contains: c.Contains,
		Pattern:  c.Matches,
		JSONPath: c.JSON,
		Equals:   c.Equals,
	}
}

func parseWindow(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s cannot be negative", name)
	}

	return d, nil
}
