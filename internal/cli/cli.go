package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	commands "github.com/urfave/cli/v3"

	"github.com/SirZayers/nimble-harness/internal/config"
	"github.com/SirZayers/nimble-harness/internal/harness"
)

// RunScenario executes one fault-injection run: scenario from the given
// file (or built-in defaults), flags override file values.
func RunScenario(ctx context.Context, cmd *commands.Command) error {
	var sc *config.Scenario

	args := cmd.Args().Slice()
	switch {
	case len(args) > 1:
		return fmt.Errorf("Too many arguments\nUsage: nimble-harness run [scenario.yaml]")
	case len(args) == 1:
		loaded, err := config.Load(args[0])
		if err != nil {
			return err
		}
		sc = loaded
	default:
		if _, err := os.Stat(config.DefaultPath); err == nil {
			loaded, err := config.Load(config.DefaultPath)
			if err != nil {
				return err
			}
			sc = loaded
		} else {
			sc = config.Default()
		}
	}

	if err := applyOverrides(sc, cmd); err != nil {
		return err
	}

	if err := sc.Validate(); err != nil {
		return err
	}

	timings, err := sc.Timings()
	if err != nil {
		return err
	}

	drainTimeout, err := sc.ParsedDrainTimeout()
	if err != nil {
		return err
	}

	spec := harness.RunSpec{
		Name:           sc.Name,
		EndorserBin:    sc.EndorserBin,
		CoordinatorBin: sc.CoordinatorBin,
		Topology:       sc.Topology(),
		Timings:        timings,
		DrainTimeout:   drainTimeout,
		Checks:         sc.HarnessChecks(),
		Options: harness.Options{
			Verbose: cmd.Bool("verbose"),
		},
	}

	rep, err := harness.Run(ctx, spec)
	if rep != nil {
		if cmd.Bool("json") {
			rep.WriteJSON(os.Stdout)
		} else {
			rep.WriteText(os.Stdout)
		}

		if cmd.Bool("summary") {
			fmt.Println()
			rep.WriteSummary(os.Stdout)
		}
	}
	if err != nil {
		return err
	}

	if !rep.ChecksPassed() {
		return fmt.Errorf("one or more output checks failed")
	}

	return nil
}

// applyOverrides copies explicitly-set flags over the scenario values.
func applyOverrides(sc *config.Scenario, cmd *commands.Command) error {
	if cmd.IsSet("endorser-bin") {
		sc.EndorserBin = cmd.String("endorser-bin")
	}

	if cmd.IsSet("coordinator-bin") {
		sc.CoordinatorBin = cmd.String("coordinator-bin")
	}

	if cmd.IsSet("ports") {
		ports, err := parsePorts(cmd.String("ports"))
		if err != nil {
			return err
		}
		sc.Ports = ports
	}

	if cmd.IsSet("fault-target") {
		sc.FaultTarget = int(cmd.Int("fault-target"))
	}

	if cmd.IsSet("grace") {
		sc.StartupGrace = cmd.Duration("grace").String()
	}

	if cmd.IsSet("steady") {
		sc.SteadyState = cmd.Duration("steady").String()
	}

	if cmd.IsSet("recovery") {
		sc.RecoveryWindow = cmd.Duration("recovery").String()
	}

	if cmd.IsSet("drain-timeout") {
		sc.DrainTimeout = cmd.Duration("drain-timeout").String()
	}

	return nil
}

func parsePorts(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ports := make([]int, 0, len(parts))

	for _, part := range parts {
		port, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid port %q in --ports", part)
		}

		ports = append(ports, port)
	}

	return ports, nil
}

// InitScenario writes a starter scenario file.
func InitScenario(ctx context.Context, cmd *commands.Command) error {
	targetPath := config.DefaultPath
	if args := cmd.Args().Slice(); len(args) > 0 {
		targetPath = args[0]
	}

	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("%s already exists", targetPath)
	}

	if dir := filepath.Dir(targetPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("Failed to create directory %s: %w", dir, err)
		}
	}

	if err := config.SaveTo(config.Default(), targetPath); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", targetPath)
	fmt.Println("  endorser_bin/coordinator_bin - paths to the binaries under test")
	fmt.Println("  ports                        - one endorser per port")
	fmt.Println("  fault_target                 - index of the endorser to terminate")
	fmt.Println()
	fmt.Printf("Edit it, then run 'nimble-harness run %s'.\n", targetPath)

	return nil
}

// ListScenarios renders every scenario file in a directory as a table.
func ListScenarios(ctx context.Context, cmd *commands.Command) error {
	dir := "."
	if args := cmd.Args().Slice(); len(args) > 0 {
		dir = args[0]
	}

	patterns := []string{"*.yaml", "*.yml"}
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		paths = append(paths, matches...)
	}

	if len(paths) == 0 {
		fmt.Printf("No scenario files in %s\n", dir)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("File", "Scenario", "Endorsers", "Fault Target", "Steady State")

	count := 0
	for _, path := range paths {
		sc, err := config.Load(path)
		if err != nil {
			continue
		}

		table.Append(
			filepath.Base(path),
			sc.Name,
			len(sc.Ports),
			sc.FaultTarget,
			sc.SteadyState,
		)
		count++
	}

	if count == 0 {
		fmt.Printf("No valid scenario files in %s\n", dir)
		return nil
	}

	return table.Render()
}
