package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	commands "github.com/urfave/cli/v3"

	"github.com/SirZayers/nimble-harness/internal/cli"
)

func main() {
	log.SetFlags(0)

	// Interrupting the harness cancels the run context, which tears down
	// every child process before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &commands.Command{
		Name:  "nimble-harness",
		Usage: "Fault-injection harness for an endorser/coordinator log service",
		Commands: []*commands.Command{
			{
				Name:      "run",
				Usage:     "Run a fault-injection scenario",
				ArgsUsage: "[scenario.yaml]",
				Flags: []commands.Flag{
					&commands.StringFlag{
						Name:  "endorser-bin",
						Usage: "Path to the endorser executable",
					},
					&commands.StringFlag{
						Name:  "coordinator-bin",
						Usage: "Path to the coordinator executable",
					},
					&commands.StringFlag{
						Name:  "ports",
						Usage: "Comma-separated endorser listen ports",
					},
					&commands.IntFlag{
						Name:  "fault-target",
						Usage: "Index of the endorser to terminate",
					},
					&commands.DurationFlag{
						Name:  "grace",
						Usage: "Startup grace period before the coordinator launches",
					},
					&commands.DurationFlag{
						Name:  "steady",
						Usage: "Steady-state window before the fault",
					},
					&commands.DurationFlag{
						Name:  "recovery",
						Usage: "Recovery window after the fault",
					},
					&commands.DurationFlag{
						Name:  "drain-timeout",
						Usage: "Deadline for draining coordinator output",
					},
					&commands.BoolFlag{
						Name:  "json",
						Usage: "Emit the run report as JSON",
					},
					&commands.BoolFlag{
						Name:  "summary",
						Usage: "Append an event-trace summary table",
					},
					&commands.BoolFlag{
						Name:    "verbose",
						Usage:   "Log each invocation before spawning",
						Aliases: []string{"v"},
						Value:   false,
					},
				},
				Action: cli.RunScenario,
			},
			{
				Name:      "init",
				Usage:     "Create a starter scenario file",
				ArgsUsage: "[path]",
				Action:    cli.InitScenario,
			},
			{
				Name:      "scenarios",
				Usage:     "List scenario files in a directory",
				ArgsUsage: "[dir]",
				Action:    cli.ListScenarios,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
