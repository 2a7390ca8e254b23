package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultScenarioIsValid(t *testing.T) {
	sc := Default()
	if err := sc.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}

	timings, err := sc.Timings()
	if err != nil {
		t.Fatalf("Timings() = %v", err)
	}

	if timings.StartupGrace != 2*time.Second {
		t.Fatalf("StartupGrace = %s, want 2s", timings.StartupGrace)
	}
	if timings.SteadyState != 30*time.Second || timings.RecoveryWindow != 30*time.Second {
		t.Fatalf("steady/recovery = %s/%s, want 30s/30s", timings.SteadyState, timings.RecoveryWindow)
	}

	topo := sc.Topology()
	want := "http://localhost:9090,http://localhost:9091"
	if got := topo.Coordinator.EndpointArg(); got != want {
		t.Fatalf("EndpointArg() = %q, want %q", got, want)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")

	sc := Default()
	sc.Name = "three-node-loss"
	sc.Ports = []int{9090, 9091, 9092}
	sc.FaultTarget = 2
	sc.Checks = []Check{{Contains: "recovered"}}

	if err := SaveTo(sc, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Name != "three-node-loss" {
		t.Fatalf("Name = %q, want three-node-loss", loaded.Name)
	}
	if len(loaded.Ports) != 3 || loaded.FaultTarget != 2 {
		t.Fatalf("ports/fault = %v/%d, want 3 ports, fault 2", loaded.Ports, loaded.FaultTarget)
	}
	if len(loaded.Checks) != 1 || loaded.Checks[0].Contains != "recovered" {
		t.Fatalf("Checks = %+v", loaded.Checks)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load of missing file succeeded")
	}

	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not-found message", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte("ports: [9090\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed YAML succeeded")
	}
}

func TestValidateRejectsBadScenarios(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{
			name:    "empty name",
			mutate:  func(sc *Scenario) { sc.Name = "" },
			wantErr: "name cannot be empty",
		},
		{
			name:    "missing binaries",
			mutate:  func(sc *Scenario) { sc.EndorserBin = "" },
			wantErr: "endorser_bin",
		},
		{
			name:    "bad duration",
			mutate:  func(sc *Scenario) { sc.SteadyState = "half an hour" },
			wantErr: "invalid steady_state",
		},
		{
			name:    "negative duration",
			mutate:  func(sc *Scenario) { sc.RecoveryWindow = "-5s" },
			wantErr: "cannot be negative",
		},
		{
			name:    "fault target out of range",
			mutate:  func(sc *Scenario) { sc.FaultTarget = 2 },
			wantErr: "out of range",
		},
		{
			name:    "no ports",
			mutate:  func(sc *Scenario) { sc.Ports = nil },
			wantErr: "at least one endorser",
		},
		{
			name:    "bad check",
			mutate:  func(sc *Scenario) { sc.Checks = []Check{{Matches: "("}} },
			wantErr: "invalid pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := Default()
			tt.mutate(sc)

			err := sc.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParsedDrainTimeoutDefault(t *testing.T) {
	sc := Default()
	sc.DrainTimeout = ""

	d, err := sc.ParsedDrainTimeout()
	if err != nil {
		t.Fatalf("ParsedDrainTimeout: %v", err)
	}

	if d != 10*time.Second {
		t.Fatalf("default drain timeout = %s, want 10s", d)
	}
}
