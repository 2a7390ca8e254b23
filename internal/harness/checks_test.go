package harness

import (
	"testing"
)

func TestCheckValidate(t *testing.T) {
	tests := []struct {
		name    string
		check   Check
		wantErr bool
	}{
		{name: "contains", check: Check{Contains: "ok"}},
		{name: "pattern", check: Check{Pattern: `^ready$`}},
		{name: "json", check: Check{JSONPath: "event", Equals: "replicate"}},
		{name: "empty", check: Check{}, wantErr: true},
		{name: "two kinds set", check: Check{Contains: "ok", Pattern: "ok"}, wantErr: true},
		{name: "bad pattern", check: Check{Pattern: `(`}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluateChecks(t *testing.T) {
	lines := []string{
		"coordinator starting",
		`{"event":"fault","node":"endorser-0"}`,
		"recovered with 1 endorser",
	}

	tests := []struct {
		name   string
		check  Check
		passed bool
	}{
		{name: "contains hit", check: Check{Contains: "recovered"}, passed: true},
		{name: "contains miss", check: Check{Contains: "panic"}, passed: false},
		{name: "pattern hit", check: Check{Pattern: `recovered with \d+ endorser`}, passed: true},
		{name: "pattern miss", check: Check{Pattern: `^endorser`}, passed: false},
		{name: "json hit", check: Check{JSONPath: "event", Equals: "fault"}, passed: true},
		{name: "json nested miss", check: Check{JSONPath: "node", Equals: "endorser-1"}, passed: false},
		{name: "json skips non-json lines", check: Check{JSONPath: "node", Equals: "endorser-0"}, passed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := evaluateChecks([]Check{tt.check}, lines)
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}

			if results[0].Passed != tt.passed {
				t.Fatalf("Passed = %v, want %v (%s)", results[0].Passed, tt.passed, results[0].Desc)
			}
		})
	}
}

func TestEvaluateChecksAgainstEmptyOutput(t *testing.T) {
	results := evaluateChecks([]Check{{Contains: "anything"}}, nil)
	if results[0].Passed {
		t.Fatal("check passed against empty output")
	}
}
