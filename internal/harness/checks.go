package harness

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/SirZayers/nimble-harness/internal/report"
)

// Check is one observational expectation on the drained coordinator output.
// Exactly one of Contains, Pattern, or JSONPath should be set; JSONPath
// checks compare the field at the gjson path against Equals on every line
// that parses as JSON.
type Check struct {
	Contains string
	Pattern  string
	JSONPath string
	Equals   string
}

func (c Check) describe() string {
	switch {
	case c.Contains != "":
		return fmt.Sprintf("output containing %q", c.Contains)
	case c.Pattern != "":
		return fmt.Sprintf("output matching pattern %q", c.Pattern)
	case c.JSONPath != "":
		return fmt.Sprintf("JSON field %s = %q", c.JSONPath, c.Equals)
	default:
		return "empty check"
	}
}

// Validate rejects checks that could never be evaluated.
func (c Check) Validate() error {
	set := 0
	for _, v := range []string{c.Contains, c.Pattern, c.JSONPath} {
		if v != "" {
			set++
		}
	}

	if set != 1 {
		return fmt.Errorf("check: exactly one of contains, matches, json must be set")
	}

	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return fmt.Errorf("check: invalid pattern %q: %w", c.Pattern, err)
		}
	}

	return nil
}

func (c Check) passes(lines []string) bool {
	switch {
	case c.Contains != "":
		for _, line := range lines {
			if strings.Contains(line, c.Contains) {
				return true
			}
		}

	case c.Pattern != "":
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return false
		}

		for _, line := range lines {
			if re.MatchString(line) {
				return true
			}
		}

	case c.JSONPath != "":
		for _, line := range lines {
			if !gjson.Valid(line) {
				continue
			}

			if gjson.Get(line, c.JSONPath).String() == c.Equals {
				return true
			}
		}
	}

	return false
}

// evaluateChecks runs every check against the drained lines. Check failures
// mark the report; they never abort the run.
func evaluateChecks(checks []Check, lines []string) []report.CheckResult {
	results := make([]report.CheckResult, 0, len(checks))

	for _, check := range checks {
		results = append(results, report.CheckResult{
			Desc:   check.describe(),
			Passed: check.passes(lines),
		})
	}

	return results
}
