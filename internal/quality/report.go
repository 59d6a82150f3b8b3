// SPDX-License-Identifier: Apache-2.0

package quality

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the outcome of a scoring run, not of the table being scored.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultPassScore is the score below which callers exit non-zero.
const DefaultPassScore = 60.0

// Check is the single entry every audit contributes to a report.
type Check struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// Report is the result of scoring one requirement/analysis table.
// Score is 100 minus every audit deduction and is not clamped; use
// ClampedScore for display.
type Report struct {
	Status       Status   `json:"status"`
	Score        float64  `json:"score"`
	TotalRows    int      `json:"total_rows"`
	ChecksPassed int      `json:"checks_passed"`
	ChecksFailed int      `json:"checks_failed"`
	Warnings     []string `json:"warnings"`
	Errors       []string `json:"errors"`
	Checks       []Check  `json:"checks"`
}

// ClampedScore returns Score limited to [0, 100].
func (r *Report) ClampedScore() float64 {
	switch {
	case r.Score < 0:
		return 0
	case r.Score > 100:
		return 100
	}
	return r.Score
}

// Passed reports whether the table clears threshold and the run succeeded.
func (r *Report) Passed(threshold float64) bool {
	return r.Status == StatusSuccess && r.Score >= threshold
}

// ToJSON serializes the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String returns a human-readable report.
func (r *Report) String() string {
	var b strings.Builder

	b.WriteString("Quality Report\n")
	b.WriteString("==============\n\n")

	for _, c := range r.Checks {
		label := "PASS"
		if !c.Passed {
			label = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", label, c.Name, c.Details))
	}
	if len(r.Checks) > 0 {
		b.WriteString("\n")
	}

	for _, w := range r.Warnings {
		b.WriteString(fmt.Sprintf("  WARNING: %s\n", w))
	}
	for _, e := range r.Errors {
		b.WriteString(fmt.Sprintf("  ERROR: %s\n", e))
	}

	b.WriteString(fmt.Sprintf("\nRows: %d\n", r.TotalRows))
	b.WriteString(fmt.Sprintf("Checks: %d passed, %d failed\n", r.ChecksPassed, r.ChecksFailed))
	b.WriteString(fmt.Sprintf("Score: %.1f/100\n", r.ClampedScore()))
	b.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
	return b.String()
}
