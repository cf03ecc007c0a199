// Package report defines the machine-checkable validation report and its
// renderings. Test suites assert on Report values, never on console text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type Status string

const (
	Pass Status = "pass"
	Warn Status = "warn"
	Fail Status = "fail"
	Info Status = "info"
)

type Check struct {
	Name     string `json:"name"`
	Category string `json:"category"` // structural/integrity/counts/spot
	Status   Status `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

type Verdict string

const (
	VerdictPass         Verdict = "PASS"
	VerdictPassWarnings Verdict = "PASS_WITH_WARNINGS"
	VerdictFail         Verdict = "FAIL"
)

type Report struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id,omitempty"`
	Checks      []Check   `json:"checks"`
	HealthScore int       `json:"health_score"`
	Verdict     Verdict   `json:"verdict"`
}

// Failures returns the hard failures that make the target untrustworthy,
// as opposed to warnings which are acceptable drift.
func (r Report) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == Fail {
			out = append(out, c)
		}
	}
	return out
}

func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderText writes the human-readable console summary.
func (r Report) RenderText(w io.Writer) {
	fmt.Fprintf(w, "validation run %s\n", r.Timestamp.Format(time.RFC3339))
	if r.RunID != "" {
		fmt.Fprintf(w, "run id: %s\n", r.RunID)
	}
	for _, c := range r.Checks {
		fmt.Fprintf(w, "  %-4s  %-28s %s\n", marker(c.Status), c.Name, c.Detail)
	}
	fmt.Fprintf(w, "health score: %d/100 (%s)\n", r.HealthScore, r.Verdict)
}

func marker(s Status) string {
	switch s {
	case Pass:
		return "ok"
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "info"
	}
}
