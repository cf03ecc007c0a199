package validate

import "jobhunt-consolidate/internal/report"

// Category weights for the 0-100 health score.
var weights = map[string]int{
	"structural": 30,
	"integrity":  30,
	"counts":     20,
	"spot":       20,
}

// Score computes the weighted health score. A category earns its full
// weight when all its checks pass, half when the worst outcome is a
// warning, and nothing when any check fails. Informational checks carry
// no weight; a category with no scoring checks earns its full weight.
func Score(checks []report.Check) int {
	worst := make(map[string]report.Status)
	for _, c := range checks {
		if c.Status == report.Info {
			continue
		}
		cur, ok := worst[c.Category]
		if !ok || rank(c.Status) > rank(cur) {
			worst[c.Category] = c.Status
		}
	}

	score := 0
	for cat, w := range weights {
		switch worst[cat] {
		case report.Fail:
			// zero
		case report.Warn:
			score += w / 2
		default:
			score += w
		}
	}
	return score
}

func rank(s report.Status) int {
	switch s {
	case report.Fail:
		return 2
	case report.Warn:
		return 1
	default:
		return 0
	}
}

// VerdictFor maps a health score to the run verdict.
func VerdictFor(score int) report.Verdict {
	switch {
	case score >= 90:
		return report.VerdictPass
	case score >= 70:
		return report.VerdictPassWarnings
	default:
		return report.VerdictFail
	}
}
