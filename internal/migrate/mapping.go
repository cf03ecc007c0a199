package migrate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobhunt-consolidate/internal/domain"
	"jobhunt-consolidate/internal/normalize"
)

// Timestamp layouts seen across the legacy databases.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// parseTime best-efforts a legacy timestamp into RFC3339 UTC.
// Unparseable input degrades to "" (unknown), never an error.
func parseTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

func timeOrNow(s, now string) string {
	if t := parseTime(s); t != "" {
		return t
	}
	return now
}

// parseMoney reads a salary bound, tolerating "$120,000" and "120k".
func parseMoney(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	if strings.HasSuffix(s, "k") {
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	}
	s = strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || r == ' ' {
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q", s)
	}
	return int64(f * float64(mult)), nil
}

// Common legacy spellings of the application lifecycle statuses.
var statusAliases = map[string]string{
	"applied":      "sent",
	"submitted":    "sent",
	"followed_up":  "sent",
	"reply":        "responded",
	"replied":      "responded",
	"response":     "responded",
	"interviewing": "interview",
	"phone_screen": "interview",
	"onsite":       "interview",
	"offered":      "offer",
	"accepted":     "offer",
	"declined":     "rejected",
	"rejection":    "rejected",
	"ghosted":      "rejected",
}

// canonicalStatus folds a legacy status onto the lifecycle lattice.
// Unrecognized values rank as "new" so they can never clobber progress.
func canonicalStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if domain.KnownStatus(s) {
		return s
	}
	if alias, ok := statusAliases[s]; ok {
		return alias
	}
	return "new"
}

func buildCompany(f map[string]string, now string) domain.Company {
	name := f["name"]
	return domain.Company{
		Name:           name,
		NormalizedName: normalize.Company(name),
		Industry:       f["industry"],
		Location:       f["location"],
		Size:           f["size"],
		Notes:          f["notes"],
		NeedsReview:    normalize.Company(name) == "",
		CreatedAt:      timeOrNow(f["created_at"], now),
		UpdatedAt:      timeOrNow(f["updated_at"], now),
	}
}

func buildJob(f map[string]string, source string, now string) (domain.Job, error) {
	j := domain.Job{
		CompanyName:     f["company"],
		Title:           f["title"],
		NormalizedTitle: normalize.Title(f["title"]),
		Location:        f["location"],
		WorkMode:        workMode(f["work_mode"]),
		URL:             f["url"],
		Description:     f["description"],
		Source:          f["source"],
		CreatedAt:       timeOrNow(f["created_at"], now),
		UpdatedAt:       timeOrNow(f["updated_at"], now),
	}
	if j.Source == "" {
		j.Source = source
	}

	var err error
	if j.SalaryMin, err = parseMoney(f["salary_min"]); err != nil {
		return j, fmt.Errorf("salary_min: %w", err)
	}
	if j.SalaryMax, err = parseMoney(f["salary_max"]); err != nil {
		return j, fmt.Errorf("salary_max: %w", err)
	}
	if j.SalaryMin > j.SalaryMax && j.SalaryMax > 0 {
		j.SalaryMin, j.SalaryMax = j.SalaryMax, j.SalaryMin
	}

	if j.Title == "" {
		return j, fmt.Errorf("missing required field title")
	}
	j.NeedsReview = j.NormalizedTitle == "" || normalize.Company(j.CompanyName) == ""
	return j, nil
}

func workMode(mode string) string {
	m := strings.ToLower(strings.TrimSpace(mode))
	switch {
	case strings.Contains(m, "remote"):
		return "remote"
	case strings.Contains(m, "hybrid"):
		return "hybrid"
	case strings.Contains(m, "site"):
		return "onsite"
	case m == "":
		return "unknown"
	default:
		return m
	}
}

func buildApplication(f map[string]string, now string) (domain.Application, string, string, error) {
	company, title := f["company"], f["title"]
	if title == "" {
		return domain.Application{}, "", "", fmt.Errorf("missing required field title")
	}
	a := domain.Application{
		Status:      canonicalStatus(f["status"]),
		AppliedAt:   parseTime(f["applied_at"]),
		RespondedAt: parseTime(f["responded_at"]),
		Notes:       f["notes"],
		CreatedAt:   timeOrNow(f["created_at"], now),
		UpdatedAt:   timeOrNow(f["updated_at"], now),
	}
	return a, company, title, nil
}

func buildContact(f map[string]string, now string) domain.Contact {
	return domain.Contact{
		CompanyName: f["company"],
		FullName:    f["full_name"],
		Email:       normalize.Email(f["email"]),
		Phone:       f["phone"],
		Role:        f["role"],
		LinkedInURL: f["linkedin_url"],
		Notes:       f["notes"],
		CreatedAt:   timeOrNow(f["created_at"], now),
		UpdatedAt:   timeOrNow(f["updated_at"], now),
	}
}

func buildEmail(f map[string]string, now string) (domain.Email, error) {
	dir := strings.ToLower(strings.TrimSpace(f["direction"]))
	switch dir {
	case "sent", "received":
	case "outbound", "out":
		dir = "sent"
	case "inbound", "in":
		dir = "received"
	case "":
		dir = "received"
	default:
		return domain.Email{}, fmt.Errorf("bad direction %q", f["direction"])
	}
	return domain.Email{
		Direction: dir,
		Subject:   f["subject"],
		Body:      f["body"],
		SentAt:    parseTime(f["sent_at"]),
		CreatedAt: now,
	}, nil
}

func buildMetric(f map[string]string) (domain.Metric, error) {
	if f["name"] == "" {
		return domain.Metric{}, fmt.Errorf("missing required field name")
	}
	date := parseTime(f["date"])
	if date == "" {
		return domain.Metric{}, fmt.Errorf("bad or missing date %q", f["date"])
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(f["value"]), 64)
	if err != nil && strings.TrimSpace(f["value"]) != "" {
		return domain.Metric{}, fmt.Errorf("bad value %q", f["value"])
	}
	return domain.Metric{
		Name:     f["name"],
		Category: f["category"],
		Value:    val,
		Date:     date[:10], // YYYY-MM-DD
	}, nil
}

func buildProfile(f map[string]string, now string) domain.Profile {
	return domain.Profile{
		ID:          1,
		FullName:    f["full_name"],
		Email:       normalize.Email(f["email"]),
		Phone:       f["phone"],
		Location:    f["location"],
		LinkedInURL: f["linkedin_url"],
		GitHubURL:   f["github_url"],
		Summary:     f["summary"],
		CreatedAt:   timeOrNow(f["created_at"], now),
		UpdatedAt:   timeOrNow(f["updated_at"], now),
	}
}
