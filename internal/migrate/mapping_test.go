package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := map[string]string{
		"2024-03-05T10:30:00Z":      "2024-03-05T10:30:00Z",
		"2024-03-05 10:30:00":       "2024-03-05T10:30:00Z",
		"2024-03-05T10:30:00":       "2024-03-05T10:30:00Z",
		"2024-03-05":                "2024-03-05T00:00:00Z",
		"03/05/2024":                "2024-03-05T00:00:00Z",
		"2024-03-05T10:30:00+02:00": "2024-03-05T08:30:00Z",
		"  2024-03-05  ":            "2024-03-05T00:00:00Z",
		"":                          "",
		"last tuesday":              "",
		"05-03-2024":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseTime(in), "input %q", in)
	}
}

func TestParseMoney(t *testing.T) {
	for in, want := range map[string]int64{
		"":         0,
		"120000":   120000,
		"$120,000": 120000,
		"120k":     120000,
		"120K":     120000,
		"$ 95,500": 95500,
		"87.5k":    87500,
	} {
		got, err := parseMoney(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"competitive", "100-120k", "$"} {
		_, err := parseMoney(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCanonicalStatus(t *testing.T) {
	for in, want := range map[string]string{
		"sent":         "sent",
		"Applied":      "sent",
		"SUBMITTED":    "sent",
		"replied":      "responded",
		"phone_screen": "interview",
		"onsite":       "interview",
		"accepted":     "offer",
		"ghosted":      "rejected",
		"rejected":     "rejected",
		"":             "new",
		"who knows":    "new",
	} {
		assert.Equal(t, want, canonicalStatus(in), "input %q", in)
	}
}

func TestBuildJob(t *testing.T) {
	now := "2024-06-01T00:00:00Z"

	j, err := buildJob(map[string]string{
		"company":    "Acme Inc.",
		"title":      "ML Engineer",
		"salary_min": "130k",
		"salary_max": "$100,000",
		"work_mode":  "Fully Remote",
	}, "tracker.db", now)
	require.NoError(t, err)
	assert.Equal(t, "ml engineer", j.NormalizedTitle)
	// Reversed bounds get swapped rather than rejected.
	assert.Equal(t, int64(100000), j.SalaryMin)
	assert.Equal(t, int64(130000), j.SalaryMax)
	assert.Equal(t, "remote", j.WorkMode)
	assert.Equal(t, "tracker.db", j.Source)
	assert.False(t, j.NeedsReview)

	_, err = buildJob(map[string]string{"company": "Acme"}, "tracker.db", now)
	assert.Error(t, err, "title is required")

	j, err = buildJob(map[string]string{"title": "Engineer"}, "tracker.db", now)
	require.NoError(t, err)
	assert.True(t, j.NeedsReview, "jobs without a company are flagged, not dropped")
}

func TestBuildMetric(t *testing.T) {
	m, err := buildMetric(map[string]string{
		"name": "applications_sent", "value": "4", "date": "2024-01-07 09:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", m.Date, "metric dates truncate to the day")
	assert.Equal(t, 4.0, m.Value)

	_, err = buildMetric(map[string]string{"value": "4", "date": "2024-01-07"})
	assert.Error(t, err)
	_, err = buildMetric(map[string]string{"name": "x", "date": "someday"})
	assert.Error(t, err)
}

func TestBuildEmailDirection(t *testing.T) {
	for in, want := range map[string]string{
		"sent": "sent", "outbound": "sent", "out": "sent",
		"received": "received", "inbound": "received", "in": "received",
		"": "received",
	} {
		e, err := buildEmail(map[string]string{"direction": in}, "2024-06-01T00:00:00Z")
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, e.Direction, "input %q", in)
	}
	_, err := buildEmail(map[string]string{"direction": "sideways"}, "2024-06-01T00:00:00Z")
	assert.Error(t, err)
}
