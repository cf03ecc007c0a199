package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompany(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Acme Inc.", "acme"},
		{"ACME, INC.", "acme"},
		{"acme", "acme"},
		{"Initech LLC", "initech"},
		{"Globex  Corporation", "globex"},
		{"Hooli, Ltd", "hooli"},
		{"Stark Industries", "stark industries"},
		{"Café Niño GmbH", "cafe nino"},
		{"Wayne Enterprises, Inc", "wayne enterprises"},
		{"Co", "co"},       // suffix-only names survive
		{"Inc Inc", "inc"}, // never stripped to empty
		{"", ""},
		{"   ", ""},
		{" \t", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Company(c.raw), "raw=%q", c.raw)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "ml engineer", Title("ML Engineer"))
	assert.Equal(t, "ml engineer", Title("  ml   engineer "))
	assert.Equal(t, "senior sre platform", Title("Senior SRE / Platform"))
	assert.Equal(t, "", Title("   "))
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"Acme Inc.", "ACME, INC.", "Café Niño GmbH", "ml engineer",
		"Sr. Engineer (L5)", "", "  ", "Wayne Enterprises, Inc",
	}
	for _, raw := range inputs {
		once := Company(raw)
		assert.Equal(t, once, Company(once), "company raw=%q", raw)

		once = Title(raw)
		assert.Equal(t, once, Title(once), "title raw=%q", raw)
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "jane@acme.com", Email("  Jane@Acme.COM "))
	assert.Equal(t, "", Email(""))
}
