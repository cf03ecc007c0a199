package domain

type Metric struct {
	ID       int64
	Name     string
	Category string
	Value    float64
	Date     string // YYYY-MM-DD
}

type Profile struct {
	ID          int64 // always 1; the table is a singleton
	FullName    string
	Email       string
	Phone       string
	Location    string
	LinkedInURL string
	GitHubURL   string
	Summary     string
	CreatedAt   string
	UpdatedAt   string
}

// Provenance records one absorbed source row for a canonical record.
type Provenance struct {
	ID          int64
	EntityType  string // company/job/application/contact/email/metric/profile
	EntityID    int64
	SourceDB    string
	SourceTable string
	SourceRowID int64
	AbsorbedAt  string
}

type SystemLogEntry struct {
	ID        int64
	RunID     string
	At        string
	Level     string // info/warn/error
	Component string
	Message   string
}
