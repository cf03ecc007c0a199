package domain

type Job struct {
	ID              int64
	CompanyID       *int64 // nil when the company is unknown to every source
	CompanyName     string // raw name as seen in the source, kept for key rebuilds
	Title           string
	NormalizedTitle string
	Location        string
	WorkMode        string // remote/hybrid/onsite/unknown
	URL             string
	SalaryMin       int64 // 0 = unknown
	SalaryMax       int64
	Description     string
	Source          string
	NeedsReview     bool
	CreatedAt       string
	UpdatedAt       string
}
