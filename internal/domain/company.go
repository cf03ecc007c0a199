package domain

type Company struct {
	ID             int64
	Name           string
	NormalizedName string
	Industry       string
	Location       string
	Size           string
	Notes          string
	NeedsReview    bool
	CreatedAt      string // RFC3339 UTC
	UpdatedAt      string
}
