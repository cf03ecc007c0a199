package domain

type Contact struct {
	ID          int64
	CompanyID   *int64
	CompanyName string
	FullName    string
	Email       string // lowercased on ingest; "" = unknown
	Phone       string
	Role        string
	LinkedInURL string
	Notes       string
	NeedsReview bool
	CreatedAt   string
	UpdatedAt   string
}

type Email struct {
	ID            int64
	ApplicationID *int64
	ContactID     *int64
	Direction     string // sent/received
	Subject       string
	Body          string
	SentAt        string
	CreatedAt     string
}
