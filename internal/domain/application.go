package domain

type Application struct {
	ID          int64
	JobID       int64
	Status      string // see StatusRank
	AppliedAt   string
	RespondedAt string
	Notes       string
	CreatedAt   string
	UpdatedAt   string
}

// Application lifecycle lattice. Merging only ever moves a status forward;
// offer and rejected are both terminal and never overwrite each other.
var statusRank = map[string]int{
	"new":       0,
	"sent":      1,
	"responded": 2,
	"interview": 3,
	"offer":     4,
	"rejected":  4,
}

// StatusRank returns the position of s in the lifecycle lattice.
// Unrecognized statuses rank as "new" so a garbage value can never
// clobber real progress.
func StatusRank(s string) int {
	return statusRank[s]
}

// KnownStatus reports whether s is a recognized lifecycle status.
func KnownStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}
