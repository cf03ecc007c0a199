// Package dedup resolves duplicate candidate records to one canonical
// record per natural key. The merge policy is field-level and pure:
// every function here is testable without touching a database.
package dedup

import (
	"strings"

	"jobhunt-consolidate/internal/domain"
)

// NotesLimit bounds merged free-text notes so a pathological source
// cannot balloon a canonical record.
const NotesLimit = 4000

// LongestNonEmpty picks the longer of two identity/name variants.
// Ties keep the lexicographically smaller value so the outcome never
// depends on source ordering.
func LongestNonEmpty(cur, cand string) string {
	cur, cand = strings.TrimSpace(cur), strings.TrimSpace(cand)
	switch {
	case cand == "":
		return cur
	case cur == "":
		return cand
	case len(cand) > len(cur):
		return cand
	case len(cand) == len(cur) && cand < cur:
		return cand
	default:
		return cur
	}
}

// AdvanceStatus moves an application status forward along the lifecycle
// lattice, never backward.
func AdvanceStatus(cur, cand string) string {
	if cand == "" || !domain.KnownStatus(cand) {
		return cur
	}
	if cur == "" || domain.StatusRank(cand) > domain.StatusRank(cur) {
		return cand
	}
	return cur
}

// UnionRange widens a closed numeric interval to cover both inputs.
// Zero means unknown and never narrows the result.
func UnionRange(curMin, curMax, candMin, candMax int64) (int64, int64) {
	lo, hi := curMin, curMax
	if candMin > 0 && (lo == 0 || candMin < lo) {
		lo = candMin
	}
	if candMax > hi {
		hi = candMax
	}
	return lo, hi
}

// EarliestTime returns the earlier of two RFC3339 timestamps; empty
// strings mean unknown. RFC3339 in a fixed zone compares lexically.
func EarliestTime(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case b < a:
		return b
	default:
		return a
	}
}

// LatestTime returns the later of two RFC3339 timestamps.
func LatestTime(a, b string) string {
	if b > a {
		return b
	}
	return a
}

// MergeNotes concatenates distinct note values, newest last, truncated
// at NotesLimit. A note already contained in the current value is not
// repeated.
func MergeNotes(cur, cand string) string {
	cand = strings.TrimSpace(cand)
	if cand == "" || strings.Contains(cur, cand) {
		return cur
	}
	if cur == "" {
		cur = cand
	} else {
		cur = cur + "\n---\n" + cand
	}
	if len(cur) > NotesLimit {
		cur = cur[:NotesLimit]
	}
	return cur
}

// MergeCompany folds a duplicate candidate into the canonical company.
func MergeCompany(dst *domain.Company, src domain.Company) {
	dst.Name = LongestNonEmpty(dst.Name, src.Name)
	dst.Industry = LongestNonEmpty(dst.Industry, src.Industry)
	dst.Location = LongestNonEmpty(dst.Location, src.Location)
	dst.Size = LongestNonEmpty(dst.Size, src.Size)
	dst.Notes = MergeNotes(dst.Notes, src.Notes)
	dst.CreatedAt = EarliestTime(dst.CreatedAt, src.CreatedAt)
	dst.UpdatedAt = LatestTime(dst.UpdatedAt, src.UpdatedAt)
}

// MergeJob folds a duplicate candidate into the canonical job.
func MergeJob(dst *domain.Job, src domain.Job) {
	dst.Title = LongestNonEmpty(dst.Title, src.Title)
	dst.Location = LongestNonEmpty(dst.Location, src.Location)
	dst.URL = LongestNonEmpty(dst.URL, src.URL)
	dst.Description = LongestNonEmpty(dst.Description, src.Description)
	if dst.WorkMode == "" || dst.WorkMode == "unknown" {
		dst.WorkMode = src.WorkMode
	}
	dst.SalaryMin, dst.SalaryMax = UnionRange(dst.SalaryMin, dst.SalaryMax, src.SalaryMin, src.SalaryMax)
	dst.CreatedAt = EarliestTime(dst.CreatedAt, src.CreatedAt)
	dst.UpdatedAt = LatestTime(dst.UpdatedAt, src.UpdatedAt)
}

// MergeApplication folds a duplicate candidate into the canonical
// application for the same job.
func MergeApplication(dst *domain.Application, src domain.Application) {
	dst.Status = AdvanceStatus(dst.Status, src.Status)
	dst.AppliedAt = EarliestTime(dst.AppliedAt, src.AppliedAt)
	dst.RespondedAt = LatestTime(dst.RespondedAt, src.RespondedAt)
	dst.Notes = MergeNotes(dst.Notes, src.Notes)
	dst.CreatedAt = EarliestTime(dst.CreatedAt, src.CreatedAt)
	dst.UpdatedAt = LatestTime(dst.UpdatedAt, src.UpdatedAt)
}

// MergeContact folds a duplicate candidate into the canonical contact.
func MergeContact(dst *domain.Contact, src domain.Contact) {
	dst.FullName = LongestNonEmpty(dst.FullName, src.FullName)
	dst.Email = LongestNonEmpty(dst.Email, src.Email)
	dst.Phone = LongestNonEmpty(dst.Phone, src.Phone)
	dst.Role = LongestNonEmpty(dst.Role, src.Role)
	dst.LinkedInURL = LongestNonEmpty(dst.LinkedInURL, src.LinkedInURL)
	dst.Notes = MergeNotes(dst.Notes, src.Notes)
	dst.CreatedAt = EarliestTime(dst.CreatedAt, src.CreatedAt)
	dst.UpdatedAt = LatestTime(dst.UpdatedAt, src.UpdatedAt)
}

// MergeProfile folds one more source profile row into the singleton.
func MergeProfile(dst *domain.Profile, src domain.Profile) {
	dst.FullName = LongestNonEmpty(dst.FullName, src.FullName)
	dst.Email = LongestNonEmpty(dst.Email, src.Email)
	dst.Phone = LongestNonEmpty(dst.Phone, src.Phone)
	dst.Location = LongestNonEmpty(dst.Location, src.Location)
	dst.LinkedInURL = LongestNonEmpty(dst.LinkedInURL, src.LinkedInURL)
	dst.GitHubURL = LongestNonEmpty(dst.GitHubURL, src.GitHubURL)
	dst.Summary = LongestNonEmpty(dst.Summary, src.Summary)
	dst.CreatedAt = EarliestTime(dst.CreatedAt, src.CreatedAt)
	dst.UpdatedAt = LatestTime(dst.UpdatedAt, src.UpdatedAt)
}
