package dedup

import (
	"strings"

	"jobhunt-consolidate/internal/normalize"
)

// keySep joins key components; unit separator never survives tokenizing.
const keySep = "\x1f"

// CompanyKey derives the dedup key for a company. "" means the unknown
// bucket: the record stands alone and is never merged.
func CompanyKey(name string) string {
	return normalize.Company(name)
}

// JobKey derives the dedup key for a job from its company and title.
// Either component empty makes the whole key unknown.
func JobKey(companyName, title string) string {
	ck := normalize.Company(companyName)
	tk := normalize.Title(title)
	if ck == "" || tk == "" {
		return ""
	}
	return ck + keySep + tk
}

// ContactKey prefers the lowercased email; without one it falls back to
// full name + company. keyFields, when non-empty, restricts which
// natural-key fields participate ("email", "name").
func ContactKey(fullName, email, companyName string, keyFields []string) string {
	useEmail, useName := true, true
	if len(keyFields) > 0 {
		useEmail, useName = false, false
		for _, f := range keyFields {
			switch strings.ToLower(f) {
			case "email":
				useEmail = true
			case "name", "full_name":
				useName = true
			}
		}
	}

	if useEmail {
		if e := normalize.Email(email); e != "" {
			return "email" + keySep + e
		}
	}
	if useName {
		nk := normalize.Title(fullName)
		ck := normalize.Company(companyName)
		if nk != "" {
			return "name" + keySep + nk + keySep + ck
		}
	}
	return ""
}

// MetricKey is the exact-duplicate key for a metric fact.
func MetricKey(name, date string) string {
	return strings.TrimSpace(name) + keySep + strings.TrimSpace(date)
}
