package dedup

import (
	"context"
	"database/sql"
	"fmt"
)

// Index maps dedup keys to canonical row ids for one entity type.
// It is deliberately not safe for concurrent use: each entity type is
// migrated by exactly one goroutine.
type Index struct {
	keys map[string]int64
}

func NewIndex() *Index {
	return &Index{keys: make(map[string]int64)}
}

// Lookup returns the canonical id bound to key. The empty key is the
// unknown bucket and never matches anything.
func (ix *Index) Lookup(key string) (int64, bool) {
	if key == "" {
		return 0, false
	}
	id, ok := ix.keys[key]
	return id, ok
}

// Bind associates key with a canonical id. Binding the empty key is a
// no-op. One id may be bound under several alias keys (contacts are
// reachable by email and by name+company).
func (ix *Index) Bind(key string, id int64) {
	if key == "" {
		return
	}
	ix.keys[key] = id
}

func (ix *Index) Len() int { return len(ix.keys) }

// The Load* functions rebuild an index by scanning canonical rows already
// committed to the target, so an interrupted migration can resume without
// any in-memory state and a re-run stays idempotent.

func LoadCompanyIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	ix := NewIndex()
	rows, err := db.QueryContext(ctx, `SELECT id, normalized_name FROM companies WHERE normalized_name != '';`)
	if err != nil {
		return nil, fmt.Errorf("load company index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		ix.Bind(key, id)
	}
	return ix, rows.Err()
}

func LoadJobIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	ix := NewIndex()
	rows, err := db.QueryContext(ctx, `SELECT id, company, title FROM jobs;`)
	if err != nil {
		return nil, fmt.Errorf("load job index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var company, title string
		if err := rows.Scan(&id, &company, &title); err != nil {
			return nil, err
		}
		ix.Bind(JobKey(company, title), id)
	}
	return ix, rows.Err()
}

func LoadApplicationIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	ix := NewIndex()
	rows, err := db.QueryContext(ctx, `
SELECT a.id, j.company, j.title
FROM applications a
JOIN jobs j ON j.id = a.job_id;`)
	if err != nil {
		return nil, fmt.Errorf("load application index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var company, title string
		if err := rows.Scan(&id, &company, &title); err != nil {
			return nil, err
		}
		ix.Bind(JobKey(company, title), id)
	}
	return ix, rows.Err()
}

func LoadContactIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	ix := NewIndex()
	rows, err := db.QueryContext(ctx, `SELECT id, full_name, email, company FROM contacts;`)
	if err != nil {
		return nil, fmt.Errorf("load contact index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name, email, company string
		if err := rows.Scan(&id, &name, &email, &company); err != nil {
			return nil, err
		}
		for _, k := range ContactKeys(name, email, company) {
			ix.Bind(k, id)
		}
	}
	return ix, rows.Err()
}

// ContactKeys returns every alias key a canonical contact is reachable
// under: the email key when an email exists, and the name+company key
// when a name exists.
func ContactKeys(fullName, email, companyName string) []string {
	var out []string
	if k := ContactKey(fullName, email, companyName, []string{"email"}); k != "" {
		out = append(out, k)
	}
	if k := ContactKey(fullName, email, companyName, []string{"name"}); k != "" {
		out = append(out, k)
	}
	return out
}

func LoadMetricIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	ix := NewIndex()
	rows, err := db.QueryContext(ctx, `SELECT id, name, date FROM metrics;`)
	if err != nil {
		return nil, fmt.Errorf("load metric index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name, date string
		if err := rows.Scan(&id, &name, &date); err != nil {
			return nil, err
		}
		ix.Bind(MetricKey(name, date), id)
	}
	return ix, rows.Err()
}
