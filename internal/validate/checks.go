// Package validate proves a finished consolidation target is
// trustworthy. Every check is read-only, idempotent, and independent of
// the others; re-running produces the same report.
package validate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"jobhunt-consolidate/internal/backup"
	"jobhunt-consolidate/internal/normalize"
	"jobhunt-consolidate/internal/report"
	"jobhunt-consolidate/internal/store"
)

type Options struct {
	RunID string

	// CountRanges maps entity table -> expected [min,max] row count,
	// typically summed source counts minus plausible dedup reduction.
	CountRanges map[string][2]int64

	// Known-good entities to spot check for.
	SpotCompanies []string
	SpotJobs      []string

	// Manifest from the pre-migration backup, when one exists.
	Manifest *backup.Manifest
}

// Foreign keys the target declares; every non-null value must resolve.
var foreignKeys = []struct {
	child, column, parent string
}{
	{"jobs", "company_id", "companies"},
	{"applications", "job_id", "jobs"},
	{"contacts", "company_id", "companies"},
	{"emails", "application_id", "applications"},
	{"emails", "contact_id", "contacts"},
}

// entityTables is what the backup comparison counts; audit tables are
// excluded because the backup predates them.
var entityTables = []string{
	"companies", "jobs", "applications", "contacts", "emails", "metrics", "profile",
}

// Run executes every check against the target and aggregates the
// weighted health score.
func Run(ctx context.Context, db *sql.DB, opts Options) report.Report {
	r := report.Report{
		Timestamp: time.Now().UTC(),
		RunID:     opts.RunID,
	}

	r.Checks = append(r.Checks, checkStructural(ctx, db))
	r.Checks = append(r.Checks, checkIntegrity(ctx, db))
	r.Checks = append(r.Checks, checkSingleton(ctx, db))
	r.Checks = append(r.Checks, checkCounts(ctx, db, opts.CountRanges))
	r.Checks = append(r.Checks, checkSpot(ctx, db, opts))
	r.Checks = append(r.Checks, checkBackup(ctx, db, opts.Manifest))

	r.HealthScore = Score(r.Checks)
	r.Verdict = VerdictFor(r.HealthScore)
	return r
}

func checkStructural(ctx context.Context, db *sql.DB) report.Check {
	c := report.Check{Name: "structural", Category: "structural", Status: report.Pass}

	var missing []string
	for _, t := range store.Tables {
		if !objectExists(ctx, db, "table", t) {
			missing = append(missing, "table "+t)
		}
	}
	for _, ix := range store.Indexes {
		if !objectExists(ctx, db, "index", ix) {
			missing = append(missing, "index "+ix)
		}
	}
	var triggers int
	_ = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND name LIKE 'trg_%_updated_at';`,
	).Scan(&triggers)
	if triggers < 5 {
		missing = append(missing, fmt.Sprintf("updated_at triggers (%d of 5)", triggers))
	}

	if len(missing) > 0 {
		c.Status = report.Fail
		c.Detail = "missing: " + strings.Join(missing, ", ")
		return c
	}
	c.Detail = fmt.Sprintf("%d tables, %d indexes present", len(store.Tables), len(store.Indexes))
	return c
}

func checkIntegrity(ctx context.Context, db *sql.DB) report.Check {
	c := report.Check{Name: "referential_integrity", Category: "integrity", Status: report.Pass}

	var problems []string
	for _, fk := range foreignKeys {
		q := fmt.Sprintf(`
SELECT COUNT(*) FROM %s c
WHERE c.%s IS NOT NULL
  AND NOT EXISTS (SELECT 1 FROM %s p WHERE p.id = c.%s);`,
			fk.child, fk.column, fk.parent, fk.column)

		var orphans int64
		if err := db.QueryRowContext(ctx, q).Scan(&orphans); err != nil {
			problems = append(problems, fmt.Sprintf("%s.%s: %v", fk.child, fk.column, err))
			continue
		}
		if orphans > 0 {
			problems = append(problems, fmt.Sprintf("%s.%s: %d orphan(s)", fk.child, fk.column, orphans))
		}
	}

	if len(problems) > 0 {
		c.Status = report.Fail
		c.Detail = strings.Join(problems, "; ")
		return c
	}
	c.Detail = fmt.Sprintf("%d foreign keys clean", len(foreignKeys))
	return c
}

func checkSingleton(ctx context.Context, db *sql.DB) report.Check {
	c := report.Check{Name: "profile_singleton", Category: "integrity", Status: report.Pass}

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profile;`).Scan(&n); err != nil {
		c.Status = report.Fail
		c.Detail = err.Error()
		return c
	}
	if n != 1 {
		c.Status = report.Fail
		c.Detail = fmt.Sprintf("profile has %d rows, want exactly 1", n)
		return c
	}
	c.Detail = "exactly one profile row"
	return c
}

func checkCounts(ctx context.Context, db *sql.DB, ranges map[string][2]int64) report.Check {
	c := report.Check{Name: "count_ranges", Category: "counts", Status: report.Pass}
	if len(ranges) == 0 {
		c.Status = report.Info
		c.Detail = "no expected ranges configured"
		return c
	}

	tables := make([]string, 0, len(ranges))
	for table := range ranges {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var drift []string
	for _, table := range tables {
		r := ranges[table]
		n, err := tableCount(ctx, db, table)
		if err != nil {
			drift = append(drift, fmt.Sprintf("%s: %v", table, err))
			continue
		}
		if n < r[0] || n > r[1] {
			drift = append(drift, fmt.Sprintf("%s: %d outside [%d,%d]", table, n, r[0], r[1]))
		}
	}

	// Out-of-range counts are drift, not failure: legitimate dedup
	// shrinks row counts.
	if len(drift) > 0 {
		c.Status = report.Warn
		c.Detail = strings.Join(drift, "; ")
		return c
	}
	c.Detail = fmt.Sprintf("%d tables within expected ranges", len(ranges))
	return c
}

func checkSpot(ctx context.Context, db *sql.DB, opts Options) report.Check {
	c := report.Check{Name: "spot_check", Category: "spot", Status: report.Pass}
	if len(opts.SpotCompanies) == 0 && len(opts.SpotJobs) == 0 {
		c.Status = report.Info
		c.Detail = "no expected entities configured"
		return c
	}

	var missing []string
	for _, name := range opts.SpotCompanies {
		var n int64
		_ = db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM companies WHERE normalized_name = ?;`,
			normalize.Company(name)).Scan(&n)
		if n == 0 {
			missing = append(missing, "company "+name)
		}
	}
	for _, title := range opts.SpotJobs {
		var n int64
		_ = db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM jobs WHERE normalized_title = ?;`,
			normalize.Title(title)).Scan(&n)
		if n == 0 {
			missing = append(missing, "job "+title)
		}
	}

	if len(missing) > 0 {
		c.Status = report.Warn
		c.Detail = "not found: " + strings.Join(missing, ", ")
		return c
	}
	c.Detail = fmt.Sprintf("%d expected entities present",
		len(opts.SpotCompanies)+len(opts.SpotJobs))
	return c
}

func checkBackup(ctx context.Context, db *sql.DB, m *backup.Manifest) report.Check {
	c := report.Check{Name: "backup_comparison", Category: "counts"}
	if m == nil {
		// Inconclusive, never a failure.
		c.Status = report.Info
		c.Detail = "no backup manifest available"
		return c
	}
	if m.TotalRecords <= 0 {
		c.Status = report.Info
		c.Detail = "backup manifest has no record count"
		return c
	}

	var total int64
	for _, t := range entityTables {
		n, err := tableCount(ctx, db, t)
		if err != nil {
			c.Status = report.Warn
			c.Detail = fmt.Sprintf("count %s: %v", t, err)
			return c
		}
		total += n
	}

	ratio := float64(total) / float64(m.TotalRecords)
	c.Detail = fmt.Sprintf("consolidation ratio %.2f (%d of %d records)", ratio, total, m.TotalRecords)
	if ratio < 0.25 || ratio > 1.05 {
		c.Status = report.Warn
		c.Detail += " looks implausible"
		return c
	}
	c.Status = report.Pass
	return c
}

func objectExists(ctx context.Context, db *sql.DB, typ, name string) bool {
	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = ? AND name = ? LIMIT 1;`, typ, name).Scan(&one)
	return err == nil
}

func tableCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, table)).Scan(&n)
	return n, err
}
