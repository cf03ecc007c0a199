package validate

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"jobhunt-consolidate/internal/backup"
	"jobhunt-consolidate/internal/report"
	"jobhunt-consolidate/internal/store"
)

// newTarget builds a schema-complete target with one company, one job,
// one application, and the singleton profile. The returned handle has
// foreign key enforcement off so tests can seed deliberate corruption.
func newTarget(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unified.db")

	d, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(d.Pool))
	require.NoError(t, d.Close())

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC().Format(time.RFC3339)
	for _, q := range []string{
		`INSERT INTO companies (name, normalized_name, created_at, updated_at) VALUES ('Acme Inc.', 'acme', '` + now + `', '` + now + `');`,
		`INSERT INTO jobs (company_id, company, title, normalized_title, created_at, updated_at) VALUES (1, 'Acme Inc.', 'ML Engineer', 'ml engineer', '` + now + `', '` + now + `');`,
		`INSERT INTO applications (job_id, status, created_at, updated_at) VALUES (1, 'sent', '` + now + `', '` + now + `');`,
		`INSERT INTO profile (id, full_name, created_at, updated_at) VALUES (1, 'Jordan Smith', '` + now + `', '` + now + `');`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}
	return db
}

func checkByName(t *testing.T, r report.Report, name string) report.Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q", name)
	return report.Check{}
}

func TestValidateCleanTargetPasses(t *testing.T) {
	db := newTarget(t)

	r := Run(context.Background(), db, Options{
		SpotCompanies: []string{"ACME, INC."},
		SpotJobs:      []string{"ml engineer"},
	})

	assert.Equal(t, 100, r.HealthScore)
	assert.Equal(t, report.VerdictPass, r.Verdict)
	assert.Empty(t, r.Failures())
	assert.Equal(t, report.Pass, checkByName(t, r, "structural").Status)
	assert.Equal(t, report.Pass, checkByName(t, r, "referential_integrity").Status)
	assert.Equal(t, report.Pass, checkByName(t, r, "profile_singleton").Status)
	assert.Equal(t, report.Pass, checkByName(t, r, "spot_check").Status)
	assert.Equal(t, report.Info, checkByName(t, r, "backup_comparison").Status)
}

// The validator is read-only and idempotent: run it as often as you
// like, the answer never drifts. Detail strings included, so reports
// diff cleanly between runs even with several drifting tables.
func TestValidateIdempotent(t *testing.T) {
	db := newTarget(t)
	opts := Options{
		SpotCompanies: []string{"Acme"},
		CountRanges: map[string][2]int64{
			"companies":    {5, 10},
			"applications": {3, 10},
			"jobs":         {1, 10},
		},
	}

	first := Run(context.Background(), db, opts)
	for i := 0; i < 3; i++ {
		again := Run(context.Background(), db, opts)
		assert.Equal(t, first.HealthScore, again.HealthScore)
		assert.Equal(t, first.Verdict, again.Verdict)
		require.Equal(t, len(first.Checks), len(again.Checks))
		for j := range first.Checks {
			assert.Equal(t, first.Checks[j].Status, again.Checks[j].Status)
			assert.Equal(t, first.Checks[j].Detail, again.Checks[j].Detail)
		}
	}

	drift := checkByName(t, first, "count_ranges")
	assert.Equal(t, report.Warn, drift.Status)
	assert.Contains(t, drift.Detail, "applications")
	assert.Contains(t, drift.Detail, "companies")
	assert.Less(t, strings.Index(drift.Detail, "applications"), strings.Index(drift.Detail, "companies"))
}

// One orphaned foreign key strictly lowers the score and flips the
// verdict away from PASS.
func TestValidateOrphanLowersScore(t *testing.T) {
	db := newTarget(t)

	clean := Run(context.Background(), db, Options{})
	require.Equal(t, report.VerdictPass, clean.Verdict)

	_, err := db.Exec(`
INSERT INTO jobs (company_id, company, title, normalized_title, created_at, updated_at)
VALUES (999, 'Ghost Co', 'Haunted Role', 'haunted role', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`)
	require.NoError(t, err)

	dirty := Run(context.Background(), db, Options{})
	assert.Less(t, dirty.HealthScore, clean.HealthScore)
	assert.NotEqual(t, report.VerdictPass, dirty.Verdict)
	assert.Equal(t, report.Fail, checkByName(t, dirty, "referential_integrity").Status)
	assert.NotEmpty(t, dirty.Failures())
}

// NULL foreign keys are valid; only non-null-yet-unmatched values orphan.
func TestValidateNullForeignKeyIsValid(t *testing.T) {
	db := newTarget(t)

	_, err := db.Exec(`
INSERT INTO jobs (company_id, company, title, normalized_title, created_at, updated_at)
VALUES (NULL, 'Phantom Startup', 'Staff Engineer', 'staff engineer', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`)
	require.NoError(t, err)

	r := Run(context.Background(), db, Options{})
	assert.Equal(t, report.Pass, checkByName(t, r, "referential_integrity").Status)
	assert.Equal(t, report.VerdictPass, r.Verdict)
}

func TestValidateSingletonViolation(t *testing.T) {
	db := newTarget(t)

	t.Run("zero rows", func(t *testing.T) {
		_, err := db.Exec(`DELETE FROM profile;`)
		require.NoError(t, err)
		r := Run(context.Background(), db, Options{})
		assert.Equal(t, report.Fail, checkByName(t, r, "profile_singleton").Status)
		assert.NotEqual(t, report.VerdictPass, r.Verdict)
	})

	t.Run("two rows", func(t *testing.T) {
		_, err := db.Exec(`
INSERT INTO profile (id, full_name, created_at, updated_at)
VALUES (1, 'A', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`)
		require.NoError(t, err)
		// The schema CHECK would reject id=2; the validator must not
		// rely on it, so sneak the row past the constraint.
		_, err = db.Exec(`PRAGMA ignore_check_constraints = ON;`)
		require.NoError(t, err)
		_, err = db.Exec(`
INSERT INTO profile (id, full_name, created_at, updated_at)
VALUES (2, 'B', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`)
		require.NoError(t, err)

		r := Run(context.Background(), db, Options{})
		assert.Equal(t, report.Fail, checkByName(t, r, "profile_singleton").Status)
	})
}

func TestValidateMissingTableIsHardFailure(t *testing.T) {
	db := newTarget(t)
	_, err := db.Exec(`DROP TABLE metrics;`)
	require.NoError(t, err)

	r := Run(context.Background(), db, Options{})
	c := checkByName(t, r, "structural")
	assert.Equal(t, report.Fail, c.Status)
	assert.Contains(t, c.Detail, "metrics")
	assert.NotEqual(t, report.VerdictPass, r.Verdict)
}

func TestValidateCountRangeDriftWarns(t *testing.T) {
	db := newTarget(t)

	r := Run(context.Background(), db, Options{
		CountRanges: map[string][2]int64{
			"companies": {5, 10}, // we only have 1
			"jobs":      {1, 10},
		},
	})
	c := checkByName(t, r, "count_ranges")
	assert.Equal(t, report.Warn, c.Status, "count drift is a warning, never a failure")
	assert.Contains(t, c.Detail, "companies")
	assert.Equal(t, report.VerdictPass, r.Verdict, "a lone count warning keeps the verdict at PASS")
	assert.Equal(t, 90, r.HealthScore)
}

func TestValidateBackupComparison(t *testing.T) {
	db := newTarget(t)

	t.Run("plausible ratio", func(t *testing.T) {
		r := Run(context.Background(), db, Options{Manifest: &backup.Manifest{TotalRecords: 5}})
		assert.Equal(t, report.Pass, checkByName(t, r, "backup_comparison").Status)
	})

	t.Run("implausible ratio warns", func(t *testing.T) {
		r := Run(context.Background(), db, Options{Manifest: &backup.Manifest{TotalRecords: 1000}})
		c := checkByName(t, r, "backup_comparison")
		assert.Equal(t, report.Warn, c.Status)
		assert.Contains(t, c.Detail, "implausible")
	})

	t.Run("absent manifest is informational", func(t *testing.T) {
		r := Run(context.Background(), db, Options{})
		assert.Equal(t, report.Info, checkByName(t, r, "backup_comparison").Status)
		assert.Equal(t, report.VerdictPass, r.Verdict)
	})
}

func TestScoreWeights(t *testing.T) {
	mk := func(cat string, st report.Status) report.Check {
		return report.Check{Name: cat, Category: cat, Status: st}
	}

	assert.Equal(t, 100, Score([]report.Check{
		mk("structural", report.Pass), mk("integrity", report.Pass),
		mk("counts", report.Pass), mk("spot", report.Pass),
	}))
	assert.Equal(t, 70, Score([]report.Check{
		mk("structural", report.Pass), mk("integrity", report.Fail),
		mk("counts", report.Pass), mk("spot", report.Pass),
	}))
	assert.Equal(t, 90, Score([]report.Check{
		mk("structural", report.Pass), mk("integrity", report.Pass),
		mk("counts", report.Warn), mk("spot", report.Pass),
	}))
	assert.Equal(t, 100, Score(nil), "empty categories earn full weight")

	// A failing check dominates a passing sibling in the same category.
	assert.Equal(t, 70, Score([]report.Check{
		mk("integrity", report.Pass),
		{Name: "profile_singleton", Category: "integrity", Status: report.Fail},
	}))

	assert.Equal(t, report.VerdictPass, VerdictFor(95))
	assert.Equal(t, report.VerdictPass, VerdictFor(90))
	assert.Equal(t, report.VerdictPassWarnings, VerdictFor(89))
	assert.Equal(t, report.VerdictPassWarnings, VerdictFor(70))
	assert.Equal(t, report.VerdictFail, VerdictFor(69))
}
