// Package migrate walks the source registry and consolidates every
// declared legacy table into the unified target database.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"jobhunt-consolidate/internal/config"
	"jobhunt-consolidate/internal/dedup"
	"jobhunt-consolidate/internal/normalize"
	"jobhunt-consolidate/internal/store"
	"jobhunt-consolidate/internal/syslog"
)

// stages is the dependency DAG over entity types, flattened into
// topological levels. Entities in the same level hold no foreign keys
// into each other and may migrate concurrently; each level waits for the
// previous level's table transactions to fully commit.
var stages = [][]string{
	{"company", "metric", "profile"},
	{"job", "contact"},
	{"application"},
	{"email"},
}

// stageWidth bounds concurrency inside one stage. The target pool holds
// a single connection, so this parallelizes source reads, not writes.
const stageWidth = 2

type runner struct {
	cfg   config.Config
	db    *sql.DB
	audit *syslog.Logger
	stats *Stats

	// errLog throttles row-error logging so one corrupt source table
	// cannot flood the log. Errors are always counted.
	errLog *rate.Limiter

	companies *dedup.Index
	jobs      *dedup.Index
	apps      *dedup.Index
	contacts  *dedup.Index
	metrics   *dedup.Index
}

// Run executes the whole consolidation. A ConfigurationError halts
// before any write; everything else is accumulated into Stats.
func Run(ctx context.Context, cfg config.Config) (*Stats, error) {
	cfg, res := config.NormalizeAndValidate(cfg)
	if err := res.Err(); err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		log.Printf("[config] %s", w)
	}

	lock, err := store.AcquireLock(ctx, cfg.Target)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(cfg.Target)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	r := &runner{
		cfg:    cfg,
		db:     db.Pool,
		audit:  syslog.New(db.Pool, runID),
		stats:  NewStats(runID),
		errLog: rate.NewLimiter(rate.Limit(5), 10),
	}
	if err := r.loadIndexes(ctx); err != nil {
		return r.stats, err
	}

	r.audit.Infof("migrate", "run %s starting: %d sources -> %s", runID, len(cfg.Sources), cfg.Target)

	for _, stage := range stages {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(stageWidth)
		for _, entity := range stage {
			entity := entity
			g.Go(func() error { return r.migrateEntity(gctx, entity) })
		}
		if err := g.Wait(); err != nil {
			r.audit.Errorf("migrate", "run %s aborted: %v", runID, err)
			return r.stats, err
		}
	}

	r.audit.Infof("migrate", "run %s finished: %s", runID, r.stats.Summary())
	return r.stats, nil
}

// loadIndexes rebuilds every dedup index from rows already committed to
// the target, so an interrupted run resumes safely and a repeat run is
// idempotent.
func (r *runner) loadIndexes(ctx context.Context) error {
	var err error
	if r.companies, err = dedup.LoadCompanyIndex(ctx, r.db); err != nil {
		return err
	}
	if r.jobs, err = dedup.LoadJobIndex(ctx, r.db); err != nil {
		return err
	}
	if r.apps, err = dedup.LoadApplicationIndex(ctx, r.db); err != nil {
		return err
	}
	if r.contacts, err = dedup.LoadContactIndex(ctx, r.db); err != nil {
		return err
	}
	r.metrics, err = dedup.LoadMetricIndex(ctx, r.db)
	return err
}

// reloadIndex rebuilds one entity's index after its table transaction
// rolled back, dropping bindings to ids that no longer exist.
func (r *runner) reloadIndex(ctx context.Context, entity string) error {
	var err error
	switch entity {
	case "company":
		r.companies, err = dedup.LoadCompanyIndex(ctx, r.db)
	case "job":
		r.jobs, err = dedup.LoadJobIndex(ctx, r.db)
	case "application":
		r.apps, err = dedup.LoadApplicationIndex(ctx, r.db)
	case "contact":
		r.contacts, err = dedup.LoadContactIndex(ctx, r.db)
	case "metric":
		r.metrics, err = dedup.LoadMetricIndex(ctx, r.db)
	}
	return err
}

func (r *runner) migrateEntity(ctx context.Context, entity string) error {
	for _, src := range r.cfg.Sources {
		if src.Entity != entity {
			continue
		}
		if err := r.migrateTable(ctx, src); err != nil {
			// A user abort is only honored at a transaction boundary;
			// the rollback has already restored the prior state.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.stats.addFailedTable(TableError{SourceDB: src.Path, SourceTable: src.Table, Reason: err.Error()})
			r.audit.Errorf("migrate", "table %s.%s (%s) failed, rolled back: %v",
				filepath.Base(src.Path), src.Table, entity, err)
			if rerr := r.reloadIndex(ctx, entity); rerr != nil {
				return fmt.Errorf("reload %s index: %w", entity, rerr)
			}
			continue
		}
		r.audit.Infof("migrate", "table %s.%s (%s) committed",
			filepath.Base(src.Path), src.Table, entity)
	}
	return nil
}

// migrateTable routes one legacy table through the normalizer and
// deduplicator into the target, inside a single transaction: all of its
// rows commit atomically or none do.
func (r *runner) migrateTable(ctx context.Context, src config.Source) error {
	sdb, err := store.OpenReadOnly(src.Path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer sdb.Close()

	// Lock contention surfaces at transaction start; commit failures on
	// a busy database are already absorbed by the busy_timeout pragma.
	var tx *sql.Tx
	err = store.WithRetry(ctx, func() error {
		var berr error
		tx, berr = r.db.BeginTx(ctx, nil)
		return berr
	})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cols := sourceColumns(src)
	after := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := readBatch(ctx, sdb.Pool, src.Table, cols, after, r.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("read %s: %w", src.Table, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, row := range batch {
			after = row.rowid
			r.stats.addScanned(src.Entity)
			done, err := absorbed(tx, src.Entity, src, row.rowid)
			if err != nil {
				return fmt.Errorf("provenance lookup: %w", err)
			}
			if done {
				continue
			}
			if err := r.processRow(tx, src, row); err != nil {
				re := RowError{
					Entity:      src.Entity,
					SourceDB:    src.Path,
					SourceTable: src.Table,
					RowID:       row.rowid,
					Reason:      err.Error(),
				}
				r.stats.addRowError(re)
				if r.errLog.Allow() {
					log.Printf("[migrate] row error: %v", re)
				}
			}
		}
		if len(batch) < r.cfg.BatchSize {
			break
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (r *runner) processRow(tx *sql.Tx, src config.Source, row sourceRow) error {
	f := fieldValues(src, row)
	now := time.Now().UTC().Format(time.RFC3339)

	switch src.Entity {
	case "company":
		return r.upsertCompany(tx, src, row, f, now)
	case "job":
		return r.upsertJob(tx, src, row, f, now)
	case "application":
		return r.upsertApplication(tx, src, row, f, now)
	case "contact":
		return r.upsertContact(tx, src, row, f, now)
	case "email":
		return r.upsertEmail(tx, src, row, f, now)
	case "metric":
		return r.upsertMetric(tx, src, row, f)
	case "profile":
		return r.upsertProfile(tx, src, row, f, now)
	default:
		return fmt.Errorf("unknown entity %q", src.Entity)
	}
}

func (r *runner) upsertCompany(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	c := buildCompany(f, now)

	if id, ok := r.companies.Lookup(c.NormalizedName); ok {
		cur, err := getCompany(tx, id)
		if err != nil {
			return err
		}
		merged := cur
		dedup.MergeCompany(&merged, c)
		if merged != cur {
			if err := updateCompany(tx, merged); err != nil {
				return err
			}
		}
		r.stats.addMerged("company")
		return recordProvenance(tx, "company", id, src, row.rowid)
	}

	id, err := insertCompany(tx, c)
	if err != nil {
		return err
	}
	r.companies.Bind(c.NormalizedName, id)
	r.stats.addInserted("company")
	return recordProvenance(tx, "company", id, src, row.rowid)
}

func (r *runner) upsertJob(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	j, err := buildJob(f, filepath.Base(src.Path), now)
	if err != nil {
		return err
	}
	// Resolve the company by normalized name; a company unknown to every
	// source stays NULL, never fabricated.
	if ck := normalize.Company(j.CompanyName); ck != "" {
		if cid, ok := r.companies.Lookup(ck); ok {
			j.CompanyID = &cid
		}
	}

	key := dedup.JobKey(j.CompanyName, j.Title)
	if id, ok := r.jobs.Lookup(key); ok {
		cur, err := getJob(tx, id)
		if err != nil {
			return err
		}
		merged := cur
		dedup.MergeJob(&merged, j)
		if merged != cur {
			if err := updateJob(tx, merged); err != nil {
				return err
			}
		}
		r.stats.addMerged("job")
		return recordProvenance(tx, "job", id, src, row.rowid)
	}

	id, err := insertJob(tx, j)
	if err != nil {
		return err
	}
	r.jobs.Bind(key, id)
	r.stats.addInserted("job")
	return recordProvenance(tx, "job", id, src, row.rowid)
}

func (r *runner) upsertApplication(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	a, company, title, err := buildApplication(f, now)
	if err != nil {
		return err
	}

	key := dedup.JobKey(company, title)
	jid, ok := r.jobs.Lookup(key)
	if !ok {
		return fmt.Errorf("no job found for application (company=%q title=%q)", company, title)
	}
	a.JobID = jid

	// One application per job: the job's key doubles as the
	// application's dedup key.
	if id, ok := r.apps.Lookup(key); ok {
		cur, err := getApplication(tx, id)
		if err != nil {
			return err
		}
		merged := cur
		dedup.MergeApplication(&merged, a)
		if merged != cur {
			if err := updateApplication(tx, merged); err != nil {
				return err
			}
		}
		r.stats.addMerged("application")
		return recordProvenance(tx, "application", id, src, row.rowid)
	}

	id, err := insertApplication(tx, a)
	if err != nil {
		return err
	}
	r.apps.Bind(key, id)
	r.stats.addInserted("application")
	return recordProvenance(tx, "application", id, src, row.rowid)
}

func (r *runner) upsertContact(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	c := buildContact(f, now)
	if ck := normalize.Company(c.CompanyName); ck != "" {
		if cid, ok := r.companies.Lookup(ck); ok {
			c.CompanyID = &cid
		}
	}

	var keys []string
	if len(src.KeyFields) > 0 {
		if k := dedup.ContactKey(c.FullName, c.Email, c.CompanyName, src.KeyFields); k != "" {
			keys = []string{k}
		}
	} else {
		keys = dedup.ContactKeys(c.FullName, c.Email, c.CompanyName)
	}

	if len(keys) == 0 {
		// No usable natural key: keep the record standalone rather than
		// falsely collapsing unrelated blank-field rows.
		c.NeedsReview = true
		id, err := insertContact(tx, c)
		if err != nil {
			return err
		}
		r.stats.addInserted("contact")
		return recordProvenance(tx, "contact", id, src, row.rowid)
	}

	for _, k := range keys {
		id, ok := r.contacts.Lookup(k)
		if !ok {
			continue
		}
		cur, err := getContact(tx, id)
		if err != nil {
			return err
		}
		merged := cur
		dedup.MergeContact(&merged, c)
		if merged != cur {
			if err := updateContact(tx, merged); err != nil {
				return err
			}
		}
		// The merge may have gained an email or name; rebind every alias.
		for _, ak := range dedup.ContactKeys(merged.FullName, merged.Email, merged.CompanyName) {
			r.contacts.Bind(ak, id)
		}
		r.stats.addMerged("contact")
		return recordProvenance(tx, "contact", id, src, row.rowid)
	}

	id, err := insertContact(tx, c)
	if err != nil {
		return err
	}
	for _, k := range keys {
		r.contacts.Bind(k, id)
	}
	r.stats.addInserted("contact")
	return recordProvenance(tx, "contact", id, src, row.rowid)
}

func (r *runner) upsertEmail(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	e, err := buildEmail(f, now)
	if err != nil {
		return err
	}

	if key := dedup.JobKey(f["company"], f["title"]); key != "" {
		if aid, ok := r.apps.Lookup(key); ok {
			e.ApplicationID = &aid
		}
	}
	if addr := normalize.Email(f["contact_email"]); addr != "" {
		if k := dedup.ContactKey("", addr, "", []string{"email"}); k != "" {
			if cid, ok := r.contacts.Lookup(k); ok {
				e.ContactID = &cid
			}
		}
	}

	id, added, err := insertEmailIgnore(tx, e)
	if err != nil {
		return err
	}
	if added {
		r.stats.addInserted("email")
	} else {
		r.stats.addMerged("email")
	}
	return recordProvenance(tx, "email", id, src, row.rowid)
}

func (r *runner) upsertMetric(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string) error {
	m, err := buildMetric(f)
	if err != nil {
		return err
	}

	key := dedup.MetricKey(m.Name, m.Date)
	if id, ok := r.metrics.Lookup(key); ok {
		// Metrics carry no merge policy: only exact (name, date)
		// duplicates are suppressed.
		r.stats.addMerged("metric")
		return recordProvenance(tx, "metric", id, src, row.rowid)
	}

	id, added, err := insertMetricIgnore(tx, m)
	if err != nil {
		return err
	}
	r.metrics.Bind(key, id)
	if added {
		r.stats.addInserted("metric")
	} else {
		r.stats.addMerged("metric")
	}
	return recordProvenance(tx, "metric", id, src, row.rowid)
}

func (r *runner) upsertProfile(tx *sql.Tx, src config.Source, row sourceRow, f map[string]string, now string) error {
	p := buildProfile(f, now)

	cur, exists, err := getProfile(tx)
	if err != nil {
		return err
	}
	if !exists {
		if err := insertProfile(tx, p); err != nil {
			return err
		}
		r.stats.addInserted("profile")
		return recordProvenance(tx, "profile", 1, src, row.rowid)
	}

	merged := cur
	dedup.MergeProfile(&merged, p)
	if merged != cur {
		if err := updateProfile(tx, merged); err != nil {
			return err
		}
	}
	r.stats.addMerged("profile")
	return recordProvenance(tx, "profile", 1, src, row.rowid)
}
