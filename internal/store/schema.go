package store

import (
	"database/sql"
	"fmt"
)

// Tables is the set of canonical tables the consolidation target carries.
var Tables = []string{
	"companies", "jobs", "applications", "contacts", "emails",
	"metrics", "profile", "system_log", "provenance",
}

// Indexes that must exist alongside the tables.
var Indexes = []string{
	"idx_companies_normalized_name",
	"idx_jobs_company_title",
	"idx_contacts_email",
	"idx_metrics_name_date",
	"idx_emails_identity",
	"idx_provenance_entity",
	"idx_provenance_source",
}

// Migrate creates schema v1 on a fresh target and is a no-op on a target
// that already carries it.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS companies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  normalized_name TEXT NOT NULL DEFAULT '',
  industry TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  size TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  needs_review INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company_id INTEGER REFERENCES companies(id),
  company TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  normalized_title TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  work_mode TEXT NOT NULL DEFAULT 'unknown',
  url TEXT NOT NULL DEFAULT '',
  salary_min INTEGER NOT NULL DEFAULT 0,
  salary_max INTEGER NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  needs_review INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id INTEGER NOT NULL REFERENCES jobs(id),
  status TEXT NOT NULL DEFAULT 'new',
  applied_at TEXT NOT NULL DEFAULT '',
  responded_at TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS contacts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company_id INTEGER REFERENCES companies(id),
  company TEXT NOT NULL DEFAULT '',
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT '',
  linkedin_url TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  needs_review INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  application_id INTEGER REFERENCES applications(id),
  contact_id INTEGER REFERENCES contacts(id),
  direction TEXT NOT NULL CHECK (direction IN ('sent','received')),
  subject TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL DEFAULT '',
  sent_at TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS metrics (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  value REAL NOT NULL DEFAULT 0,
  date TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS profile (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  linkedin_url TEXT NOT NULL DEFAULT '',
  github_url TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS system_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  at TEXT NOT NULL,
  level TEXT NOT NULL DEFAULT 'info',
  component TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS provenance (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entity_type TEXT NOT NULL,
  entity_id INTEGER NOT NULL,
  source_db TEXT NOT NULL,
  source_table TEXT NOT NULL,
  source_row_id INTEGER NOT NULL,
  absorbed_at TEXT NOT NULL
);`,

		// ---- Schema v1: indexes ----

		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_normalized_name
ON companies(normalized_name)
WHERE normalized_name != '' AND needs_review = 0;`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_company_title
ON jobs(company_id, normalized_title)
WHERE company_id IS NOT NULL AND normalized_title != '';`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_email
ON contacts(email)
WHERE email != '';`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_metrics_name_date
ON metrics(name, date);`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_emails_identity
ON emails(direction, subject, sent_at, ifnull(application_id, 0), ifnull(contact_id, 0));`,
		`
CREATE INDEX IF NOT EXISTS idx_provenance_entity
ON provenance(entity_type, entity_id);`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_provenance_source
ON provenance(entity_type, source_db, source_table, source_row_id);`,

		// ---- Schema v1: updated_at refresh triggers ----

		updateTrigger("companies"),
		updateTrigger("jobs"),
		updateTrigger("applications"),
		updateTrigger("contacts"),
		updateTrigger("profile"),
	}

	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("schema v1: %w", err)
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func updateTrigger(table string) string {
	return fmt.Sprintf(`
CREATE TRIGGER IF NOT EXISTS trg_%s_updated_at
AFTER UPDATE ON %s
WHEN NEW.updated_at = OLD.updated_at
BEGIN
  UPDATE %s SET updated_at = strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now') WHERE id = NEW.id;
END;`, table, table, table)
}
