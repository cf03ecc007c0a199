package migrate

import (
	"database/sql"
	"errors"
	"time"

	"jobhunt-consolidate/internal/config"
	"jobhunt-consolidate/internal/domain"
)

// All writes happen inside the per-table transaction; every helper takes
// the open *sql.Tx rather than the pool.

// absorbed reports whether a source row was already consolidated by an
// earlier run. Read errors other than "no row" must surface: treating
// them as not-absorbed would silently re-process the row.
func absorbed(tx *sql.Tx, entity string, src config.Source, rowid int64) (bool, error) {
	var one int
	err := tx.QueryRow(`
SELECT 1 FROM provenance
WHERE entity_type = ? AND source_db = ? AND source_table = ? AND source_row_id = ?
LIMIT 1;`, entity, src.Path, src.Table, rowid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func recordProvenance(tx *sql.Tx, entity string, entityID int64, src config.Source, rowid int64) error {
	_, err := tx.Exec(`
INSERT OR IGNORE INTO provenance (entity_type, entity_id, source_db, source_table, source_row_id, absorbed_at)
VALUES (?, ?, ?, ?, ?, ?);`,
		entity, entityID, src.Path, src.Table, rowid, time.Now().UTC().Format(time.RFC3339))
	return err
}

func getCompany(tx *sql.Tx, id int64) (domain.Company, error) {
	var c domain.Company
	err := tx.QueryRow(`
SELECT id, name, normalized_name, industry, location, size, notes, needs_review, created_at, updated_at
FROM companies WHERE id = ?;`, id).Scan(
		&c.ID, &c.Name, &c.NormalizedName, &c.Industry, &c.Location, &c.Size,
		&c.Notes, &c.NeedsReview, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func insertCompany(tx *sql.Tx, c domain.Company) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO companies (name, normalized_name, industry, location, size, notes, needs_review, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		c.Name, c.NormalizedName, c.Industry, c.Location, c.Size, c.Notes,
		c.NeedsReview, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func updateCompany(tx *sql.Tx, c domain.Company) error {
	_, err := tx.Exec(`
UPDATE companies
SET name = ?, industry = ?, location = ?, size = ?, notes = ?, updated_at = ?, created_at = ?
WHERE id = ?;`,
		c.Name, c.Industry, c.Location, c.Size, c.Notes, c.UpdatedAt, c.CreatedAt, c.ID)
	return err
}

func getJob(tx *sql.Tx, id int64) (domain.Job, error) {
	var j domain.Job
	var companyID sql.NullInt64
	err := tx.QueryRow(`
SELECT id, company_id, company, title, normalized_title, location, work_mode, url,
       salary_min, salary_max, description, source, needs_review, created_at, updated_at
FROM jobs WHERE id = ?;`, id).Scan(
		&j.ID, &companyID, &j.CompanyName, &j.Title, &j.NormalizedTitle, &j.Location,
		&j.WorkMode, &j.URL, &j.SalaryMin, &j.SalaryMax, &j.Description, &j.Source,
		&j.NeedsReview, &j.CreatedAt, &j.UpdatedAt)
	if companyID.Valid {
		j.CompanyID = &companyID.Int64
	}
	return j, err
}

func insertJob(tx *sql.Tx, j domain.Job) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO jobs (company_id, company, title, normalized_title, location, work_mode, url,
                  salary_min, salary_max, description, source, needs_review, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		nullID(j.CompanyID), j.CompanyName, j.Title, j.NormalizedTitle, j.Location,
		j.WorkMode, j.URL, j.SalaryMin, j.SalaryMax, j.Description, j.Source,
		j.NeedsReview, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func updateJob(tx *sql.Tx, j domain.Job) error {
	_, err := tx.Exec(`
UPDATE jobs
SET title = ?, location = ?, work_mode = ?, url = ?, salary_min = ?, salary_max = ?,
    description = ?, created_at = ?, updated_at = ?
WHERE id = ?;`,
		j.Title, j.Location, j.WorkMode, j.URL, j.SalaryMin, j.SalaryMax,
		j.Description, j.CreatedAt, j.UpdatedAt, j.ID)
	return err
}

func getApplication(tx *sql.Tx, id int64) (domain.Application, error) {
	var a domain.Application
	err := tx.QueryRow(`
SELECT id, job_id, status, applied_at, responded_at, notes, created_at, updated_at
FROM applications WHERE id = ?;`, id).Scan(
		&a.ID, &a.JobID, &a.Status, &a.AppliedAt, &a.RespondedAt, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func insertApplication(tx *sql.Tx, a domain.Application) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO applications (job_id, status, applied_at, responded_at, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		a.JobID, a.Status, a.AppliedAt, a.RespondedAt, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func updateApplication(tx *sql.Tx, a domain.Application) error {
	_, err := tx.Exec(`
UPDATE applications
SET status = ?, applied_at = ?, responded_at = ?, notes = ?, created_at = ?, updated_at = ?
WHERE id = ?;`,
		a.Status, a.AppliedAt, a.RespondedAt, a.Notes, a.CreatedAt, a.UpdatedAt, a.ID)
	return err
}

func getContact(tx *sql.Tx, id int64) (domain.Contact, error) {
	var c domain.Contact
	var companyID sql.NullInt64
	err := tx.QueryRow(`
SELECT id, company_id, company, full_name, email, phone, role, linkedin_url, notes,
       needs_review, created_at, updated_at
FROM contacts WHERE id = ?;`, id).Scan(
		&c.ID, &companyID, &c.CompanyName, &c.FullName, &c.Email, &c.Phone, &c.Role,
		&c.LinkedInURL, &c.Notes, &c.NeedsReview, &c.CreatedAt, &c.UpdatedAt)
	if companyID.Valid {
		c.CompanyID = &companyID.Int64
	}
	return c, err
}

func insertContact(tx *sql.Tx, c domain.Contact) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO contacts (company_id, company, full_name, email, phone, role, linkedin_url,
                      notes, needs_review, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		nullID(c.CompanyID), c.CompanyName, c.FullName, c.Email, c.Phone, c.Role,
		c.LinkedInURL, c.Notes, c.NeedsReview, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func updateContact(tx *sql.Tx, c domain.Contact) error {
	_, err := tx.Exec(`
UPDATE contacts
SET full_name = ?, email = ?, phone = ?, role = ?, linkedin_url = ?, notes = ?,
    created_at = ?, updated_at = ?
WHERE id = ?;`,
		c.FullName, c.Email, c.Phone, c.Role, c.LinkedInURL, c.Notes,
		c.CreatedAt, c.UpdatedAt, c.ID)
	return err
}

// insertEmailIgnore inserts an email unless the exact same communication
// is already recorded, and returns the canonical id either way.
func insertEmailIgnore(tx *sql.Tx, e domain.Email) (id int64, added bool, err error) {
	_, err = tx.Exec(`
INSERT OR IGNORE INTO emails (application_id, contact_id, direction, subject, body, sent_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		nullID(e.ApplicationID), nullID(e.ContactID), e.Direction, e.Subject, e.Body,
		e.SentAt, e.CreatedAt)
	if err != nil {
		return 0, false, err
	}

	// SQLite doesn't report rows affected reliably with IGNORE across
	// drivers; SELECT changes() does.
	var changes int
	if err := tx.QueryRow(`SELECT changes();`).Scan(&changes); err != nil {
		return 0, false, err
	}
	err = tx.QueryRow(`
SELECT id FROM emails
WHERE direction = ? AND subject = ? AND sent_at = ?
  AND ifnull(application_id, 0) = ? AND ifnull(contact_id, 0) = ?
LIMIT 1;`,
		e.Direction, e.Subject, e.SentAt, zeroID(e.ApplicationID), zeroID(e.ContactID)).Scan(&id)
	return id, changes > 0, err
}

func insertMetricIgnore(tx *sql.Tx, m domain.Metric) (id int64, added bool, err error) {
	_, err = tx.Exec(`
INSERT OR IGNORE INTO metrics (name, category, value, date, created_at)
VALUES (?, ?, ?, ?, ?);`,
		m.Name, m.Category, m.Value, m.Date, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, false, err
	}
	var changes int
	if err := tx.QueryRow(`SELECT changes();`).Scan(&changes); err != nil {
		return 0, false, err
	}
	err = tx.QueryRow(`SELECT id FROM metrics WHERE name = ? AND date = ? LIMIT 1;`,
		m.Name, m.Date).Scan(&id)
	return id, changes > 0, err
}

func getProfile(tx *sql.Tx) (domain.Profile, bool, error) {
	var p domain.Profile
	err := tx.QueryRow(`
SELECT id, full_name, email, phone, location, linkedin_url, github_url, summary, created_at, updated_at
FROM profile WHERE id = 1;`).Scan(
		&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Location, &p.LinkedInURL,
		&p.GitHubURL, &p.Summary, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, false, nil
	}
	return p, err == nil, err
}

func insertProfile(tx *sql.Tx, p domain.Profile) error {
	_, err := tx.Exec(`
INSERT INTO profile (id, full_name, email, phone, location, linkedin_url, github_url, summary, created_at, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		p.FullName, p.Email, p.Phone, p.Location, p.LinkedInURL, p.GitHubURL,
		p.Summary, p.CreatedAt, p.UpdatedAt)
	return err
}

func updateProfile(tx *sql.Tx, p domain.Profile) error {
	_, err := tx.Exec(`
UPDATE profile
SET full_name = ?, email = ?, phone = ?, location = ?, linkedin_url = ?, github_url = ?,
    summary = ?, created_at = ?, updated_at = ?
WHERE id = 1;`,
		p.FullName, p.Email, p.Phone, p.Location, p.LinkedInURL, p.GitHubURL,
		p.Summary, p.CreatedAt, p.UpdatedAt)
	return err
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func zeroID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
