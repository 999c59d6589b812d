// Package store provides ApplicationStore implementations backed by SQLite,
// MySQL and process memory.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	company_id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	location TEXT DEFAULT '',
	industry TEXT DEFAULT '',
	website TEXT DEFAULT '',
	source TEXT DEFAULT '',
	rating TEXT DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	application_id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(company_id),
	position TEXT NOT NULL,
	status TEXT DEFAULT 'new',
	employment_type TEXT DEFAULT '',
	salary_min INTEGER,
	salary_max INTEGER,
	currency TEXT DEFAULT 'USD',
	job_url TEXT DEFAULT '',
	applied_at INTEGER NOT NULL,
	last_update INTEGER NOT NULL,
	notes TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS contacts (
	contact_id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(company_id),
	name TEXT NOT NULL,
	title TEXT DEFAULT '',
	email TEXT DEFAULT '',
	phone TEXT DEFAULT '',
	notes TEXT DEFAULT '',
	last_contacted TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stages (
	stage_id TEXT PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications(application_id),
	stage TEXT NOT NULL,
	date TEXT DEFAULT '',
	outcome TEXT DEFAULT '',
	notes TEXT DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company_id);
CREATE INDEX IF NOT EXISTS idx_stages_application ON stages(application_id);
`

// SQLiteStore is a SQLite implementation of the ApplicationStore interface
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the tracker database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// ListCompanies returns every company known to the store
func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]core.Company, error) {
	var companies []core.Company
	err := s.db.SelectContext(ctx, &companies, `SELECT * FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// ApplicationsForCompany returns the applications tracked for a company
func (s *SQLiteStore) ApplicationsForCompany(ctx context.Context, companyID string) ([]core.Application, error) {
	var apps []core.Application
	err := s.db.SelectContext(ctx, &apps,
		`SELECT * FROM applications WHERE company_id = ? ORDER BY applied_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus writes the new status, appends the note, bumps
// last_update and records a stage audit row, all in one transaction
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, applicationID string, status core.Status, noteAppend string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = ?,
		    notes = CASE WHEN notes = '' THEN ? ELSE notes || char(10) || ? END,
		    last_update = ?
		WHERE application_id = ?
	`, status, noteAppend, noteAppend, now.Unix(), applicationID)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("application %s not found", applicationID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stages (stage_id, application_id, stage, date, outcome, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, newID("stg_"), applicationID, fmt.Sprintf("Email: %s", status),
		now.Format("2006-01-02"), string(status), noteAppend)
	if err != nil {
		return fmt.Errorf("failed to record stage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}

	s.logger.Debug("Updated application status",
		zap.String("application_id", applicationID),
		zap.String("status", string(status)))
	return nil
}

// CreateCompany inserts a company record and returns it with a generated ID
func (s *SQLiteStore) CreateCompany(ctx context.Context, company core.Company) (core.Company, error) {
	company.CompanyID = newID("cmp_")
	company.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (company_id, name, location, industry, website, source, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, company.CompanyID, company.Name, company.Location, company.Industry,
		company.Website, company.Source, company.Rating, company.CreatedAt)
	if err != nil {
		return core.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// CreateApplication inserts an application record and returns it with a
// generated ID
func (s *SQLiteStore) CreateApplication(ctx context.Context, app core.Application) (core.Application, error) {
	app.ApplicationID = newID("app_")
	now := time.Now().Unix()
	app.AppliedAt = now
	app.LastUpdate = now
	if app.Status == core.StatusNone {
		app.Status = core.StatusNew
	}
	if app.Currency == "" {
		app.Currency = "USD"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (application_id, company_id, position, status, employment_type,
			salary_min, salary_max, currency, job_url, applied_at, last_update, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, app.ApplicationID, app.CompanyID, app.Position, app.Status, app.EmploymentType,
		app.SalaryMin, app.SalaryMax, app.Currency, app.JobURL, app.AppliedAt, app.LastUpdate, app.Notes)
	if err != nil {
		return core.Application{}, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// StagesForApplication returns the audit stages recorded for an application
func (s *SQLiteStore) StagesForApplication(ctx context.Context, applicationID string) ([]Stage, error) {
	var stages []Stage
	err := s.db.SelectContext(ctx, &stages,
		`SELECT * FROM stages WHERE application_id = ? ORDER BY stage_id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	return stages, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stage is the audit-trail row written alongside every email-driven update
type Stage struct {
	StageID       string `db:"stage_id"`
	ApplicationID string `db:"application_id"`
	Stage         string `db:"stage"`
	Date          string `db:"date"`
	Outcome       string `db:"outcome"`
	Notes         string `db:"notes"`
}

// newID generates a unique-ish identifier with a table prefix
func newID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
