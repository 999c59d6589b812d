package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/core"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		company_id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		location VARCHAR(255) NOT NULL DEFAULT '',
		industry VARCHAR(255) NOT NULL DEFAULT '',
		website VARCHAR(255) NOT NULL DEFAULT '',
		source VARCHAR(255) NOT NULL DEFAULT '',
		rating VARCHAR(64) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		application_id VARCHAR(64) PRIMARY KEY,
		company_id VARCHAR(64) NOT NULL,
		position VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'new',
		employment_type VARCHAR(64) NOT NULL DEFAULT '',
		salary_min BIGINT NULL,
		salary_max BIGINT NULL,
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		job_url VARCHAR(512) NOT NULL DEFAULT '',
		applied_at BIGINT NOT NULL,
		last_update BIGINT NOT NULL,
		notes TEXT,
		INDEX idx_applications_company (company_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		stage_id VARCHAR(64) PRIMARY KEY,
		application_id VARCHAR(64) NOT NULL,
		stage VARCHAR(128) NOT NULL,
		date VARCHAR(32) NOT NULL DEFAULT '',
		outcome VARCHAR(64) NOT NULL DEFAULT '',
		notes TEXT,
		INDEX idx_stages_application (application_id)
	)`,
}

// MySQLStore is a MySQL implementation of the ApplicationStore interface
type MySQLStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMySQLStore connects to the tracker database described by the DSN
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}
	for _, stmt := range mysqlSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &MySQLStore{db: db, logger: logger}, nil
}

// ListCompanies returns every company known to the store
func (s *MySQLStore) ListCompanies(ctx context.Context) ([]core.Company, error) {
	var companies []core.Company
	err := s.db.SelectContext(ctx, &companies, `SELECT * FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// ApplicationsForCompany returns the applications tracked for a company
func (s *MySQLStore) ApplicationsForCompany(ctx context.Context, companyID string) ([]core.Application, error) {
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
func (s *MySQLStore) UpdateApplicationStatus(ctx context.Context, applicationID string, status core.Status, noteAppend string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = ?,
		    notes = CASE WHEN notes = '' OR notes IS NULL THEN ? ELSE CONCAT(notes, '\n', ?) END,
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

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
