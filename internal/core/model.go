package core

import (
	"time"
)

// Company is the application tracker's company record
type Company struct {
	CompanyID string `db:"company_id"`
	Name      string `db:"name"`
	Location  string `db:"location"`
	Industry  string `db:"industry"`
	Website   string `db:"website"`
	Source    string `db:"source"`
	Rating    string `db:"rating"`
	CreatedAt int64  `db:"created_at"`
}

// Application is a tracked job application. The scan engine only reads
// CompanyID/Status and writes Status/Notes/LastUpdate; it never creates or
// deletes applications.
type Application struct {
	ApplicationID  string `db:"application_id"`
	CompanyID      string `db:"company_id"`
	Position       string `db:"position"`
	Status         Status `db:"status"`
	EmploymentType string `db:"employment_type"`
	SalaryMin      *int64 `db:"salary_min"`
	SalaryMax      *int64 `db:"salary_max"`
	Currency       string `db:"currency"`
	JobURL         string `db:"job_url"`
	AppliedAt      int64  `db:"applied_at"`
	LastUpdate     int64  `db:"last_update"`
	Notes          string `db:"notes"`
}

// MessageSummary is one mailbox message as seen by the scan engine. It is
// produced per scan by the mailbox reader and never persisted.
type MessageSummary struct {
	Sender      string
	Subject     string
	BodyExcerpt string
	ReceivedAt  time.Time
	CompanyHint string
}

// ClassificationResult is the outcome of classifying a single message.
// Status is StatusNone when no rule matched or the sender was excluded.
type ClassificationResult struct {
	Status          Status
	MatchedKeywords []string
	Priority        int
}

// SkipReason tags why a message or update was skipped during a scan
type SkipReason string

const (
	SkipNoCandidate    SkipReason = "no_candidate"
	SkipExcludedDomain SkipReason = "excluded_domain"
	SkipTerminalLocked SkipReason = "terminal_locked"
	SkipNoProgress     SkipReason = "no_progress"
	SkipUpdateFailed   SkipReason = "update_failed"
	SkipMailboxError   SkipReason = "mailbox_error"
)

// StatusUpdate records one applied (or dry-run) status change
type StatusUpdate struct {
	ApplicationID   string
	CompanyName     string
	OldStatus       Status
	NewStatus       Status
	MatchedKeywords []string
	Subject         string
}

// SkipEntry records one skipped message or failed update with its reason
type SkipEntry struct {
	Reason SkipReason
	Detail string
}

// ScanOutcome summarizes a single scan run. It is returned to the caller and
// logged; it is not persisted.
type ScanOutcome struct {
	StartedAt           time.Time
	MessagesScanned     int
	ApplicationsUpdated []StatusUpdate
	Skipped             []SkipEntry
}
