package core

import (
	"context"
	"fmt"
	"time"
)

// MailboxReader is the external mailbox collaborator. Implementations own
// authentication and company association; the scan engine never depends on a
// specific mail provider or auth mechanism.
type MailboxReader interface {
	// OpenSession establishes the mailbox session. A failure here is fatal
	// for the whole scan run.
	OpenSession(ctx context.Context) error

	// FetchMessages returns up to limit messages associated with the named
	// company and received after since, ordered oldest-first. The limit is
	// enforced at fetch time, not by post-filtering.
	FetchMessages(ctx context.Context, companyName string, since time.Time, limit int) ([]MessageSummary, error)
}

// ApplicationStore is the external application store collaborator
type ApplicationStore interface {
	// ListCompanies returns every company known to the store
	ListCompanies(ctx context.Context) ([]Company, error)

	// ApplicationsForCompany returns the applications tracked for a company
	ApplicationsForCompany(ctx context.Context, companyID string) ([]Application, error)

	// UpdateApplicationStatus writes a new status, appends a note and bumps
	// the application's last_update timestamp
	UpdateApplicationStatus(ctx context.Context, applicationID string, status Status, noteAppend string) error
}

// MailboxError wraps a mailbox auth/network failure
type MailboxError struct {
	Op  string
	Err error
}

func (e *MailboxError) Error() string {
	return fmt.Sprintf("mailbox %s: %v", e.Op, e.Err)
}

func (e *MailboxError) Unwrap() error { return e.Err }

// StoreError wraps an application store read/write failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
