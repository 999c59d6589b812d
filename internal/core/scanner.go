package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ScanOptions are the per-run options resolved by the caller (CLI flags or
// scheduler defaults)
type ScanOptions struct {
	// DryRun reports the updates a scan would make without writing to the
	// store or advancing the watermark
	DryRun bool

	// DaysOverride replaces the rule set's days_back lookback when positive
	DaysOverride int
}

// Scanner orchestrates one scan run: it pulls candidate messages per company,
// applies quotas and exclusions, classifies each message, applies the
// progression policy and writes (or reports) the resulting status updates.
//
// Two scans for the same mailbox and store must not run concurrently; the
// watermark and the forward-only progression rule are not safe under
// interleaved writes. The scheduler is responsible for serializing runs.
type Scanner struct {
	mailbox    MailboxReader
	store      ApplicationStore
	classifier *Classifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewScanner creates a new scanner
func NewScanner(mailbox MailboxReader, store ApplicationStore, classifier *Classifier, logger *zap.Logger) *Scanner {
	return &Scanner{
		mailbox:    mailbox,
		store:      store,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one scan over every company known to the store.
//
// Failures opening the mailbox session or listing companies are fatal and
// leave the watermark untouched, so the next run re-covers the same window.
// Per-company mailbox failures and per-application store failures degrade to
// skip entries and never abort the run. The run may be cancelled between
// companies; the partial outcome is still returned.
//
// On success (not dry-run) the rule set's LastCheck is set to the scan's
// start time; persisting the updated rule set is the caller's job.
func (s *Scanner) Run(ctx context.Context, rs *RuleSet, opts ScanOptions) (*ScanOutcome, error) {
	start := s.now()
	outcome := &ScanOutcome{StartedAt: start}

	days := rs.DaysBack
	if opts.DaysOverride > 0 {
		days = opts.DaysOverride
	}
	cutoff := start.AddDate(0, 0, -days)

	s.logger.Info("Starting scan",
		zap.Int("days_back", days),
		zap.Time("cutoff", cutoff),
		zap.Bool("dry_run", opts.DryRun))

	if err := s.mailbox.OpenSession(ctx); err != nil {
		return outcome, &MailboxError{Op: "open session", Err: err}
	}

	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return outcome, &StoreError{Op: "list companies", Err: err}
	}

	for _, company := range companies {
		// Cancellation checkpoint between companies
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Scan cancelled", zap.String("company", company.Name))
			return outcome, err
		}
		s.scanCompany(ctx, rs, opts, company, cutoff, outcome)
	}

	if !opts.DryRun {
		rs.LastCheck = &start
	}

	s.logger.Info("Scan finished",
		zap.Int("messages_scanned", outcome.MessagesScanned),
		zap.Int("applications_updated", len(outcome.ApplicationsUpdated)),
		zap.Int("skipped", len(outcome.Skipped)))

	return outcome, nil
}

// scanCompany processes every in-window message for one company. Messages are
// handled oldest-first so that later, more advanced statuses win under the
// forward-only rule.
func (s *Scanner) scanCompany(ctx context.Context, rs *RuleSet, opts ScanOptions, company Company, cutoff time.Time, outcome *ScanOutcome) {
	messages, err := s.mailbox.FetchMessages(ctx, company.Name, cutoff, rs.MaxEmailsPerCompany)
	if err != nil {
		s.logger.Warn("Mailbox fetch failed for company",
			zap.String("company", company.Name),
			zap.Error(err))
		outcome.Skipped = append(outcome.Skipped, SkipEntry{
			Reason: SkipMailboxError,
			Detail: fmt.Sprintf("%s: %v", company.Name, err),
		})
		return
	}
	if len(messages) == 0 {
		return
	}

	apps, err := s.store.ApplicationsForCompany(ctx, company.CompanyID)
	if err != nil {
		outcome.Skipped = append(outcome.Skipped, SkipEntry{
			Reason: SkipUpdateFailed,
			Detail: fmt.Sprintf("list applications for %s: %v", company.Name, err),
		})
		return
	}

	for _, msg := range messages {
		outcome.MessagesScanned++

		if rs.SenderExcluded(msg.Sender) {
			outcome.Skipped = append(outcome.Skipped, SkipEntry{
				Reason: SkipExcludedDomain,
				Detail: fmt.Sprintf("%s: %s", msg.Sender, msg.Subject),
			})
			continue
		}

		result := s.classifier.Classify(msg, rs)
		if result.Status == StatusNone {
			outcome.Skipped = append(outcome.Skipped, SkipEntry{
				Reason: SkipNoCandidate,
				Detail: fmt.Sprintf("%s: %s", company.Name, msg.Subject),
			})
			continue
		}

		for i := range apps {
			s.applyUpdate(ctx, opts, company, &apps[i], msg, result, outcome)
		}
	}
}

// applyUpdate runs the progression policy for one application and, unless
// dry-run, writes the accepted update through the store. The in-memory copy
// is advanced either way so later messages in the same run progress from the
// new status.
func (s *Scanner) applyUpdate(ctx context.Context, opts ScanOptions, company Company, app *Application, msg MessageSummary, result ClassificationResult, outcome *ScanOutcome) {
	next, ok := Advance(app.Status, result.Status)
	if !ok {
		reason := SkipNoProgress
		if app.Status.IsTerminal() {
			reason = SkipTerminalLocked
		}
		outcome.Skipped = append(outcome.Skipped, SkipEntry{
			Reason: reason,
			Detail: fmt.Sprintf("%s: %s -> %s", app.ApplicationID, app.Status, result.Status),
		})
		return
	}

	if !opts.DryRun {
		note := updateNote(result, msg)
		if err := s.store.UpdateApplicationStatus(ctx, app.ApplicationID, next, note); err != nil {
			s.logger.Error("Failed to update application",
				zap.String("application_id", app.ApplicationID),
				zap.Error(err))
			outcome.Skipped = append(outcome.Skipped, SkipEntry{
				Reason: SkipUpdateFailed,
				Detail: fmt.Sprintf("%s: %v", app.ApplicationID, err),
			})
			return
		}
	}

	s.logger.Info("Application status advanced",
		zap.String("application_id", app.ApplicationID),
		zap.String("company", company.Name),
		zap.String("old_status", string(app.Status)),
		zap.String("new_status", string(next)),
		zap.Bool("dry_run", opts.DryRun))

	outcome.ApplicationsUpdated = append(outcome.ApplicationsUpdated, StatusUpdate{
		ApplicationID:   app.ApplicationID,
		CompanyName:     company.Name,
		OldStatus:       app.Status,
		NewStatus:       next,
		MatchedKeywords: result.MatchedKeywords,
		Subject:         msg.Subject,
	})
	app.Status = next
}

// updateNote builds the notes annotation naming the matched keywords and the
// triggering message
func updateNote(result ClassificationResult, msg MessageSummary) string {
	subject := msg.Subject
	if len(subject) > 100 {
		subject = subject[:100]
	}
	return fmt.Sprintf("Auto-detected %s from email %q (matched: %s) at %s",
		result.Status, subject,
		strings.Join(result.MatchedKeywords, ", "),
		msg.ReceivedAt.Format("2006-01-02"))
}
