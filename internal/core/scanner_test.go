package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fetchCall struct {
	company string
	since   time.Time
	limit   int
}

type fakeMailbox struct {
	openErr   error
	messages  map[string][]MessageSummary
	fetchErr  map[string]error
	calls    []fetchCall
	onFetch  func(company string)
}

func (f *fakeMailbox) OpenSession(ctx context.Context) error {
	return f.openErr
}

func (f *fakeMailbox) FetchMessages(ctx context.Context, company string, since time.Time, limit int) ([]MessageSummary, error) {
	f.calls = append(f.calls, fetchCall{company: company, since: since, limit: limit})
	if f.onFetch != nil {
		f.onFetch(company)
	}
	if err := f.fetchErr[company]; err != nil {
		return nil, err
	}
	msgs := f.messages[company]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

type updateCall struct {
	applicationID string
	status        Status
	note          string
}

type fakeStore struct {
	companies []Company
	apps      map[string][]Application
	appsErr   map[string]error
	updateErr map[string]error
	updates   []updateCall
}

func (f *fakeStore) ListCompanies(ctx context.Context) ([]Company, error) {
	return f.companies, nil
}

func (f *fakeStore) ApplicationsForCompany(ctx context.Context, companyID string) ([]Application, error) {
	if err := f.appsErr[companyID]; err != nil {
		return nil, err
	}
	return f.apps[companyID], nil
}

func (f *fakeStore) UpdateApplicationStatus(ctx context.Context, applicationID string, status Status, noteAppend string) error {
	if err := f.updateErr[applicationID]; err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{applicationID: applicationID, status: status, note: noteAppend})
	return nil
}

func newTestScanner(t *testing.T, mailbox *fakeMailbox, store *fakeStore) *Scanner {
	t.Helper()
	return NewScanner(mailbox, store, NewClassifier(zap.NewNop()), zap.NewNop())
}

func scanRuleSet() *RuleSet {
	rs := testRuleSet()
	rs.ExcludeDomains = []string{"noreply@"}
	return rs
}

func skipReasons(outcome *ScanOutcome) map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, entry := range outcome.Skipped {
		counts[entry.Reason]++
	}
	return counts
}

func TestScanAppliesForwardUpdate(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]MessageSummary{
		"Acme": {message("hr@acme.com", "Next steps", "we would like to do a phone screen")},
	}}
	st := &fakeStore{
		companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusApplied}},
		},
	}
	rs := scanRuleSet()

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), rs, ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.MessagesScanned != 1 {
		t.Fatalf("messages scanned = %d, want 1", outcome.MessagesScanned)
	}
	if len(st.updates) != 1 {
		t.Fatalf("store updates = %d, want 1", len(st.updates))
	}
	if st.updates[0].applicationID != "app_1" || st.updates[0].status != StatusPhone {
		t.Fatalf("unexpected update %+v", st.updates[0])
	}
	if st.updates[0].note == "" {
		t.Fatal("expected a notes annotation on the update")
	}
	if len(outcome.ApplicationsUpdated) != 1 {
		t.Fatalf("outcome updates = %d, want 1", len(outcome.ApplicationsUpdated))
	}
	got := outcome.ApplicationsUpdated[0]
	if got.OldStatus != StatusApplied || got.NewStatus != StatusPhone {
		t.Fatalf("unexpected outcome entry %+v", got)
	}
	if rs.LastCheck == nil || !rs.LastCheck.Equal(outcome.StartedAt) {
		t.Fatalf("watermark = %v, want scan start %v", rs.LastCheck, outcome.StartedAt)
	}
}

func TestScanDryRunMakesNoWrites(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]MessageSummary{
		"Acme": {message("hr@acme.com", "We are pleased to offer you the position", "")},
	}}
	st := &fakeStore{
		companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusOnsite}},
		},
	}
	rs := scanRuleSet()

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), rs, ScanOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcome.ApplicationsUpdated) != 1 {
		t.Fatalf("outcome updates = %d, want 1", len(outcome.ApplicationsUpdated))
	}
	if outcome.ApplicationsUpdated[0].NewStatus != StatusOffer {
		t.Fatalf("new status = %q, want offer", outcome.ApplicationsUpdated[0].NewStatus)
	}
	if len(st.updates) != 0 {
		t.Fatalf("store writes = %d, want 0 in dry-run", len(st.updates))
	}
	if rs.LastCheck != nil {
		t.Fatalf("watermark advanced in dry-run: %v", rs.LastCheck)
	}
}

func TestScanQuotaEnforcedAtFetch(t *testing.T) {
	var five []MessageSummary
	for i := 0; i < 5; i++ {
		five = append(five, message("hr@acme.com", "Company newsletter", ""))
	}
	mb := &fakeMailbox{messages: map[string][]MessageSummary{"Acme": five}}
	st := &fakeStore{
		companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusNew}},
		},
	}
	rs := scanRuleSet()
	rs.MaxEmailsPerCompany = 2

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), rs, ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mb.calls) != 1 || mb.calls[0].limit != 2 {
		t.Fatalf("fetch calls = %+v, want one call with limit 2", mb.calls)
	}
	if outcome.MessagesScanned != 2 {
		t.Fatalf("messages scanned = %d, want exactly the quota of 2", outcome.MessagesScanned)
	}
}

func TestScanDaysOverrideWindow(t *testing.T) {
	mb := &fakeMailbox{}
	st := &fakeStore{companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}}}
	scanner := newTestScanner(t, mb, st)
	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return start }

	if _, err := scanner.Run(context.Background(), scanRuleSet(), ScanOptions{DaysOverride: 3}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := start.AddDate(0, 0, -3)
	if len(mb.calls) != 1 || !mb.calls[0].since.Equal(want) {
		t.Fatalf("fetch since = %+v, want cutoff %v", mb.calls, want)
	}
}

func TestScanSkipReasons(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]MessageSummary{
		"Acme": {
			message("noreply@acme.com", "offer letter", ""),
			message("hr@acme.com", "Company newsletter", "nothing relevant"),
			message("hr@acme.com", "phone screen invite", ""),
		},
	}}
	st := &fakeStore{
		companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}},
		apps: map[string][]Application{
			"cmp_1": {
				{ApplicationID: "app_locked", CompanyID: "cmp_1", Status: StatusRejected},
				{ApplicationID: "app_ahead", CompanyID: "cmp_1", Status: StatusOnsite},
			},
		},
	}

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), scanRuleSet(), ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(st.updates) != 0 {
		t.Fatalf("store updates = %+v, want none", st.updates)
	}
	counts := skipReasons(outcome)
	if counts[SkipExcludedDomain] != 1 {
		t.Fatalf("excluded_domain skips = %d, want 1", counts[SkipExcludedDomain])
	}
	if counts[SkipNoCandidate] != 1 {
		t.Fatalf("no_candidate skips = %d, want 1", counts[SkipNoCandidate])
	}
	if counts[SkipTerminalLocked] != 1 {
		t.Fatalf("terminal_locked skips = %d, want 1", counts[SkipTerminalLocked])
	}
	if counts[SkipNoProgress] != 1 {
		t.Fatalf("no_progress skips = %d, want 1", counts[SkipNoProgress])
	}
}

func TestScanUpdateFailureIsolated(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]MessageSummary{
		"Acme":   {message("hr@acme.com", "phone screen", "")},
		"Globex": {message("hr@globex.com", "phone screen", "")},
	}}
	st := &fakeStore{
		companies: []Company{
			{CompanyID: "cmp_1", Name: "Acme"},
			{CompanyID: "cmp_2", Name: "Globex"},
		},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusApplied}},
			"cmp_2": {{ApplicationID: "app_2", CompanyID: "cmp_2", Status: StatusApplied}},
		},
		updateErr: map[string]error{"app_1": errors.New("disk full")},
	}
	rs := scanRuleSet()

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), rs, ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts := skipReasons(outcome); counts[SkipUpdateFailed] != 1 {
		t.Fatalf("update_failed skips = %d, want 1", counts[SkipUpdateFailed])
	}
	if len(st.updates) != 1 || st.updates[0].applicationID != "app_2" {
		t.Fatalf("store updates = %+v, want only app_2", st.updates)
	}
	if rs.LastCheck == nil {
		t.Fatal("per-item failure must not block the watermark")
	}
}

func TestScanApplicationListFailureIsolated(t *testing.T) {
	mb := &fakeMailbox{messages: map[string][]MessageSummary{
		"Acme":   {message("hr@acme.com", "phone screen", "")},
		"Globex": {message("hr@globex.com", "phone screen", "")},
	}}
	st := &fakeStore{
		companies: []Company{
			{CompanyID: "cmp_1", Name: "Acme"},
			{CompanyID: "cmp_2", Name: "Globex"},
		},
		apps: map[string][]Application{
			"cmp_2": {{ApplicationID: "app_2", CompanyID: "cmp_2", Status: StatusApplied}},
		},
		appsErr: map[string]error{"cmp_1": errors.New("table locked")},
	}

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), scanRuleSet(), ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts := skipReasons(outcome); counts[SkipUpdateFailed] != 1 {
		t.Fatalf("update_failed skips = %d, want 1", counts[SkipUpdateFailed])
	}
	if len(st.updates) != 1 || st.updates[0].applicationID != "app_2" {
		t.Fatalf("store updates = %+v, want only app_2", st.updates)
	}
}

func TestScanMailboxErrorIsolatedPerCompany(t *testing.T) {
	mb := &fakeMailbox{
		messages: map[string][]MessageSummary{
			"Globex": {message("hr@globex.com", "phone screen", "")},
		},
		fetchErr: map[string]error{"Acme": errors.New("connection reset")},
	}
	st := &fakeStore{
		companies: []Company{
			{CompanyID: "cmp_1", Name: "Acme"},
			{CompanyID: "cmp_2", Name: "Globex"},
		},
		apps: map[string][]Application{
			"cmp_2": {{ApplicationID: "app_2", CompanyID: "cmp_2", Status: StatusApplied}},
		},
	}

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), scanRuleSet(), ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts := skipReasons(outcome); counts[SkipMailboxError] != 1 {
		t.Fatalf("mailbox_error skips = %d, want 1", counts[SkipMailboxError])
	}
	if len(st.updates) != 1 || st.updates[0].applicationID != "app_2" {
		t.Fatalf("store updates = %+v, want only app_2", st.updates)
	}
}

func TestScanOpenSessionFailureIsFatal(t *testing.T) {
	mb := &fakeMailbox{openErr: errors.New("auth failed")}
	st := &fakeStore{companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}}}
	rs := scanRuleSet()

	_, err := newTestScanner(t, mb, st).Run(context.Background(), rs, ScanOptions{})
	if err == nil {
		t.Fatal("expected fatal error from session open failure")
	}
	var mbErr *MailboxError
	if !errors.As(err, &mbErr) {
		t.Fatalf("error type = %T, want *MailboxError", err)
	}
	if rs.LastCheck != nil {
		t.Fatalf("watermark advanced on failed run: %v", rs.LastCheck)
	}
	if len(mb.calls) != 0 {
		t.Fatalf("fetch calls after failed session open: %+v", mb.calls)
	}
}

func TestScanCancelledBetweenCompanies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mb := &fakeMailbox{
		messages: map[string][]MessageSummary{
			"Acme": {message("hr@acme.com", "phone screen", "")},
		},
		onFetch: func(company string) { cancel() },
	}
	st := &fakeStore{
		companies: []Company{
			{CompanyID: "cmp_1", Name: "Acme"},
			{CompanyID: "cmp_2", Name: "Globex"},
		},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusApplied}},
		},
	}
	rs := scanRuleSet()

	outcome, err := newTestScanner(t, mb, st).Run(ctx, rs, ScanOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// First company completed before the checkpoint; partial outcome returned
	if len(outcome.ApplicationsUpdated) != 1 {
		t.Fatalf("partial outcome updates = %d, want 1", len(outcome.ApplicationsUpdated))
	}
	if len(mb.calls) != 1 {
		t.Fatalf("fetch calls = %d, want 1 (second company never reached)", len(mb.calls))
	}
	if rs.LastCheck != nil {
		t.Fatalf("watermark advanced on cancelled run: %v", rs.LastCheck)
	}
}

func TestScanLaterMessageWinsOldestFirst(t *testing.T) {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	early := message("hr@acme.com", "phone screen invitation", "")
	early.ReceivedAt = base
	late := message("hr@acme.com", "Your application", "unfortunately we are not moving forward")
	late.ReceivedAt = base.Add(2 * time.Hour)

	mb := &fakeMailbox{messages: map[string][]MessageSummary{"Acme": {early, late}}}
	st := &fakeStore{
		companies: []Company{{CompanyID: "cmp_1", Name: "Acme"}},
		apps: map[string][]Application{
			"cmp_1": {{ApplicationID: "app_1", CompanyID: "cmp_1", Status: StatusApplied}},
		},
	}

	outcome, err := newTestScanner(t, mb, st).Run(context.Background(), scanRuleSet(), ScanOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcome.ApplicationsUpdated) != 2 {
		t.Fatalf("updates = %d, want applied->phone then phone->rejected", len(outcome.ApplicationsUpdated))
	}
	if outcome.ApplicationsUpdated[0].NewStatus != StatusPhone {
		t.Fatalf("first update = %+v, want phone", outcome.ApplicationsUpdated[0])
	}
	if outcome.ApplicationsUpdated[1].NewStatus != StatusRejected {
		t.Fatalf("second update = %+v, want rejected (terminal override)", outcome.ApplicationsUpdated[1])
	}
	if st.updates[len(st.updates)-1].status != StatusRejected {
		t.Fatalf("final store status = %q, want rejected", st.updates[len(st.updates)-1].status)
	}
}
