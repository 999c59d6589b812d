package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tracker-test.db")
	s, err := NewSQLiteStore(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedApplication(t *testing.T, s *SQLiteStore, status core.Status) (core.Company, core.Application) {
	t.Helper()
	ctx := context.Background()
	company, err := s.CreateCompany(ctx, core.Company{Name: "Acme", Website: "https://acme.example.com"})
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	app, err := s.CreateApplication(ctx, core.Application{
		CompanyID: company.CompanyID,
		Position:  "Software Engineer",
		Status:    status,
	})
	if err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}
	return company, app
}

func TestSQLiteListCompanies(t *testing.T) {
	s := newTestStore(t)
	company, _ := seedApplication(t, s, core.StatusApplied)

	companies, err := s.ListCompanies(context.Background())
	if err != nil {
		t.Fatalf("ListCompanies failed: %v", err)
	}
	if len(companies) != 1 || companies[0].CompanyID != company.CompanyID {
		t.Fatalf("companies = %+v, want the seeded company", companies)
	}
}

func TestSQLiteApplicationsForCompany(t *testing.T) {
	s := newTestStore(t)
	company, app := seedApplication(t, s, core.StatusApplied)

	apps, err := s.ApplicationsForCompany(context.Background(), company.CompanyID)
	if err != nil {
		t.Fatalf("ApplicationsForCompany failed: %v", err)
	}
	if len(apps) != 1 || apps[0].ApplicationID != app.ApplicationID {
		t.Fatalf("apps = %+v, want the seeded application", apps)
	}
	if apps[0].Status != core.StatusApplied {
		t.Fatalf("status = %q, want applied", apps[0].Status)
	}
}

func TestSQLiteUpdateApplicationStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company, app := seedApplication(t, s, core.StatusApplied)

	note := "Auto-detected phone from email"
	if err := s.UpdateApplicationStatus(ctx, app.ApplicationID, core.StatusPhone, note); err != nil {
		t.Fatalf("UpdateApplicationStatus failed: %v", err)
	}

	apps, err := s.ApplicationsForCompany(ctx, company.CompanyID)
	if err != nil {
		t.Fatalf("ApplicationsForCompany failed: %v", err)
	}
	got := apps[0]
	if got.Status != core.StatusPhone {
		t.Fatalf("status = %q, want phone", got.Status)
	}
	if got.Notes != note {
		t.Fatalf("notes = %q, want the annotation", got.Notes)
	}
	if got.LastUpdate < app.LastUpdate {
		t.Fatalf("last_update not bumped: %d -> %d", app.LastUpdate, got.LastUpdate)
	}

	// Second update appends rather than overwrites
	if err := s.UpdateApplicationStatus(ctx, app.ApplicationID, core.StatusRejected, "second note"); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	apps, _ = s.ApplicationsForCompany(ctx, company.CompanyID)
	if want := note + "\nsecond note"; apps[0].Notes != want {
		t.Fatalf("notes = %q, want %q", apps[0].Notes, want)
	}
}

func TestSQLiteUpdateRecordsStageAudit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, app := seedApplication(t, s, core.StatusOnsite)

	if err := s.UpdateApplicationStatus(ctx, app.ApplicationID, core.StatusOffer, "matched: pleased to offer"); err != nil {
		t.Fatalf("UpdateApplicationStatus failed: %v", err)
	}

	stages, err := s.StagesForApplication(ctx, app.ApplicationID)
	if err != nil {
		t.Fatalf("StagesForApplication failed: %v", err)
	}
	if len(stages) != 1 {
		t.Fatalf("stages = %d, want 1 audit row", len(stages))
	}
	if stages[0].Stage != "Email: offer" || stages[0].Outcome != "offer" {
		t.Fatalf("unexpected stage row %+v", stages[0])
	}
	if !strings.Contains(stages[0].Notes, "pleased to offer") {
		t.Fatalf("stage notes = %q, want the matched keywords", stages[0].Notes)
	}
}

func TestSQLiteUpdateUnknownApplication(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateApplicationStatus(context.Background(), "app_missing", core.StatusOffer, "note")
	if err == nil {
		t.Fatal("expected error for unknown application")
	}
}
