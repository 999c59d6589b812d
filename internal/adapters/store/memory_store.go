package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jobtrack/mailscan/internal/core"
)

// MemoryStore is an in-memory implementation of the ApplicationStore
// interface, used by the demo harness and tests
type MemoryStore struct {
	mu           sync.RWMutex
	companies    map[string]core.Company
	applications map[string]core.Application
	stages       []Stage
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:    make(map[string]core.Company),
		applications: make(map[string]core.Application),
	}
}

// AddCompany seeds a company record
func (s *MemoryStore) AddCompany(company core.Company) core.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	if company.CompanyID == "" {
		company.CompanyID = newID("cmp_")
	}
	if company.CreatedAt == 0 {
		company.CreatedAt = time.Now().Unix()
	}
	s.companies[company.CompanyID] = company
	return company
}

// AddApplication seeds an application record
func (s *MemoryStore) AddApplication(app core.Application) core.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ApplicationID == "" {
		app.ApplicationID = newID("app_")
	}
	if app.Status == core.StatusNone {
		app.Status = core.StatusNew
	}
	now := time.Now().Unix()
	if app.AppliedAt == 0 {
		app.AppliedAt = now
	}
	app.LastUpdate = now
	s.applications[app.ApplicationID] = app
	return app
}

// ListCompanies returns every company, ordered by name for determinism
func (s *MemoryStore) ListCompanies(ctx context.Context) ([]core.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ApplicationsForCompany returns the applications tracked for a company
func (s *MemoryStore) ApplicationsForCompany(ctx context.Context, companyID string) ([]core.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Application
	for _, a := range s.applications {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	return out, nil
}

// GetApplication returns a seeded application by ID
func (s *MemoryStore) GetApplication(applicationID string) (core.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[applicationID]
	return app, ok
}

// UpdateApplicationStatus writes the new status, appends the note and records
// a stage audit entry
func (s *MemoryStore) UpdateApplicationStatus(ctx context.Context, applicationID string, status core.Status, noteAppend string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return fmt.Errorf("application %s not found", applicationID)
	}

	now := time.Now()
	app.Status = status
	if app.Notes == "" {
		app.Notes = noteAppend
	} else {
		app.Notes = app.Notes + "\n" + noteAppend
	}
	app.LastUpdate = now.Unix()
	s.applications[applicationID] = app

	s.stages = append(s.stages, Stage{
		StageID:       newID("stg_"),
		ApplicationID: applicationID,
		Stage:         fmt.Sprintf("Email: %s", status),
		Date:          now.Format("2006-01-02"),
		Outcome:       string(status),
		Notes:         noteAppend,
	})
	return nil
}

// Stages returns all recorded stage audit entries
func (s *MemoryStore) Stages() []Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}
