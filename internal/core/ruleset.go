package core

import (
	"fmt"
	"strings"
	"time"
)

// StatusRule maps one pipeline status to its detection keywords and priority
type StatusRule struct {
	Keywords []string `yaml:"keywords"`
	Priority int      `yaml:"priority"`
}

// RuleSet is the declarative scan configuration: per-status keyword rules plus
// the global scan parameters and the last-successful-scan watermark. Values
// are passed explicitly so multiple rule sets can coexist (per test, per
// tenant) without shared process state. Only the scan coordinator mutates
// LastCheck.
type RuleSet struct {
	StatusRules         map[Status]StatusRule `yaml:"status_rules"`
	DaysBack            int                   `yaml:"days_back"`
	MaxEmailsPerCompany int                   `yaml:"max_emails_per_company"`
	ExcludeDomains      []string              `yaml:"exclude_domains"`
	LastCheck           *time.Time            `yaml:"last_check,omitempty"`
}

// Validate checks the rule set invariants: every rule status must be a member
// of the fixed pipeline and the scan parameters must be positive
func (rs *RuleSet) Validate() error {
	if len(rs.StatusRules) == 0 {
		return fmt.Errorf("rule set has no status rules")
	}
	for status, rule := range rs.StatusRules {
		if !status.IsValid() {
			return fmt.Errorf("status rule %q is not a pipeline status", status)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("status rule %q has no keywords", status)
		}
	}
	if rs.DaysBack <= 0 {
		return fmt.Errorf("days_back must be positive, got %d", rs.DaysBack)
	}
	if rs.MaxEmailsPerCompany <= 0 {
		return fmt.Errorf("max_emails_per_company must be positive, got %d", rs.MaxEmailsPerCompany)
	}
	return nil
}

// SenderExcluded reports whether a message sender is covered by the exclusion
// list. Entries containing "@" match as substrings of the full sender address
// (so "noreply@" catches noreply@anything); bare entries match the sender's
// domain exactly.
func (rs *RuleSet) SenderExcluded(sender string) bool {
	if len(rs.ExcludeDomains) == 0 {
		return false
	}
	lowered := strings.ToLower(sender)
	domain := senderDomain(lowered)
	for _, entry := range rs.ExcludeDomains {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "@") {
			if strings.Contains(lowered, entry) {
				return true
			}
		} else if entry == domain {
			return true
		}
	}
	return false
}

// senderDomain extracts the domain part of an address like
// `Name <user@example.com>` or a bare user@example.com
func senderDomain(sender string) string {
	addr := sender
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = addr[i+1:]
		addr = strings.TrimSuffix(strings.TrimSpace(addr), ">")
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return strings.TrimSpace(addr[at+1:])
}
