package rules

import (
	"github.com/jobtrack/mailscan/internal/core"
)

// Defaults returns the built-in rule set. Rejections carry the highest
// priority so a rejection email wins over interview-sounding phrases that
// often appear in the same message.
func Defaults() *core.RuleSet {
	return &core.RuleSet{
		StatusRules: map[core.Status]core.StatusRule{
			core.StatusRejected: {
				Priority: 100,
				Keywords: []string{
					"unfortunately", "regret", "not moving forward", "not selected",
					"passed on", "pursuing other candidates", "will not be proceeding",
					"not the right fit", "position has been filled",
					"move forward with other candidates", "will not be moving forward",
					"have decided to go with",
				},
			},
			core.StatusOffer: {
				Priority: 90,
				Keywords: []string{
					"pleased to offer", "offer letter", "job offer", "congratulations",
					"pleased to extend", "terms of employment", "compensation package",
					"start date",
				},
			},
			core.StatusOnsite: {
				Priority: 60,
				Keywords: []string{
					"onsite interview", "on-site interview", "final round",
					"visit our office", "meet the team",
				},
			},
			core.StatusTechnical: {
				Priority: 50,
				Keywords: []string{
					"technical interview", "technical assessment", "coding challenge",
					"take-home", "pair programming",
				},
			},
			core.StatusPhone: {
				Priority: 40,
				Keywords: []string{
					"phone screen", "phone interview", "screening call",
					"would like to schedule", "available for a call",
				},
			},
			core.StatusRecruiter: {
				Priority: 20,
				Keywords: []string{
					"recruiter", "talent acquisition", "hiring manager",
					"reviewing your profile", "discuss further",
				},
			},
			core.StatusApplied: {
				Priority: 10,
				Keywords: []string{
					"received your application", "application received",
					"thank you for applying",
				},
			},
		},
		DaysBack:            7,
		MaxEmailsPerCompany: 10,
		ExcludeDomains:      []string{"noreply@", "no-reply@", "donotreply@"},
	}
}
