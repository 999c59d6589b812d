// scan-demo exercises the classifier and progression policy against canned
// messages, with no mailbox credentials or database required. Use it to tune
// keyword rules before pointing the daemon at a real inbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/adapters/mailbox"
	"github.com/jobtrack/mailscan/internal/adapters/store"
	"github.com/jobtrack/mailscan/internal/core"
	"github.com/jobtrack/mailscan/internal/logging"
	"github.com/jobtrack/mailscan/internal/rules"
)

var (
	rulesPath = flag.String("rules", "", "Rule set YAML to exercise (built-in defaults if empty)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ruleSet := rules.Defaults()
	if *rulesPath != "" {
		ruleSet, err = rules.Load(*rulesPath)
		if err != nil {
			logger.Fatal("Failed to load rule set", zap.Error(err))
		}
	}

	memStore := store.NewMemoryStore()
	reader := mailbox.NewStaticReader()
	seed(memStore, reader)

	scanner := core.NewScanner(reader, memStore, core.NewClassifier(logger), logger)

	fmt.Printf("\n=== Rule Set ===\n")
	fmt.Printf("Days back: %d\n", ruleSet.DaysBack)
	fmt.Printf("Max emails per company: %d\n", ruleSet.MaxEmailsPerCompany)
	fmt.Printf("Excluded senders: %s\n", strings.Join(ruleSet.ExcludeDomains, ", "))

	outcome, err := scanner.Run(context.Background(), ruleSet, core.ScanOptions{DryRun: true})
	if err != nil {
		logger.Fatal("Demo scan failed", zap.Error(err))
	}

	fmt.Printf("\n=== Scan Trace ===\n")
	fmt.Printf("Messages scanned: %d\n", outcome.MessagesScanned)
	fmt.Printf("Updates detected: %d\n", len(outcome.ApplicationsUpdated))
	for _, update := range outcome.ApplicationsUpdated {
		fmt.Printf("  %s: %s -> %s\n", update.CompanyName, update.OldStatus, update.NewStatus)
		fmt.Printf("    Subject: %s\n", update.Subject)
		fmt.Printf("    Matched: %s\n", strings.Join(update.MatchedKeywords, ", "))
	}
	fmt.Printf("\nSkipped: %d\n", len(outcome.Skipped))
	for _, entry := range outcome.Skipped {
		fmt.Printf("  [%s] %s\n", entry.Reason, entry.Detail)
	}
}

// seed loads the canned companies, applications and messages
func seed(memStore *store.MemoryStore, reader *mailbox.StaticReader) {
	now := time.Now()

	acme := memStore.AddCompany(core.Company{Name: "Acme"})
	memStore.AddApplication(core.Application{
		CompanyID: acme.CompanyID, Position: "Software Engineer", Status: core.StatusOnsite,
	})
	reader.Add("Acme", core.MessageSummary{
		Sender:      "recruiting@acme.com",
		Subject:     "We are pleased to offer you the position",
		BodyExcerpt: "Congratulations! Please find your offer letter attached.",
		ReceivedAt:  now.Add(-24 * time.Hour),
	})

	globex := memStore.AddCompany(core.Company{Name: "Globex"})
	memStore.AddApplication(core.Application{
		CompanyID: globex.CompanyID, Position: "Data Scientist", Status: core.StatusApplied,
	})
	reader.Add("Globex", core.MessageSummary{
		Sender:      "talent@globex.com",
		Subject:     "Next steps for your application",
		BodyExcerpt: "We would like to schedule a phone screen to discuss your background. Are you available for a call next week?",
		ReceivedAt:  now.Add(-48 * time.Hour),
	})
	reader.Add("Globex", core.MessageSummary{
		Sender:      "talent@globex.com",
		Subject:     "Thank you for your application",
		BodyExcerpt: "Unfortunately we have decided to move forward with other candidates.",
		ReceivedAt:  now.Add(-12 * time.Hour),
	})

	initech := memStore.AddCompany(core.Company{Name: "Initech"})
	memStore.AddApplication(core.Application{
		CompanyID: initech.CompanyID, Position: "Backend Developer", Status: core.StatusRejected,
	})
	reader.Add("Initech", core.MessageSummary{
		Sender:      "hr@initech.com",
		Subject:     "Technical interview invitation",
		BodyExcerpt: "We would like to invite you to a technical assessment.",
		ReceivedAt:  now.Add(-36 * time.Hour),
	})

	hooli := memStore.AddCompany(core.Company{Name: "Hooli"})
	memStore.AddApplication(core.Application{
		CompanyID: hooli.CompanyID, Position: "Platform Engineer", Status: core.StatusNew,
	})
	reader.Add("Hooli", core.MessageSummary{
		Sender:      "noreply@hooli.com",
		Subject:     "Offer letter enclosed",
		BodyExcerpt: "This automated message contains your documents.",
		ReceivedAt:  now.Add(-6 * time.Hour),
	})
	reader.Add("Hooli", core.MessageSummary{
		Sender:      "people@hooli.com",
		Subject:     "Application received",
		BodyExcerpt: "Our recruiter team has received your application and is reviewing your profile.",
		ReceivedAt:  now.Add(-72 * time.Hour),
	})
}
