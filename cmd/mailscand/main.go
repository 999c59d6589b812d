package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/config"
	"github.com/jobtrack/mailscan/internal/core"
	"github.com/jobtrack/mailscan/internal/di"
	"github.com/jobtrack/mailscan/internal/rules"
	"github.com/jobtrack/mailscan/internal/scheduler"
)

var (
	once   = flag.Bool("once", false, "Run a single scan and exit instead of scheduling")
	dryRun = flag.Bool("dry-run", false, "Preview status updates without writing to the store")
	days   = flag.Int("days", 0, "Override the rule set's lookback window in days")
)

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	scanner *core.Scanner,
	store core.ApplicationStore,
	mailbox core.MailboxReader,
	sched *scheduler.Scheduler,
) error {
	defer logger.Sync()

	scanCfg := cfg.GetScan()
	ruleSet, err := rules.Load(scanCfg.RulesPath)
	if err != nil {
		logger.Error("Failed to load rule set", zap.Error(err))
		return err
	}

	opts := core.ScanOptions{DryRun: *dryRun, DaysOverride: *days}

	if *once {
		return runOnce(logger, scanner, ruleSet, opts, scanCfg.RulesPath)
	}

	// Scheduled mode: one scan every interval, never overlapping
	job := func() {
		outcome, err := scanner.Run(context.Background(), ruleSet, opts)
		if err != nil {
			logger.Error("Scan failed", zap.Error(err))
			return
		}
		logScanOutcome(logger, outcome)
		if !opts.DryRun {
			if err := rules.Save(scanCfg.RulesPath, ruleSet); err != nil {
				logger.Error("Failed to persist rule set watermark", zap.Error(err))
			}
		}
	}
	if err := sched.Every(scanCfg.IntervalMinutes, job); err != nil {
		return err
	}
	sched.Start()
	logger.Info("Scheduler started", zap.Int("interval_minutes", scanCfg.IntervalMinutes))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")
	sched.Stop()
	closeCollaborators(logger, store, mailbox)
	logger.Info("Shutdown complete")
	return nil
}

// runOnce executes a single foreground scan, cancellable with SIGINT
func runOnce(logger *zap.Logger, scanner *core.Scanner, ruleSet *core.RuleSet, opts core.ScanOptions, rulesPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := scanner.Run(ctx, ruleSet, opts)
	if err != nil {
		logger.Error("Scan failed", zap.Error(err))
		return err
	}
	logScanOutcome(logger, outcome)

	if !opts.DryRun {
		if err := rules.Save(rulesPath, ruleSet); err != nil {
			return fmt.Errorf("failed to persist rule set watermark: %w", err)
		}
	}
	return nil
}

func logScanOutcome(logger *zap.Logger, outcome *core.ScanOutcome) {
	logger.Info("Scan outcome",
		zap.Int("messages_scanned", outcome.MessagesScanned),
		zap.Int("applications_updated", len(outcome.ApplicationsUpdated)),
		zap.Int("skipped", len(outcome.Skipped)))
	for _, update := range outcome.ApplicationsUpdated {
		logger.Info("Status update",
			zap.String("company", update.CompanyName),
			zap.String("application_id", update.ApplicationID),
			zap.String("old_status", string(update.OldStatus)),
			zap.String("new_status", string(update.NewStatus)),
			zap.Strings("matched_keywords", update.MatchedKeywords))
	}
}

func closeCollaborators(logger *zap.Logger, store core.ApplicationStore, mailbox core.MailboxReader) {
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}
	if closer, ok := mailbox.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close mailbox", zap.Error(err))
		}
	}
}
