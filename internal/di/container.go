package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/config"
	"github.com/jobtrack/mailscan/internal/core"
	"github.com/jobtrack/mailscan/internal/factory"
	"github.com/jobtrack/mailscan/internal/logging"
	"github.com/jobtrack/mailscan/internal/scheduler"
)

// BuildContainer creates and configures a dependency injection container for
// the scan daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}

	// Register application store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ApplicationStore, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register mailbox reader
	if err := container.Provide(func(f *factory.MailboxFactory) (core.MailboxReader, error) {
		return f.CreateMailboxReader()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(core.NewClassifier); err != nil {
		return nil, err
	}

	// Register scanner
	if err := container.Provide(func(
		mailbox core.MailboxReader,
		store core.ApplicationStore,
		classifier *core.Classifier,
		logger *zap.Logger,
	) *core.Scanner {
		return core.NewScanner(mailbox, store, classifier, logger)
	}); err != nil {
		return nil, err
	}

	// Register scheduler
	if err := container.Provide(scheduler.New); err != nil {
		return nil, err
	}

	return container, nil
}
