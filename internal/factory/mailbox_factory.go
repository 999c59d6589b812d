package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/adapters/mailbox"
	"github.com/jobtrack/mailscan/internal/config"
	"github.com/jobtrack/mailscan/internal/core"
)

// MailboxFactory creates mailbox readers based on configuration
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{cfg: cfg, logger: logger}
}

// CreateMailboxReader creates a mailbox reader based on the configuration
func (f *MailboxFactory) CreateMailboxReader() (core.MailboxReader, error) {
	mailboxCfg := f.cfg.GetMailbox()

	switch mailboxCfg.Backend {
	case "imap":
		if mailboxCfg.Username == "" || mailboxCfg.Password == "" {
			return nil, fmt.Errorf("imap mailbox requires username and password")
		}
		return mailbox.NewIMAPReader(mailbox.IMAPConfig{
			Server:      mailboxCfg.Server,
			Username:    mailboxCfg.Username,
			Password:    mailboxCfg.Password,
			DialTimeout: mailboxCfg.DialTimeout,
		}, f.logger), nil
	case "static":
		return mailbox.NewStaticReader(), nil
	default:
		return nil, fmt.Errorf("unsupported mailbox backend: %s", mailboxCfg.Backend)
	}
}
