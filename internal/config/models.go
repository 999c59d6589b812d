package config

import "time"

// MailboxConfig represents the configuration for the mailbox reader
type MailboxConfig struct {
	Backend     string
	Server      string
	Username    string
	Password    string
	DialTimeout time.Duration
}

// StoreConfig represents the configuration for the application store
type StoreConfig struct {
	Backend    string
	SQLitePath string
	MySQLDSN   string
}

// ScanConfig represents the scan scheduling configuration
type ScanConfig struct {
	RulesPath       string
	IntervalMinutes int
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	timeout, err := c.GetDuration("mailbox.dial_timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return MailboxConfig{
		Backend:     c.GetString("mailbox.backend"),
		Server:      c.GetString("mailbox.server"),
		Username:    c.GetString("mailbox.username"),
		Password:    c.GetString("mailbox.password"),
		DialTimeout: timeout,
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Backend:    c.GetString("store.backend"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetScan returns the scan scheduling configuration
func (c *Config) GetScan() ScanConfig {
	return ScanConfig{
		RulesPath:       c.GetString("scan.rules_path"),
		IntervalMinutes: c.GetInt("scan.interval_minutes"),
	}
}
