// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/CrawX/go-imap-crmsync/domain"
)

// Duration decodes TOML strings like "30s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("could not parse duration %q: %w", string(text), err)
	}
	d.Duration = duration
	return nil
}

type Config struct {
	Database string
	Loglevel *string

	HttpListen        string
	SchedulerTick     Duration
	MaxConcurrentRuns int

	BatchSize          int
	RunBudget          Duration
	Timeout            Duration
	MaxMessageAttempts int

	Notifier NotifierConfig
	Keyring  KeyringConfig

	Mailbox []MailboxConfig
}

type NotifierConfig struct {
	// Kind is empty, nats or amqp
	Kind     string
	Url      string
	Subject  string
	Exchange string
}

type KeyringConfig struct {
	ServiceName string
	// Backends restricts the keyring backends, e.g. ["secret-service", "file"]
	Backends     []string
	FileDir      string
	FilePassword string
}

// MailboxConfig seeds one row of the sync configs on startup.
type MailboxConfig struct {
	Id       string
	UserId   string
	TeamId   string
	Provider string

	Email    string
	Username string
	Secret   string

	OAuthClientId     string
	OAuthClientSecret string
	OAuthRefreshToken string

	ImapHost     string
	ImapPort     int
	ImapSecurity string
	SmtpHost     string
	SmtpPort     int
	SmtpSecurity string

	SyncInbox  *bool
	SyncSent   *bool
	AppendSent bool

	Interval Duration
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		Database:           "crmsync.db",
		HttpListen:         "127.0.0.1:8025",
		SchedulerTick:      Duration{30 * time.Second},
		MaxConcurrentRuns:  4,
		BatchSize:          50,
		RunBudget:          Duration{5 * time.Minute},
		Timeout:            Duration{30 * time.Second},
		MaxMessageAttempts: 3,
		Keyring: KeyringConfig{
			ServiceName: "crmsync",
		},
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.Database, "Database name must not be empty, set to a filename for the sqlite database"); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("BatchSize must be positive")
	}
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("MaxConcurrentRuns must be positive")
	}
	if c.MaxMessageAttempts <= 0 {
		return fmt.Errorf("MaxMessageAttempts must be positive")
	}
	if c.SchedulerTick.Duration <= 0 || c.RunBudget.Duration <= 0 || c.Timeout.Duration <= 0 {
		return fmt.Errorf("SchedulerTick, RunBudget and Timeout must be positive durations")
	}

	switch c.Notifier.Kind {
	case "":
	case "nats":
		if err := validateNonEmptyStringField(c.Notifier.Url, "Notifier.Url must be set to the nats server url"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(c.Notifier.Subject, "Notifier.Subject must be set for nats"); err != nil {
			return err
		}
	case "amqp":
		if err := validateNonEmptyStringField(c.Notifier.Url, "Notifier.Url must be set to the amqp broker url"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(c.Notifier.Exchange, "Notifier.Exchange must be set for amqp"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown Notifier.Kind %q, use nats or amqp", c.Notifier.Kind)
	}

	ids := map[string]bool{}
	for i := range c.Mailbox {
		m := &c.Mailbox[i]
		if err := m.validate(); err != nil {
			return fmt.Errorf("invalid mailbox %d: %w", i, err)
		}
		if ids[m.Id] {
			return fmt.Errorf("duplicate mailbox id %s", m.Id)
		}
		ids[m.Id] = true
	}

	return nil
}

func (m *MailboxConfig) validate() error {
	if err := validateNonEmptyStringField(m.Id, "Id must not be empty"); err != nil {
		return err
	}
	if err := validateNonEmptyStringField(m.Email, "Email must not be empty, set to the address of the mailbox"); err != nil {
		return err
	}

	provider := domain.Provider(strings.ToLower(m.Provider))
	switch provider {
	case "", domain.ProviderGeneric:
		if err := validateNonEmptyStringField(m.ImapHost, "ImapHost must be set for generic providers"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(m.Secret, "Secret must be set for generic providers"); err != nil {
			return err
		}
	case domain.ProviderGmail, domain.ProviderOutlook:
		if len(strings.TrimSpace(m.OAuthRefreshToken)) == 0 && len(strings.TrimSpace(m.Secret)) == 0 {
			return fmt.Errorf("OAuthRefreshToken or Secret must be set for %s", provider)
		}
	default:
		return fmt.Errorf("unknown Provider %q", m.Provider)
	}

	for _, security := range []string{m.ImapSecurity, m.SmtpSecurity} {
		switch domain.Security(strings.ToLower(security)) {
		case "", domain.SecurityTLS, domain.SecurityStartTLS, domain.SecurityNone:
		default:
			return fmt.Errorf("unknown security mode %q, use tls, starttls or none", security)
		}
	}

	if m.Interval.Duration < 0 {
		return fmt.Errorf("Interval must not be negative")
	}

	return nil
}

// SyncConfig converts the mailbox table into the engine's representation.
func (m *MailboxConfig) SyncConfig() *domain.SyncConfig {
	provider := domain.Provider(strings.ToLower(m.Provider))
	if len(provider) == 0 {
		provider = domain.ProviderGeneric
	}

	config := &domain.SyncConfig{
		Id:         m.Id,
		UserId:     m.UserId,
		TeamId:     m.TeamId,
		Provider:   provider,
		Email:      m.Email,
		Username:   m.Username,
		Secret:     m.Secret,
		Imap:       endpoint(m.ImapHost, m.ImapPort, m.ImapSecurity),
		Smtp:       endpoint(m.SmtpHost, m.SmtpPort, m.SmtpSecurity),
		SyncInbox:  m.SyncInbox == nil || *m.SyncInbox,
		SyncSent:   m.SyncSent == nil || *m.SyncSent,
		AppendSent: m.AppendSent,
		Interval:   m.Interval.Duration,
	}
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	if len(config.Username) == 0 {
		config.Username = config.Email
	}
	if len(m.OAuthRefreshToken) > 0 {
		config.OAuth = &domain.OAuthCredential{
			ClientId:     m.OAuthClientId,
			ClientSecret: m.OAuthClientSecret,
			RefreshToken: m.OAuthRefreshToken,
		}
	}

	return config
}

func endpoint(host string, port int, security string) domain.Endpoint {
	if len(host) == 0 {
		return domain.Endpoint{}
	}

	e := domain.Endpoint{
		Host:     host,
		Port:     port,
		Security: domain.Security(strings.ToLower(security)),
	}
	if len(e.Security) == 0 {
		e.Security = domain.SecurityTLS
	}
	return e
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
