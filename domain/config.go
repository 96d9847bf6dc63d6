// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"net"
	"strconv"
	"time"
)

type Provider string

const (
	ProviderGeneric = Provider("generic")
	ProviderGmail   = Provider("gmail")
	ProviderOutlook = Provider("outlook")
)

// UsesOAuth reports whether the provider authenticates with bearer tokens
// instead of passwords.
func (p Provider) UsesOAuth() bool {
	return p == ProviderGmail || p == ProviderOutlook
}

type Security string

const (
	SecurityTLS      = Security("tls")
	SecurityStartTLS = Security("starttls")
	SecurityNone     = Security("none")
)

type Endpoint struct {
	Host     string
	Port     int
	Security Security
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) IsZero() bool {
	return len(e.Host) == 0
}

type OAuthCredential struct {
	ClientId     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
}

// SyncConfig is one mailbox integration. It is owned by the integration
// settings; the sync engine only reads it and writes LastSyncAt.
type SyncConfig struct {
	Id       string
	UserId   string
	TeamId   string
	Provider Provider

	Email    string
	Username string
	// Secret is a plaintext password, an app password or a keyring:<key> reference.
	Secret string
	OAuth  *OAuthCredential

	Imap Endpoint
	Smtp Endpoint

	SyncInbox  bool
	SyncSent   bool
	AppendSent bool

	Interval   time.Duration
	LastSyncAt *time.Time
}

// Due reports whether the config should be synced at now.
func (c *SyncConfig) Due(now time.Time) bool {
	if !c.SyncInbox && !c.SyncSent {
		return false
	}
	if c.LastSyncAt == nil {
		return true
	}
	return !c.LastSyncAt.Add(c.Interval).After(now)
}

// Credentials are resolved right before a session is opened and never stored.
type Credentials struct {
	Username string
	Password string
	Token    string
}

func (c *Credentials) IsToken() bool {
	return len(c.Token) > 0
}

type SyncConfigSource interface {
	FindSyncConfig(id string) (*SyncConfig, error)
	AllSyncConfigs() ([]*SyncConfig, error)
	MarkSynced(id string, at time.Time) error
}
