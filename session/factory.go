// SPDX-License-Identifier: GPL-3.0-or-later
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/imapconnection"
	"github.com/CrawX/go-imap-crmsync/smtpconnection"
)

type providerEndpoints struct {
	imap, smtp domain.Endpoint
}

var defaultEndpoints = map[domain.Provider]providerEndpoints{
	domain.ProviderGmail: {
		imap: domain.Endpoint{Host: "imap.gmail.com", Port: 993, Security: domain.SecurityTLS},
		smtp: domain.Endpoint{Host: "smtp.gmail.com", Port: 587, Security: domain.SecurityStartTLS},
	},
	domain.ProviderOutlook: {
		imap: domain.Endpoint{Host: "outlook.office365.com", Port: 993, Security: domain.SecurityTLS},
		smtp: domain.Endpoint{Host: "smtp.office365.com", Port: 587, Security: domain.SecurityStartTLS},
	},
}

// ImapEndpoint returns the configured imap endpoint, falling back to the
// provider's host and the default port of the security mode.
func ImapEndpoint(c *domain.SyncConfig) domain.Endpoint {
	e := c.Imap
	if e.IsZero() {
		e = defaultEndpoints[c.Provider].imap
	}
	if len(e.Security) == 0 {
		e.Security = domain.SecurityTLS
	}
	if e.Port == 0 {
		e.Port = 143
		if e.Security == domain.SecurityTLS {
			e.Port = 993
		}
	}
	return e
}

// SmtpEndpoint is ImapEndpoint for submission. Generic providers without an
// smtp host submit to the imap host.
func SmtpEndpoint(c *domain.SyncConfig) domain.Endpoint {
	e := c.Smtp
	if e.IsZero() {
		e = defaultEndpoints[c.Provider].smtp
	}
	if e.IsZero() {
		e = domain.Endpoint{Host: c.Imap.Host, Security: domain.SecurityStartTLS}
	}
	if len(e.Security) == 0 {
		e.Security = domain.SecurityStartTLS
	}
	if e.Port == 0 {
		switch e.Security {
		case domain.SecurityTLS:
			e.Port = 465
		case domain.SecurityStartTLS:
			e.Port = 587
		default:
			e.Port = 25
		}
	}
	return e
}

type CredentialResolver interface {
	Resolve(ctx context.Context, config *domain.SyncConfig) (*domain.Credentials, error)
	// Forget drops cached credentials so the next Resolve fetches fresh ones.
	Forget(configId string)
}

// Factory opens real imap and smtp sessions.
type Factory struct {
	credentials CredentialResolver
	timeout     time.Duration
}

func NewFactory(credentials CredentialResolver, timeout time.Duration) *Factory {
	return &Factory{
		credentials: credentials,
		timeout:     timeout,
	}
}

func (f *Factory) OpenReader(config *domain.SyncConfig) (domain.MailReader, error) {
	credentials, err := f.resolve(config)
	if err != nil {
		return nil, err
	}

	reader, err := imapconnection.NewImapConnection(imapconnection.Options{
		Endpoint:    ImapEndpoint(config),
		Credentials: credentials,
		Timeout:     f.timeout,
	})
	if err != nil {
		f.forgetRejected(config, err)
		return nil, err
	}
	return reader, nil
}

func (f *Factory) OpenSender(config *domain.SyncConfig) (domain.MailSender, error) {
	credentials, err := f.resolve(config)
	if err != nil {
		return nil, err
	}

	sender, err := smtpconnection.NewSmtpConnection(smtpconnection.Options{
		Endpoint:    SmtpEndpoint(config),
		Credentials: credentials,
		LocalName:   addressDomain(config.Email),
		Timeout:     f.timeout,
	})
	if err != nil {
		f.forgetRejected(config, err)
		return nil, err
	}
	return sender, nil
}

func (f *Factory) resolve(config *domain.SyncConfig) (*domain.Credentials, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	credentials, err := f.credentials.Resolve(ctx, config)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "resolve credentials", Err: err}
	}
	return credentials, nil
}

// forgetRejected drops the cached token of config if the server refused it.
func (f *Factory) forgetRejected(config *domain.SyncConfig, err error) {
	if config.OAuth == nil {
		return
	}
	var connErr *domain.ConnectionError
	if errors.As(err, &connErr) && (connErr.Op == "imap login" || connErr.Op == "smtp auth") {
		f.credentials.Forget(config.Id)
	}
}

func addressDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	return address[at+1:]
}
