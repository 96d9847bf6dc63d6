// SPDX-License-Identifier: GPL-3.0-or-later
package credential

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/CrawX/go-imap-crmsync/config"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

const KeyringPrefix = "keyring:"

// upper bound for a refresh when the caller sets no deadline
const tokenRefreshTimeout = 30 * time.Second

var providerEndpoints = map[domain.Provider]oauth2.Endpoint{
	domain.ProviderGmail:   google.Endpoint,
	domain.ProviderOutlook: microsoft.AzureADEndpoint("common"),
}

var providerScopes = map[domain.Provider][]string{
	domain.ProviderGmail: {"https://mail.google.com/"},
	domain.ProviderOutlook: {
		"https://outlook.office.com/IMAP.AccessAsUser.All",
		"https://outlook.office.com/SMTP.Send",
		"offline_access",
	},
}

// Resolver turns the opaque secrets of a SyncConfig into usable credentials.
// Refreshed oauth tokens are cached per config for the lifetime of the resolver.
type Resolver struct {
	logger    logrus.FieldLogger
	ring      keyring.Keyring
	endpoints map[domain.Provider]oauth2.Endpoint
	client    *http.Client

	sessionsMu sync.Mutex
	sessions   map[string]*oauthSession
}

// oauthSession is the refresh state of one config. config is nil for a static access token.
type oauthSession struct {
	mu     sync.Mutex
	config *oauth2.Config
	token  *oauth2.Token
}

// NewResolver creates a resolver. ring may be nil if no secrets are stored in a keyring.
func NewResolver(ring keyring.Keyring) *Resolver {
	return &Resolver{
		logger:    log.Logger(log.LOG_CREDENTIAL),
		ring:      ring,
		endpoints: providerEndpoints,
		client:    &http.Client{Timeout: tokenRefreshTimeout},
		sessions:  map[string]*oauthSession{},
	}
}

func OpenKeyring(c config.KeyringConfig) (keyring.Keyring, error) {
	backends := []keyring.BackendType{}
	for _, b := range c.Backends {
		backends = append(backends, keyring.BackendType(strings.ToLower(b)))
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              c.ServiceName,
		AllowedBackends:          backends,
		FileDir:                  c.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(c.FilePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open keyring: %w", err)
	}

	return ring, nil
}

// Resolve returns the credentials to log in to config's mailbox.
func (r *Resolver) Resolve(ctx context.Context, c *domain.SyncConfig) (*domain.Credentials, error) {
	username := c.Username
	if len(username) == 0 {
		username = c.Email
	}

	if c.Provider.UsesOAuth() && c.OAuth != nil {
		token, err := r.token(ctx, c)
		if err != nil {
			return nil, err
		}
		return &domain.Credentials{Username: username, Token: token}, nil
	}

	password, err := r.secret(c.Secret)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("no password configured for %s", c.Id)
	}

	return &domain.Credentials{Username: username, Password: password}, nil
}

// StoreSecret saves value in the keyring and returns the reference to put into a config.
func (r *Resolver) StoreSecret(key, value string) (string, error) {
	if r.ring == nil {
		return "", fmt.Errorf("no keyring configured")
	}

	err := r.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return "", fmt.Errorf("could not store secret %s: %w", key, err)
	}

	return KeyringPrefix + key, nil
}

func (r *Resolver) secret(value string) (string, error) {
	if !strings.HasPrefix(value, KeyringPrefix) {
		return value, nil
	}

	key := strings.TrimPrefix(value, KeyringPrefix)
	if r.ring == nil {
		return "", fmt.Errorf("secret %s references the keyring, but no keyring is configured", key)
	}

	item, err := r.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("could not read secret %s from keyring: %w", key, err)
	}

	return string(item.Data), nil
}

func (r *Resolver) token(ctx context.Context, c *domain.SyncConfig) (string, error) {
	session, err := r.session(c)
	if err != nil {
		return "", err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.token.Valid() || session.config == nil {
		return session.token.AccessToken, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	token, err := session.config.TokenSource(ctx, session.token).Token()
	if err != nil {
		r.Forget(c.Id)
		return "", fmt.Errorf("could not refresh oauth token for %s: %w", c.Id, err)
	}
	session.token = token

	r.logger.WithFields(logrus.Fields{
		"config": c.Id,
		"expiry": token.Expiry,
	}).Debug("Refreshed oauth token")

	return token.AccessToken, nil
}

// session returns the cached oauth state of c. Only keyring lookups happen
// under the resolver lock, refreshes lock the session alone.
func (r *Resolver) session(c *domain.SyncConfig) (*oauthSession, error) {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()

	if session, ok := r.sessions[c.Id]; ok {
		return session, nil
	}

	clientSecret, err := r.secret(c.OAuth.ClientSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := r.secret(c.OAuth.RefreshToken)
	if err != nil {
		return nil, err
	}

	session := &oauthSession{}
	if len(refreshToken) == 0 {
		session.token = &oauth2.Token{AccessToken: c.OAuth.AccessToken}
	} else {
		session.config = &oauth2.Config{
			ClientID:     c.OAuth.ClientId,
			ClientSecret: clientSecret,
			Endpoint:     r.endpoints[c.Provider],
			Scopes:       providerScopes[c.Provider],
		}
		session.token = &oauth2.Token{RefreshToken: refreshToken}
	}
	r.sessions[c.Id] = session

	return session, nil
}

// Forget drops the cached token of a config, e.g. after the server rejected it.
func (r *Resolver) Forget(configId string) {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()

	delete(r.sessions, configId)
}
