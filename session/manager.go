// SPDX-License-Identifier: GPL-3.0-or-later
package session

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

var ErrDisconnected = errors.New("session manager is disconnected")

// Manager owns the read and send session of one run. Both are opened at most
// once and closed by Disconnect.
type Manager struct {
	factory domain.SessionFactory
	config  *domain.SyncConfig

	mu           sync.Mutex
	reader       domain.MailReader
	sender       domain.MailSender
	disconnected bool

	l *logrus.Logger
}

func NewManager(factory domain.SessionFactory, config *domain.SyncConfig) *Manager {
	return &Manager{
		factory: factory,
		config:  config,
		l:       log.Logger(log.LOG_SESSION),
	}
}

// Initialize opens the read session. The send session is opened on demand by
// Sender. On error the run must not continue.
func (m *Manager) Initialize() error {
	_, err := m.Reader()
	return err
}

// Reader returns the read session, opening it on first use.
func (m *Manager) Reader() (domain.MailReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disconnected {
		return nil, ErrDisconnected
	}
	if m.reader != nil {
		return m.reader, nil
	}

	reader, err := m.factory.OpenReader(m.config)
	if err != nil {
		return nil, asConnectionError("open read session", err)
	}
	m.l.WithFields(logrus.Fields{"config": m.config.Id}).Debug("Opened read session")

	m.reader = reader
	return reader, nil
}

// Sender returns the send session, opening it on first use.
func (m *Manager) Sender() (domain.MailSender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disconnected {
		return nil, ErrDisconnected
	}
	if m.sender != nil {
		return m.sender, nil
	}

	sender, err := m.factory.OpenSender(m.config)
	if err != nil {
		return nil, asConnectionError("open send session", err)
	}
	m.l.WithFields(logrus.Fields{"config": m.config.Id}).Debug("Opened send session")

	m.sender = sender
	return sender, nil
}

// Disconnect closes every opened session. Close failures are logged only.
// Calling it more than once is a no-op.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disconnected {
		return
	}
	m.disconnected = true

	logger := m.l.WithFields(logrus.Fields{"config": m.config.Id})
	if m.reader != nil {
		if err := m.reader.Close(); err != nil {
			logger.WithError(err).Warn("Could not close read session")
		}
		m.reader = nil
	}
	if m.sender != nil {
		if err := m.sender.Close(); err != nil {
			logger.WithError(err).Warn("Could not close send session")
		}
		m.sender = nil
	}
	logger.Debug("Disconnected")
}

func asConnectionError(op string, err error) error {
	var connErr *domain.ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &domain.ConnectionError{Op: op, Err: err}
}
