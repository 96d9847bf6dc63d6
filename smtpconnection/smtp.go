// SPDX-License-Identifier: GPL-3.0-or-later
package smtpconnection

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/credential"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

type Options struct {
	Endpoint    domain.Endpoint
	Credentials *domain.Credentials
	// LocalName is sent with EHLO
	LocalName string
	Timeout   time.Duration
}

type SmtpConnection struct {
	connection *smtp.Client
	server     string

	l *logrus.Logger
}

func NewSmtpConnection(options Options) (*SmtpConnection, error) {
	smtpClient, err := dial(options)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "smtp dial", Err: err}
	}

	err = authenticate(smtpClient, options.Credentials)
	if err != nil {
		_ = smtpClient.Close()
		return nil, &domain.ConnectionError{Op: "smtp auth", Err: err}
	}

	conn := &SmtpConnection{
		connection: smtpClient,
		server:     options.Endpoint.Address(),
		l:          log.Logger(log.LOG_SMTP),
	}
	conn.l.WithFields(logrus.Fields{"server": conn.server, "user": options.Credentials.Username}).Debug("Logged in to server")

	return conn, nil
}

func dial(options Options) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: options.Timeout}
	tlsConfig := &tls.Config{ServerName: options.Endpoint.Host}

	var conn net.Conn
	var err error
	if options.Endpoint.Security == domain.SecurityTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", options.Endpoint.Address(), tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", options.Endpoint.Address())
	}
	if err != nil {
		return nil, fmt.Errorf("could not dial to smtp: %w", err)
	}

	var smtpClient *smtp.Client
	if options.Endpoint.Security == domain.SecurityStartTLS {
		smtpClient, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("could not start tls: %w", err)
		}
	} else {
		smtpClient = smtp.NewClient(conn)
	}
	smtpClient.CommandTimeout = options.Timeout
	smtpClient.SubmissionTimeout = options.Timeout

	localName := options.LocalName
	if len(localName) == 0 {
		localName = "localhost"
	}
	err = smtpClient.Hello(localName)
	if err != nil {
		_ = smtpClient.Close()
		return nil, fmt.Errorf("could not greet smtp server: %w", err)
	}

	return smtpClient, nil
}

func authenticate(smtpClient *smtp.Client, credentials *domain.Credentials) error {
	ok, params := smtpClient.Extension("AUTH")
	if !ok {
		return fmt.Errorf("server does not support AUTH")
	}
	mechanisms := strings.Fields(strings.ToUpper(params))

	saslClient := credential.SaslClient(credentials, func(mechanism string) bool {
		for _, m := range mechanisms {
			if m == mechanism {
				return true
			}
		}
		return false
	})
	err := smtpClient.Auth(saslClient)
	if err != nil {
		return fmt.Errorf("could not authenticate to smtp: %w", err)
	}

	return nil
}

// Send submits raw to every recipient. Rejections by the server become a SendError.
func (sc *SmtpConnection) Send(from string, recipients []string, raw []byte) error {
	err := sc.connection.SendMail(from, recipients, bytes.NewReader(raw))
	if err != nil {
		return toSendError(err)
	}

	sc.l.WithFields(logrus.Fields{
		"server":     sc.server,
		"recipients": len(recipients),
	}).Debug("Submitted mail")
	return nil
}

func toSendError(err error) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &domain.SendError{
			Code:   smtpErr.Code,
			Reason: smtpErr.Message,
			Err:    err,
		}
	}

	return &domain.SendError{Reason: err.Error(), Err: err}
}

func (sc *SmtpConnection) Close() error {
	err := sc.connection.Quit()
	if err != nil {
		_ = sc.connection.Close()
		return fmt.Errorf("could not quit smtp session: %w", err)
	}

	return nil
}
