// SPDX-License-Identifier: GPL-3.0-or-later
package smtpconnection

import (
	"errors"
	"io"
	"io/ioutil"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

func init() {
	log.InitLogging("error")
}

type delivery struct {
	from       string
	recipients []string
	data       string
}

type backend struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (b *backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend *backend
	authed  bool
	current delivery
}

func (s *session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *session) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != "sales@crm.test" || password != "hunter2" {
			return errors.New("invalid credentials")
		}
		s.authed = true
		return nil
	}), nil
}

func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	if !s.authed {
		return smtp.ErrAuthRequired
	}
	s.current = delivery{from: from}
	return nil
}

func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if to == "nobody@crm.test" {
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "No such user"}
	}
	s.current.recipients = append(s.current.recipients, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = string(data)

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.deliveries = append(s.backend.deliveries, s.current)
	return nil
}

func (s *session) Reset() {
	s.current = delivery{}
}

func (s *session) Logout() error {
	return nil
}

func startServer(t *testing.T) (*backend, domain.Endpoint) {
	be := &backend{}
	server := smtp.NewServer(be)
	server.Domain = "localhost"
	server.AllowInsecureAuth = true
	server.ReadTimeout = 5 * time.Second
	server.WriteTimeout = 5 * time.Second

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})

	host, port, err := net.SplitHostPort(listener.Addr().String())
	assert.NoError(t, err)
	portNumber, err := strconv.Atoi(port)
	assert.NoError(t, err)

	return be, domain.Endpoint{Host: host, Port: portNumber, Security: domain.SecurityNone}
}

func TestSmtpConnection_Send(t *testing.T) {
	be, endpoint := startServer(t)

	conn, err := NewSmtpConnection(Options{
		Endpoint:    endpoint,
		Credentials: &domain.Credentials{Username: "sales@crm.test", Password: "hunter2"},
		Timeout:     5 * time.Second,
	})
	assert.NoError(t, err)

	raw := "Subject: hi\r\n\r\nhello\r\n"
	err = conn.Send("sales@crm.test", []string{"alice@example.com", "bob@example.com"}, []byte(raw))
	assert.NoError(t, err)
	assert.NoError(t, conn.Close())

	assert.Len(t, be.deliveries, 1)
	assert.Equal(t, "sales@crm.test", be.deliveries[0].from)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, be.deliveries[0].recipients)
	assert.Equal(t, raw, be.deliveries[0].data)
}

func TestSmtpConnection_RejectedRecipient(t *testing.T) {
	be, endpoint := startServer(t)

	conn, err := NewSmtpConnection(Options{
		Endpoint:    endpoint,
		Credentials: &domain.Credentials{Username: "sales@crm.test", Password: "hunter2"},
		Timeout:     5 * time.Second,
	})
	assert.NoError(t, err)
	defer conn.Close()

	err = conn.Send("sales@crm.test", []string{"nobody@crm.test"}, []byte("Subject: hi\r\n\r\nhello\r\n"))
	var sendErr *domain.SendError
	assert.True(t, errors.As(err, &sendErr))
	assert.Equal(t, 550, sendErr.Code)
	assert.Contains(t, sendErr.Reason, "No such user")
	assert.Empty(t, be.deliveries)
}

func TestNewSmtpConnection_AuthFailure(t *testing.T) {
	_, endpoint := startServer(t)

	conn, err := NewSmtpConnection(Options{
		Endpoint:    endpoint,
		Credentials: &domain.Credentials{Username: "sales@crm.test", Password: "wrong"},
		Timeout:     5 * time.Second,
	})
	assert.Nil(t, conn)
	var connErr *domain.ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, "smtp auth", connErr.Op)
}

func TestNewSmtpConnection_DialFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	assert.NoError(t, listener.Close())

	conn, err := NewSmtpConnection(Options{
		Endpoint:    domain.Endpoint{Host: "127.0.0.1", Port: addr.Port, Security: domain.SecurityNone},
		Credentials: &domain.Credentials{Username: "a", Password: "b"},
		Timeout:     time.Second,
	})
	assert.Nil(t, conn)
	assert.True(t, domain.IsFatal(err))
}

func TestToSendError(t *testing.T) {
	err := toSendError(&smtp.SMTPError{Code: 554, Message: "Message rejected as spam"})
	assert.EqualError(t, err, "send rejected (554): Message rejected as spam")

	err = toSendError(io.ErrUnexpectedEOF)
	assert.EqualError(t, err, "send failed: unexpected EOF")
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}
