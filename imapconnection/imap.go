// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap-compress"
	"github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/credential"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

type Options struct {
	Endpoint    domain.Endpoint
	Credentials *domain.Credentials
	// Timeout bounds the dial and every command.
	Timeout time.Duration
}

type ImapConnection struct {
	connection   *client.Client
	mailAppender appender

	server         string
	selectedFolder string

	l *logrus.Logger
}

func NewImapConnection(options Options) (*ImapConnection, error) {
	imapClient, err := dial(options)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "imap dial", Err: err}
	}

	err = login(imapClient, options.Credentials)
	if err != nil {
		_ = imapClient.Logout()
		return nil, &domain.ConnectionError{Op: "imap login", Err: err}
	}

	uidPlusClient := uidplus.NewClient(imapClient)
	uidPlusSupported, err := uidPlusClient.SupportUidPlus()
	if err != nil {
		_ = imapClient.Logout()
		return nil, &domain.ConnectionError{Op: "imap capability", Err: fmt.Errorf("could not check for UIDPLUS support: %w", err)}
	}

	conn := &ImapConnection{
		connection: imapClient,
		server:     options.Endpoint.Address(),
		l:          log.Logger(log.LOG_IMAP),
	}

	baseLogger := conn.l.WithFields(logrus.Fields{"server": conn.server, "user": options.Credentials.Username})
	baseLogger.Debug("Logged in to server")

	err = enableCompression(compress.NewClient(imapClient), baseLogger)
	if err != nil {
		_ = imapClient.Logout()
		return nil, &domain.ConnectionError{Op: "imap capability", Err: err}
	}

	if uidPlusSupported {
		baseLogger.Debug("UIDPLUS supported on server, using APPENDUID")
		conn.mailAppender = &uidPlusAppender{uidplusClient: uidPlusClient}
	} else {
		baseLogger.Debug("UIDPLUS not supported on server, appended uids are unknown")
		conn.mailAppender = &compatibilityAppender{imapConn: imapClient}
	}

	return conn, nil
}

func dial(options Options) (*client.Client, error) {
	dialer := &net.Dialer{Timeout: options.Timeout}
	tlsConfig := &tls.Config{ServerName: options.Endpoint.Host}

	var imapClient *client.Client
	var err error
	switch options.Endpoint.Security {
	case domain.SecurityTLS:
		imapClient, err = client.DialWithDialerTLS(dialer, options.Endpoint.Address(), tlsConfig)
	default:
		imapClient, err = client.DialWithDialer(dialer, options.Endpoint.Address())
	}
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}
	imapClient.Timeout = options.Timeout

	if options.Endpoint.Security == domain.SecurityStartTLS {
		err = imapClient.StartTLS(tlsConfig)
		if err != nil {
			_ = imapClient.Logout()
			return nil, fmt.Errorf("could not start tls: %w", err)
		}
	}

	return imapClient, nil
}

func login(imapClient *client.Client, credentials *domain.Credentials) error {
	if !credentials.IsToken() {
		err := imapClient.Login(credentials.Username, credentials.Password)
		if err != nil {
			return fmt.Errorf("could not login to imap: %w", err)
		}
		return nil
	}

	saslClient := credential.SaslClient(credentials, func(mechanism string) bool {
		ok, _ := imapClient.SupportAuth(mechanism)
		return ok
	})
	err := imapClient.Authenticate(saslClient)
	if err != nil {
		return fmt.Errorf("could not authenticate to imap: %w", err)
	}

	return nil
}

func (ic *ImapConnection) Select(mailbox string) (*domain.MailboxStatus, error) {
	m, err := ic.connection.Select(mailbox, false)
	if err != nil {
		return nil, fmt.Errorf("could not select mailbox %s: %w", mailbox, err)
	}

	ic.selectedFolder = m.Name
	return &domain.MailboxStatus{
		Name:        m.Name,
		UidValidity: m.UidValidity,
		UidNext:     m.UidNext,
		Messages:    m.Messages,
	}, nil
}

func (ic *ImapConnection) ListUidsSince(uid uint32) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Uid = uidsAfter(uid)
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search mailbox: %w", err)
	}

	return filterUidsAfter(ids, uid), nil
}

// uidsAfter is the uid range uid+1:*
func uidsAfter(uid uint32) *imap.SeqSet {
	seqset := &imap.SeqSet{}
	seqset.AddRange(uid+1, 0)
	return seqset
}

// filterUidsAfter drops uids <= uid and sorts the rest. A search for n:* always
// matches the highest uid in the mailbox, even if it is below n.
func filterUidsAfter(ids []uint32, uid uint32) []uint32 {
	filtered := []uint32{}
	for _, id := range ids {
		if id > uid {
			filtered = append(filtered, id)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i] < filtered[j] })
	return filtered
}

func (ic *ImapConnection) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{
		imap.FetchUid,
		imap.FetchInternalDate,
		imap.FetchRFC822Size,
		fullBodySection.FetchItem(),
	}
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []*domain.RawImapMail{}
	var readErr error
	for msg := range messages {
		if readErr != nil {
			// keep draining so UidFetch can return
			continue
		}

		raw := &domain.RawImapMail{
			Uid:          msg.Uid,
			Size:         msg.Size,
			InternalDate: msg.InternalDate,
		}

		r := msg.GetBody(fullBodySection)
		if r == nil {
			ic.l.WithFields(logrus.Fields{"mailbox": ic.selectedFolder, "uid": msg.Uid}).Warn("Server returned no body")
		} else {
			raw.RawMail, readErr = ioutil.ReadAll(r)
			if readErr != nil {
				readErr = fmt.Errorf("could not read mail body of uid %d: %w", msg.Uid, readErr)
			}
		}

		mails = append(mails, raw)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return mails, nil
}

func (ic *ImapConnection) FindSentMailbox(candidates []string) (string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.List("", "*", mailboxes)
	}()

	infos := []*imap.MailboxInfo{}
	for m := range mailboxes {
		infos = append(infos, m)
	}

	err := <-done
	if err != nil {
		return "", fmt.Errorf("could not list mailboxes: %w", err)
	}

	return matchSentMailbox(infos, candidates), nil
}

func (ic *ImapConnection) Append(mailbox string, raw []byte) (uint32, error) {
	uid, err := ic.mailAppender.append(mailbox, raw)
	if err != nil {
		return 0, err
	}

	ic.l.WithFields(logrus.Fields{
		"mailbox": mailbox,
		"uid":     uid,
	}).Debug("Appended mail")
	return uid, nil
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}
