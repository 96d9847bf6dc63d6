// SPDX-License-Identifier: GPL-3.0-or-later

//go:generate mockgen -destination=mocks/session.go -package=mocks . MailReader,MailSender,SessionFactory
package domain

type MailboxStatus struct {
	Name        string
	UidValidity uint32
	UidNext     uint32
	Messages    uint32
}

// MailReader is one read session against a mailbox. Implementations hold a
// single connection and therefore a single selected mailbox.
type MailReader interface {
	Select(mailbox string) (*MailboxStatus, error)
	// ListUidsSince returns the uids in the selected mailbox strictly greater than uid.
	ListUidsSince(uid uint32) ([]uint32, error)
	FetchMails(uids []uint32) ([]*RawImapMail, error)
	FindSentMailbox(candidates []string) (string, error)
	// Append stores raw in mailbox and returns the assigned uid, or 0 if the server doesn't report it.
	Append(mailbox string, raw []byte) (uint32, error)

	Close() error
}

type MailSender interface {
	Send(from string, recipients []string, raw []byte) error

	Close() error
}

type SessionFactory interface {
	OpenReader(config *SyncConfig) (MailReader, error)
	OpenSender(config *SyncConfig) (MailSender, error)
}
