// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"strings"
	"time"
)

type RawImapMail struct {
	Uid          uint32
	Size         uint32
	InternalDate time.Time
	RawMail      []byte
}

type Address struct {
	Name    string
	Address string
}

func (a Address) String() string {
	if len(a.Name) == 0 {
		return a.Address
	}
	return a.Name + " <" + a.Address + ">"
}

type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Inline      bool
}

// EmailMessage is the normalized form of one fetched mail. It only lives for
// the duration of a pipeline step.
type EmailMessage struct {
	Uid uint32

	MessageId  string
	ThreadId   string
	InReplyTo  string
	References []string

	From    *Address
	ReplyTo []Address
	To      []Address
	Cc      []Address
	Bcc     []Address

	Subject     string
	TextBody    string
	HtmlBody    string
	Attachments []Attachment
	Date        time.Time
}

func (m *EmailMessage) SenderAddress() string {
	if m.From == nil {
		return ""
	}
	return normalizeAddress(m.From.Address)
}

func (m *EmailMessage) PrimaryRecipientAddress() string {
	if len(m.To) == 0 {
		return ""
	}
	return normalizeAddress(m.To[0].Address)
}

type OutgoingMessage struct {
	To  []Address
	Cc  []Address
	Bcc []Address

	Subject  string
	TextBody string
	HtmlBody string

	InReplyTo  string
	References []string
}

// Recipients returns every envelope recipient of the message.
func (m *OutgoingMessage) Recipients() []string {
	recipients := []string{}
	for _, list := range [][]Address{m.To, m.Cc, m.Bcc} {
		for _, a := range list {
			recipients = append(recipients, a.Address)
		}
	}
	return recipients
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
