// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=appender_mocks_test.go -package=imapconnection -source appender.go
import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
)

type appender interface {
	append(mailbox string, raw []byte) (uint32, error)
}

type uidPlusAppendClient interface {
	Append(mbox string, flags []string, date time.Time, msg imap.Literal) (validity uint32, uid uint32, err error)
}

type uidPlusAppender struct {
	uidplusClient uidPlusAppendClient
}

func (u *uidPlusAppender) append(mailbox string, raw []byte) (uint32, error) {
	_, uid, err := u.uidplusClient.Append(mailbox, []string{imap.SeenFlag}, time.Now(), bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("could not append to %s: %w", mailbox, err)
	}

	return uid, nil
}

type plainAppendClient interface {
	Append(mbox string, flags []string, date time.Time, msg imap.Literal) error
}

type compatibilityAppender struct {
	imapConn plainAppendClient
}

func (c *compatibilityAppender) append(mailbox string, raw []byte) (uint32, error) {
	err := c.imapConn.Append(mailbox, []string{imap.SeenFlag}, time.Now(), bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("could not append to %s: %w", mailbox, err)
	}

	// Without APPENDUID the server doesn't tell us the uid
	return 0, nil
}
