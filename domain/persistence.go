// SPDX-License-Identifier: GPL-3.0-or-later
package domain

const (
	FolderInbox = "inbox"
	FolderSent  = "sent"
)

// Cursor is the watermark of a logical folder. Uid is only meaningful
// together with the Mailbox and UidValidity it was recorded for.
type Cursor struct {
	ConfigId    string
	Folder      string
	Mailbox     string
	UidValidity uint32
	Uid         uint32
}

func (c *Cursor) Matches(status *MailboxStatus) bool {
	return c.Mailbox == status.Name && c.UidValidity == status.UidValidity
}

type CursorStore interface {
	GetCursor(configId, folder string) (*Cursor, error)
	// AdvanceCursor must only be called once everything up to uid is persisted.
	// The stored uid never decreases for the same mailbox and uid validity.
	AdvanceCursor(configId, folder, mailbox string, uidValidity, uid uint32) error
	ResetCursor(configId, folder, mailbox string, uidValidity uint32) error
	RecordFailure(configId, folder string, uid uint32, reason string) (int, error)
	ClearFailures(configId, folder string, upToUid uint32) error
}
