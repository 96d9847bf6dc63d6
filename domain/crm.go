// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

type Direction string

const (
	Inbound  = Direction("inbound")
	Outbound = Direction("outbound")
)

type ActivityEvent struct {
	Id        string
	ConfigId  string
	ContactId string
	Direction Direction

	MessageId      string
	ThreadId       string
	Subject        string
	From           string
	To             []string
	Cc             []string
	Snippet        string
	HasAttachments bool
	OccurredAt     time.Time
}

type ContactDirectory interface {
	FindContactByEmail(address string) (string, bool, error)
}

// ActivityStore must be idempotent on (MessageId, Direction): upserting an
// already known message reports created=false and creates nothing.
type ActivityStore interface {
	UpsertActivity(event *ActivityEvent) (bool, error)
}

type ActivityNotifier interface {
	NotifyActivity(event *ActivityEvent) error
	Close() error
}
