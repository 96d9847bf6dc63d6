// SPDX-License-Identifier: GPL-3.0-or-later
package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CrawX/go-imap-crmsync/config"
	"github.com/CrawX/go-imap-crmsync/domain"
)

// activityPayload is what subscribers receive for every created activity.
type activityPayload struct {
	Id             string    `json:"id"`
	ConfigId       string    `json:"configId"`
	ContactId      string    `json:"contactId"`
	Direction      string    `json:"direction"`
	MessageId      string    `json:"messageId"`
	ThreadId       string    `json:"threadId"`
	Subject        string    `json:"subject"`
	From           string    `json:"from"`
	To             []string  `json:"to"`
	Cc             []string  `json:"cc,omitempty"`
	Snippet        string    `json:"snippet"`
	HasAttachments bool      `json:"hasAttachments"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func payload(event *domain.ActivityEvent) ([]byte, error) {
	p := activityPayload{
		Id:             event.Id,
		ConfigId:       event.ConfigId,
		ContactId:      event.ContactId,
		Direction:      string(event.Direction),
		MessageId:      event.MessageId,
		ThreadId:       event.ThreadId,
		Subject:        event.Subject,
		From:           event.From,
		To:             event.To,
		Cc:             event.Cc,
		Snippet:        event.Snippet,
		HasAttachments: event.HasAttachments,
		OccurredAt:     event.OccurredAt.UTC(),
	}
	if p.To == nil {
		p.To = []string{}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal activity %s: %w", event.Id, err)
	}
	return body, nil
}

// dedupId identifies an activity across redeliveries.
func dedupId(event *domain.ActivityEvent) string {
	return event.MessageId + "/" + string(event.Direction)
}

// New connects the notifier configured in c. It returns nil if none is configured.
func New(c config.NotifierConfig) (domain.ActivityNotifier, error) {
	switch c.Kind {
	case "":
		return nil, nil
	case "nats":
		n, err := NewNatsNotifier(c.Url, c.Subject)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "amqp":
		n, err := NewAmqpNotifier(c.Url, c.Exchange)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", c.Kind)
	}
}
