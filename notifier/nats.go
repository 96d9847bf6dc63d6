// SPDX-License-Identifier: GPL-3.0-or-later
package notifier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

const StreamName = "CRM_ACTIVITIES"

// NatsNotifier publishes activities to a JetStream stream. Subjects are
// <subject>.<direction>; the stream deduplicates redelivered activities.
type NatsNotifier struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string

	l *logrus.Logger
}

func NewNatsNotifier(url, subject string) (*NatsNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("crmsync"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("could not connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("could not get jetstream context: %w", err)
	}

	n := &NatsNotifier{
		nc:      nc,
		js:      js,
		subject: strings.TrimSuffix(subject, "."),
		l:       log.Logger(log.LOG_NOTIFIER),
	}
	err = n.ensureStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	n.l.WithFields(logrus.Fields{"server": nc.ConnectedUrl(), "subject": n.subject}).Info("Connected to nats")
	return n, nil
}

func (n *NatsNotifier) ensureStream() error {
	info, err := n.js.StreamInfo(StreamName)
	if err == nil && info != nil {
		return nil
	}

	_, err = n.js.AddStream(&nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{n.subject + ".>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 24 * time.Hour,
		MaxAge:     30 * 24 * time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("could not create stream %s: %w", StreamName, err)
	}

	return nil
}

func (n *NatsNotifier) subjectFor(event *domain.ActivityEvent) string {
	return n.subject + "." + string(event.Direction)
}

func (n *NatsNotifier) NotifyActivity(event *domain.ActivityEvent) error {
	body, err := payload(event)
	if err != nil {
		return err
	}

	subject := n.subjectFor(event)
	ack, err := n.js.Publish(subject, body, nats.MsgId(dedupId(event)))
	if err != nil {
		return fmt.Errorf("could not publish activity to %s: %w", subject, err)
	}

	n.l.WithFields(logrus.Fields{
		"subject":   subject,
		"sequence":  ack.Sequence,
		"duplicate": ack.Duplicate,
	}).Debug("Published activity")
	return nil
}

func (n *NatsNotifier) Close() error {
	return n.nc.Drain()
}
