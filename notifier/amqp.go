// SPDX-License-Identifier: GPL-3.0-or-later
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

const publishTimeout = 5 * time.Second

// AmqpNotifier publishes activities to a durable topic exchange with the
// routing key activity.<direction>.
type AmqpNotifier struct {
	conn     *amqp.Connection
	exchange string

	// channels are not safe for concurrent publishing
	mu      sync.Mutex
	channel *amqp.Channel

	l *logrus.Logger
}

func NewAmqpNotifier(url, exchange string) (*AmqpNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to amqp broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not open amqp channel: %w", err)
	}

	err = channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not declare exchange %s: %w", exchange, err)
	}

	n := &AmqpNotifier{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		l:        log.Logger(log.LOG_NOTIFIER),
	}
	go n.watchClose()

	n.l.WithFields(logrus.Fields{"exchange": exchange}).Info("Connected to amqp broker")
	return n, nil
}

func (n *AmqpNotifier) watchClose() {
	closed := n.conn.NotifyClose(make(chan *amqp.Error, 1))
	err := <-closed
	if err != nil {
		n.l.WithError(err).Error("Amqp connection closed")
	}
}

func routingKey(event *domain.ActivityEvent) string {
	return "activity." + string(event.Direction)
}

func publishing(event *domain.ActivityEvent, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    dedupId(event),
		Timestamp:    event.OccurredAt,
		Type:         "crm.activity",
		Body:         body,
	}
}

func (n *AmqpNotifier) NotifyActivity(event *domain.ActivityEvent) error {
	body, err := payload(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	key := routingKey(event)
	n.mu.Lock()
	err = n.channel.PublishWithContext(ctx, n.exchange, key, false, false, publishing(event, body))
	n.mu.Unlock()
	if err != nil {
		return fmt.Errorf("could not publish activity to %s with key %s: %w", n.exchange, key, err)
	}

	n.l.WithFields(logrus.Fields{"exchange": n.exchange, "routingkey": key}).Debug("Published activity")
	return nil
}

func (n *AmqpNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.channel.Close(); err != nil {
		_ = n.conn.Close()
		return fmt.Errorf("could not close amqp channel: %w", err)
	}
	return n.conn.Close()
}
