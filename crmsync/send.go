// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/mail"
	"github.com/CrawX/go-imap-crmsync/session"
)

// SendEmail submits out from the mailbox of configId and returns the Message-Id
// of the sent mail. A send is never retried.
func (cs *CrmSync) SendEmail(ctx context.Context, configId string, out *domain.OutgoingMessage) (string, error) {
	config, err := cs.findConfig(configId)
	if err != nil {
		return "", err
	}

	raw, messageId, err := mail.Compose(domain.Address{Address: config.Email}, out, cs.now())
	if err != nil {
		return "", fmt.Errorf("could not compose mail: %w", err)
	}

	err = ctx.Err()
	if err != nil {
		return "", err
	}

	manager := session.NewManager(cs.sessions, config)
	defer manager.Disconnect()

	sender, err := manager.Sender()
	if err != nil {
		return "", &domain.SendError{Reason: err.Error(), Err: err}
	}

	logger := cs.l.WithFields(logrus.Fields{"config": config.Id, "messageid": messageId})
	err = sender.Send(config.Email, out.Recipients(), raw)
	if err != nil {
		var sendErr *domain.SendError
		if !errors.As(err, &sendErr) {
			err = &domain.SendError{Reason: err.Error(), Err: err}
		}
		logger.WithError(err).Warn("Could not send mail")
		return "", err
	}
	logger.WithFields(logrus.Fields{"recipients": len(out.Recipients())}).Info("Sent mail")

	if config.AppendSent {
		cs.appendSent(manager, logger, raw)
	}

	return messageId, nil
}

func (cs *CrmSync) appendSent(manager *session.Manager, logger *logrus.Entry, raw []byte) {
	reader, err := manager.Reader()
	if err != nil {
		logger.WithError(err).Warn("Could not open mailbox to store sent copy")
		return
	}

	mailbox, err := reader.FindSentMailbox(cs.configuration.SentCandidates)
	if err != nil {
		logger.WithError(err).Warn("Could not find sent folder to store sent copy")
		return
	}
	if len(mailbox) == 0 {
		logger.Warn("No sent folder found, sent copy not stored")
		return
	}

	uid, err := reader.Append(mailbox, raw)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{"mailbox": mailbox}).Warn("Could not store sent copy")
		return
	}
	logger.WithFields(logrus.Fields{"mailbox": mailbox, "uid": uid}).Debug("Stored sent copy")
}
