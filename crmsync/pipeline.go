// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/mail"
)

const snippetLength = 200

// pipeline syncs one logical folder of one config during a single run.
type pipeline struct {
	*CrmSync

	config    *domain.SyncConfig
	reader    domain.MailReader
	folder    string
	direction domain.Direction
	deadline  time.Time

	errors []error
	logger *logrus.Entry
}

func (p *pipeline) runSent(ctx context.Context) (int, error) {
	mailbox, err := p.reader.FindSentMailbox(p.configuration.SentCandidates)
	if err != nil {
		return 0, &domain.ConnectionError{Op: "find sent mailbox", Err: err}
	}
	if len(mailbox) == 0 {
		p.l.WithFields(logrus.Fields{"config": p.config.Id}).Warn("No sent folder found, skipping outbound sync")
		return 0, nil
	}

	return p.run(ctx, mailbox)
}

func (p *pipeline) run(ctx context.Context, mailbox string) (int, error) {
	p.logger = p.l.WithFields(logrus.Fields{"config": p.config.Id, "folder": p.folder, "mailbox": mailbox})

	status, err := p.reader.Select(mailbox)
	if err != nil {
		return 0, &domain.ConnectionError{Op: "select", Err: err}
	}

	cursor, err := p.cursors.GetCursor(p.config.Id, p.folder)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "get cursor", Err: err}
	}
	if len(cursor.Mailbox) > 0 && !cursor.Matches(status) {
		p.logger.WithFields(logrus.Fields{
			"oldmailbox":     cursor.Mailbox,
			"olduidvalidity": cursor.UidValidity,
			"uidvalidity":    status.UidValidity,
		}).Warn("Mailbox changed, resetting cursor")
		err = p.cursors.ResetCursor(p.config.Id, p.folder, status.Name, status.UidValidity)
		if err != nil {
			return 0, &domain.PersistenceError{Op: "reset cursor", Err: err}
		}
		cursor = &domain.Cursor{ConfigId: p.config.Id, Folder: p.folder, Mailbox: status.Name, UidValidity: status.UidValidity}
	}

	uids, err := p.reader.ListUidsSince(cursor.Uid)
	if err != nil {
		return 0, &domain.ConnectionError{Op: "search", Err: err}
	}
	if len(uids) == 0 {
		p.logger.WithFields(logrus.Fields{"cursor": cursor.Uid}).Debug("No new mails")
		return 0, nil
	}

	batches := partitionUids(uids, p.configuration.BatchSize)
	p.logger.WithFields(logrus.Fields{"cursor": cursor.Uid, "newmails": len(uids), "batches": len(batches)}).Info("Found mails to sync")

	watermark := cursor.Uid
	pinned := false
	synced := 0
	for i, batch := range batches {
		err = ctx.Err()
		if err != nil {
			p.logger.WithFields(logrus.Fields{"batch": i}).Info("Run cancelled")
			return synced, err
		}
		if !p.now().Before(p.deadline) {
			p.logger.WithFields(logrus.Fields{"batch": i, "remaining": len(batches) - i}).Warn("Run budget exhausted, continuing next run")
			return synced, nil
		}

		p.logger.WithFields(logrus.Fields{"state": "FetchingBatch", "batch": i, "size": len(batch)}).Debug("Fetching batch")
		handled, n, err := p.syncBatch(batch)
		synced += n
		if err != nil {
			return synced, err
		}

		// once a uid failed the watermark stays below it for the rest of the run
		if pinned {
			continue
		}
		advance := watermark
		for _, uid := range batch {
			if !handled[uid] {
				pinned = true
				break
			}
			advance = uid
		}
		if advance <= watermark {
			continue
		}

		p.logger.WithFields(logrus.Fields{"state": "AdvancingCursor", "from": watermark, "to": advance}).Debug("Advancing cursor")
		err = p.cursors.AdvanceCursor(p.config.Id, p.folder, status.Name, status.UidValidity, advance)
		if err != nil {
			return synced, &domain.PersistenceError{Op: "advance cursor", Err: err}
		}
		err = p.cursors.ClearFailures(p.config.Id, p.folder, advance)
		if err != nil {
			return synced, &domain.PersistenceError{Op: "clear failures", Err: err}
		}
		watermark = advance
	}

	return synced, nil
}

// syncBatch returns which uids of batch are handled and how many mails could be normalized.
func (p *pipeline) syncBatch(batch []uint32) (map[uint32]bool, int, error) {
	mails, err := p.reader.FetchMails(batch)
	if err != nil {
		return nil, 0, &domain.ConnectionError{Op: "fetch", Err: err}
	}

	fetched := make(map[uint32]*domain.RawImapMail, len(mails))
	for _, m := range mails {
		fetched[m.Uid] = m
	}

	handled := make(map[uint32]bool, len(batch))
	synced := 0
	for _, uid := range batch {
		raw, ok := fetched[uid]
		if !ok {
			p.logger.WithFields(logrus.Fields{"uid": uid}).Debug("Mail vanished before fetch")
			handled[uid] = true
			continue
		}

		var mailErr error
		if len(raw.RawMail) == 0 {
			mailErr = &domain.FetchError{Folder: p.folder, Uid: uid, Err: errors.New("no body returned")}
		} else {
			p.logger.WithFields(logrus.Fields{"state": "NormalizingEach", "uid": uid}).Debug("Normalizing mail")
			msg, err := mail.Normalize(raw)
			if err != nil {
				mailErr = &domain.ParseError{Folder: p.folder, Uid: uid, Err: err}
			} else {
				synced++
				err = p.correlate(msg)
				if err != nil {
					return nil, synced, err
				}
				handled[uid] = true
				continue
			}
		}

		p.errors = append(p.errors, mailErr)
		gaveUp, err := p.recordFailure(uid, mailErr)
		if err != nil {
			return nil, synced, err
		}
		handled[uid] = gaveUp
	}

	return handled, synced, nil
}

func (p *pipeline) recordFailure(uid uint32, mailErr error) (bool, error) {
	attempts, err := p.cursors.RecordFailure(p.config.Id, p.folder, uid, mailErr.Error())
	if err != nil {
		return false, &domain.PersistenceError{Op: "record failure", Err: err}
	}

	logger := p.logger.WithError(mailErr).WithFields(logrus.Fields{"uid": uid, "attempts": attempts})
	if attempts >= p.configuration.MaxMessageAttempts {
		logger.Error("Giving up on mail")
		return true, nil
	}

	logger.Warn("Could not sync mail, retrying next run")
	return false, nil
}

func (p *pipeline) correlate(msg *domain.EmailMessage) error {
	var address string
	if p.direction == domain.Inbound {
		address = msg.SenderAddress()
	} else {
		address = msg.PrimaryRecipientAddress()
	}

	logger := p.logger.WithFields(logrus.Fields{"state": "CorrelatingAndPersisting", "uid": msg.Uid, "messageid": msg.MessageId})
	if len(address) == 0 {
		logger.Debug("Mail has no address to correlate")
		return nil
	}

	contactId, found, err := p.contacts.FindContactByEmail(address)
	if err != nil {
		return &domain.PersistenceError{Op: "find contact", Err: err}
	}
	if !found {
		logger.Debug("No contact for mail")
		return nil
	}

	event := &domain.ActivityEvent{
		ConfigId:       p.config.Id,
		ContactId:      contactId,
		Direction:      p.direction,
		MessageId:      msg.MessageId,
		ThreadId:       msg.ThreadId,
		Subject:        msg.Subject,
		From:           msg.SenderAddress(),
		To:             addresses(msg.To),
		Cc:             addresses(msg.Cc),
		Snippet:        mail.Snippet(msg.TextBody, msg.HtmlBody, snippetLength),
		HasAttachments: hasAttachments(msg),
		OccurredAt:     msg.Date,
	}
	created, err := p.activities.UpsertActivity(event)
	if err != nil {
		return &domain.PersistenceError{Op: "upsert activity", Err: err}
	}
	if !created {
		logger.Debug("Activity already known")
		return nil
	}

	logger.WithFields(logrus.Fields{"contact": contactId}).Info("Created activity")
	if p.configuration.Notifier != nil {
		err = p.configuration.Notifier.NotifyActivity(event)
		if err != nil {
			logger.WithError(err).Warn("Could not publish activity")
		}
	}
	return nil
}

func addresses(list []domain.Address) []string {
	result := make([]string, 0, len(list))
	for _, a := range list {
		result = append(result, strings.ToLower(a.Address))
	}
	return result
}

func hasAttachments(msg *domain.EmailMessage) bool {
	for _, a := range msg.Attachments {
		if !a.Inline {
			return true
		}
	}
	return false
}
