// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
)

// GetCursor returns the stored cursor or a zero cursor if the folder was never synced.
func (p *Persistence) GetCursor(configId, folder string) (*domain.Cursor, error) {
	dbCursor := struct {
		Mailbox     string
		UidValidity uint32
		Uid         uint32
	}{}

	err := p.db.Get(
		&dbCursor,
		"SELECT mailbox, uidvalidity, uid FROM cursors WHERE configid = ? AND folder = ?",
		configId,
		folder,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Cursor{ConfigId: configId, Folder: folder}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	return &domain.Cursor{
		ConfigId:    configId,
		Folder:      folder,
		Mailbox:     dbCursor.Mailbox,
		UidValidity: dbCursor.UidValidity,
		Uid:         dbCursor.Uid,
	}, nil
}

// AdvanceCursor upserts the cursor. For an unchanged mailbox and uid validity
// the stored uid never decreases.
func (p *Persistence) AdvanceCursor(configId, folder, mailbox string, uidValidity, uid uint32) error {
	_, err := p.db.Exec(
		`INSERT INTO cursors (configid, folder, mailbox, uidvalidity, uid) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (configid, folder) DO UPDATE SET
			uid = CASE
				WHEN cursors.mailbox = excluded.mailbox AND cursors.uidvalidity = excluded.uidvalidity
				THEN MAX(cursors.uid, excluded.uid)
				ELSE excluded.uid
			END,
			mailbox = excluded.mailbox,
			uidvalidity = excluded.uidvalidity`,
		configId, folder, mailbox, uidValidity, uid,
	)
	if err != nil {
		return fmt.Errorf("could not advance cursor: %w", err)
	}

	p.l.WithFields(logrus.Fields{
		"ConfigId": configId,
		"Folder":   folder,
		"Uid":      uid,
	}).Debug("Advanced cursor")
	return nil
}

// ResetCursor starts the folder over for a new mailbox or uid validity and
// forgets all failures recorded for the old uids.
func (p *Persistence) ResetCursor(configId, folder, mailbox string, uidValidity uint32) error {
	tx, err := p.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO cursors (configid, folder, mailbox, uidvalidity, uid) VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (configid, folder) DO UPDATE SET
			uid = 0,
			mailbox = excluded.mailbox,
			uidvalidity = excluded.uidvalidity`,
		configId, folder, mailbox, uidValidity,
	)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not reset cursor: %w", err))
	}

	_, err = tx.Exec(
		"DELETE FROM failedmessages WHERE configid = ? AND folder = ?",
		configId, folder,
	)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not delete failures: %w", err))
	}

	p.l.WithFields(logrus.Fields{
		"ConfigId":    configId,
		"Folder":      folder,
		"Mailbox":     mailbox,
		"UidValidity": uidValidity,
	}).Info("Reset cursor")
	return txEnd(tx, nil)
}

// RecordFailure counts a failed attempt at uid and returns the number of attempts so far.
func (p *Persistence) RecordFailure(configId, folder string, uid uint32, reason string) (int, error) {
	tx, err := p.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return 0, fmt.Errorf("could not start transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO failedmessages (configid, folder, uid, attempts, lasterror) VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (configid, folder, uid) DO UPDATE SET
			attempts = failedmessages.attempts + 1,
			lasterror = excluded.lasterror`,
		configId, folder, uid, reason,
	)
	if err != nil {
		return 0, txEnd(tx, fmt.Errorf("could not record failure: %w", err))
	}

	attempts := 0
	err = tx.Get(
		&attempts,
		"SELECT attempts FROM failedmessages WHERE configid = ? AND folder = ? AND uid = ?",
		configId, folder, uid,
	)
	if err != nil {
		return 0, txEnd(tx, fmt.Errorf("could not query attempts: %w", err))
	}

	return attempts, txEnd(tx, nil)
}

func (p *Persistence) ClearFailures(configId, folder string, upToUid uint32) error {
	_, err := p.db.Exec(
		"DELETE FROM failedmessages WHERE configid = ? AND folder = ? AND uid <= ?",
		configId, folder, upToUid,
	)
	if err != nil {
		return fmt.Errorf("could not clear failures: %w", err)
	}

	return nil
}
