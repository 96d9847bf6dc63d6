// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
)

type Contact struct {
	Id    string
	Email string
	Name  string
}

func (p *Persistence) FindContactByEmail(address string) (string, bool, error) {
	id := ""
	err := p.db.Get(
		&id,
		"SELECT id FROM contacts WHERE email = ?",
		strings.TrimSpace(address),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("could not query db: %w", err)
	}

	return id, true, nil
}

// AddContact creates a contact, or returns the existing one with the same address.
func (p *Persistence) AddContact(email, name string) (*Contact, error) {
	email = strings.TrimSpace(email)
	if len(email) == 0 {
		return nil, fmt.Errorf("contact email must not be empty")
	}

	_, err := p.db.Exec(
		"INSERT INTO contacts (id, email, name) VALUES (?, ?, ?) ON CONFLICT (email) DO NOTHING",
		uuid.NewString(), email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("could not save contact: %w", err)
	}

	contact := &Contact{}
	err = p.db.Get(contact, "SELECT id, email, name FROM contacts WHERE email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	p.l.WithFields(logrus.Fields{"Id": contact.Id}).Debug("Persisted contact")
	return contact, nil
}

// UpsertActivity stores event unless the config already has an activity with
// the same message id and direction. It reports whether a row was created.
func (p *Persistence) UpsertActivity(event *domain.ActivityEvent) (bool, error) {
	if len(event.Id) == 0 {
		event.Id = uuid.NewString()
	}

	result, err := p.db.Exec(
		`INSERT INTO activities (id, configid, contactid, direction, messageid, threadid, subject,
			sender, recipients, cc, snippet, hasattachments, occurredat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (configid, messageid, direction) DO NOTHING`,
		event.Id, event.ConfigId, event.ContactId, string(event.Direction), event.MessageId, event.ThreadId, event.Subject,
		event.From, strings.Join(event.To, ","), strings.Join(event.Cc, ","), event.Snippet, event.HasAttachments, event.OccurredAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("could not save activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get num of affected rows: %w", err)
	}

	return affected == 1, nil
}

// ListActivities returns the activities recorded for a sync config, newest first.
func (p *Persistence) ListActivities(configId string, limit int) ([]*domain.ActivityEvent, error) {
	dbActivities := []struct {
		Id             string
		ConfigId       string
		ContactId      string
		Direction      string
		MessageId      string
		ThreadId       string
		Subject        string
		Sender         string
		Recipients     string
		Cc             string
		Snippet        string
		HasAttachments bool
		OccurredAt     time.Time
	}{}

	err := p.db.Select(
		&dbActivities,
		`SELECT id, configid, contactid, direction, messageid, threadid, subject, sender, recipients, cc,
			snippet, hasattachments, occurredat
		FROM activities WHERE configid = ? ORDER BY occurredat DESC, id LIMIT ?`,
		configId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	activities := []*domain.ActivityEvent{}
	for _, a := range dbActivities {
		activities = append(
			activities,
			&domain.ActivityEvent{
				Id:             a.Id,
				ConfigId:       a.ConfigId,
				ContactId:      a.ContactId,
				Direction:      domain.Direction(a.Direction),
				MessageId:      a.MessageId,
				ThreadId:       a.ThreadId,
				Subject:        a.Subject,
				From:           a.Sender,
				To:             splitList(a.Recipients),
				Cc:             splitList(a.Cc),
				Snippet:        a.Snippet,
				HasAttachments: a.HasAttachments,
				OccurredAt:     a.OccurredAt,
			},
		)
	}

	return activities, nil
}

func splitList(value string) []string {
	if len(value) == 0 {
		return []string{}
	}
	return strings.Split(value, ",")
}
