// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
)

type dbSyncConfig struct {
	Id                string
	UserId            string
	TeamId            string
	Provider          string
	Email             string
	Username          string
	Secret            string
	OAuthClientId     string
	OAuthClientSecret string
	OAuthRefreshToken string
	OAuthAccessToken  string
	ImapHost          string
	ImapPort          int
	ImapSecurity      string
	SmtpHost          string
	SmtpPort          int
	SmtpSecurity      string
	SyncInbox         bool
	SyncSent          bool
	AppendSent        bool
	IntervalSeconds   int64
	LastSyncAt        sql.NullTime
}

const syncConfigColumns = `id, userid, teamid, provider, email, username, secret,
	oauthclientid, oauthclientsecret, oauthrefreshtoken, oauthaccesstoken,
	imaphost, imapport, imapsecurity, smtphost, smtpport, smtpsecurity,
	syncinbox, syncsent, appendsent, intervalseconds, lastsyncat`

func (c *dbSyncConfig) toDomain() *domain.SyncConfig {
	config := &domain.SyncConfig{
		Id:         c.Id,
		UserId:     c.UserId,
		TeamId:     c.TeamId,
		Provider:   domain.Provider(c.Provider),
		Email:      c.Email,
		Username:   c.Username,
		Secret:     c.Secret,
		Imap:       domain.Endpoint{Host: c.ImapHost, Port: c.ImapPort, Security: domain.Security(c.ImapSecurity)},
		Smtp:       domain.Endpoint{Host: c.SmtpHost, Port: c.SmtpPort, Security: domain.Security(c.SmtpSecurity)},
		SyncInbox:  c.SyncInbox,
		SyncSent:   c.SyncSent,
		AppendSent: c.AppendSent,
		Interval:   time.Duration(c.IntervalSeconds) * time.Second,
	}
	if len(c.OAuthRefreshToken) > 0 || len(c.OAuthAccessToken) > 0 {
		config.OAuth = &domain.OAuthCredential{
			ClientId:     c.OAuthClientId,
			ClientSecret: c.OAuthClientSecret,
			RefreshToken: c.OAuthRefreshToken,
			AccessToken:  c.OAuthAccessToken,
		}
	}
	if c.LastSyncAt.Valid {
		lastSyncAt := c.LastSyncAt.Time
		config.LastSyncAt = &lastSyncAt
	}
	return config
}

// FindSyncConfig looks up one config by id, returning domain.ErrConfigNotFound if it doesn't exist.
func (p *Persistence) FindSyncConfig(id string) (*domain.SyncConfig, error) {
	dbConfig := dbSyncConfig{}
	err := p.db.Get(
		&dbConfig,
		`SELECT `+syncConfigColumns+` FROM syncconfigs WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	return dbConfig.toDomain(), nil
}

func (p *Persistence) AllSyncConfigs() ([]*domain.SyncConfig, error) {
	dbConfigs := []dbSyncConfig{}
	err := p.db.Select(
		&dbConfigs,
		`SELECT `+syncConfigColumns+` FROM syncconfigs ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	configs := []*domain.SyncConfig{}
	for i := range dbConfigs {
		configs = append(configs, dbConfigs[i].toDomain())
	}

	p.l.WithField("Count", len(configs)).Debug("Found sync configs")

	return configs, nil
}

// SaveSyncConfig inserts or updates config. LastSyncAt of an existing config is kept.
func (p *Persistence) SaveSyncConfig(config *domain.SyncConfig) error {
	oauth := config.OAuth
	if oauth == nil {
		oauth = &domain.OAuthCredential{}
	}

	_, err := p.db.Exec(
		`INSERT INTO syncconfigs (`+syncConfigColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT (id) DO UPDATE SET
			userid = excluded.userid, teamid = excluded.teamid, provider = excluded.provider,
			email = excluded.email, username = excluded.username, secret = excluded.secret,
			oauthclientid = excluded.oauthclientid, oauthclientsecret = excluded.oauthclientsecret,
			oauthrefreshtoken = excluded.oauthrefreshtoken, oauthaccesstoken = excluded.oauthaccesstoken,
			imaphost = excluded.imaphost, imapport = excluded.imapport, imapsecurity = excluded.imapsecurity,
			smtphost = excluded.smtphost, smtpport = excluded.smtpport, smtpsecurity = excluded.smtpsecurity,
			syncinbox = excluded.syncinbox, syncsent = excluded.syncsent, appendsent = excluded.appendsent,
			intervalseconds = excluded.intervalseconds`,
		config.Id, config.UserId, config.TeamId, string(config.Provider), config.Email, config.Username, config.Secret,
		oauth.ClientId, oauth.ClientSecret, oauth.RefreshToken, oauth.AccessToken,
		config.Imap.Host, config.Imap.Port, string(config.Imap.Security),
		config.Smtp.Host, config.Smtp.Port, string(config.Smtp.Security),
		config.SyncInbox, config.SyncSent, config.AppendSent, int64(config.Interval/time.Second),
	)
	if err != nil {
		return fmt.Errorf("could not save sync config: %w", err)
	}

	p.l.WithFields(logrus.Fields{"Id": config.Id, "Provider": config.Provider}).Info("Persisted sync config")
	return nil
}

func (p *Persistence) MarkSynced(id string, at time.Time) error {
	result, err := p.db.Exec(
		"UPDATE syncconfigs SET lastsyncat = ? WHERE id = ?",
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("could not update last sync: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get num of affected rows: %w", err)
	}

	if affected != 1 {
		return fmt.Errorf("%w: %s", domain.ErrConfigNotFound, id)
	}

	return nil
}
