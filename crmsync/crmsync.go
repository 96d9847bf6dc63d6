// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
	"github.com/CrawX/go-imap-crmsync/session"
)

const InboxMailbox = "INBOX"

// Result of one sync run. Errors holds the per-message errors, which never fail a run.
type Result struct {
	Success        bool
	InboundSynced  int
	OutboundSynced int
	Errors         []error
}

type CrmSync struct {
	configs    domain.SyncConfigSource
	cursors    domain.CursorStore
	contacts   domain.ContactDirectory
	activities domain.ActivityStore
	sessions   domain.SessionFactory

	configuration *configuration
	now           func() time.Time

	l *logrus.Logger
}

func NewCrmSync(configs domain.SyncConfigSource, cursors domain.CursorStore, contacts domain.ContactDirectory, activities domain.ActivityStore, sessions domain.SessionFactory, configFunc ...ConfigFunc) (*CrmSync, error) {
	config := defaultConfiguration()
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	return &CrmSync{
		configs:       configs,
		cursors:       cursors,
		contacts:      contacts,
		activities:    activities,
		sessions:      sessions,
		configuration: config,
		now:           time.Now,
		l:             log.Logger(log.LOG_CRMSYNC),
	}, nil
}

// Sync runs the inbound and the outbound pipeline of one config on a single
// read session. The returned error joins the fatal errors of both pipelines;
// LastSyncAt is only written if there are none.
func (cs *CrmSync) Sync(ctx context.Context, configId string) (*Result, error) {
	result := &Result{Errors: []error{}}

	config, err := cs.findConfig(configId)
	if err != nil {
		return result, err
	}

	baseLogger := cs.l.WithFields(logrus.Fields{"config": config.Id})
	start := cs.now()
	deadline := start.Add(cs.configuration.RunBudget)

	baseLogger.WithFields(logrus.Fields{"state": "Connecting"}).Debug("Starting sync run")
	manager := session.NewManager(cs.sessions, config)
	defer manager.Disconnect()

	err = manager.Initialize()
	if err != nil {
		baseLogger.WithError(err).WithFields(logrus.Fields{"state": "Failed"}).Warn("Could not open read session")
		return result, err
	}
	reader, err := manager.Reader()
	if err != nil {
		return result, err
	}

	fatal := []error{}
	if config.SyncInbox {
		p := &pipeline{
			CrmSync:   cs,
			config:    config,
			reader:    reader,
			folder:    domain.FolderInbox,
			direction: domain.Inbound,
			deadline:  deadline,
		}
		synced, err := p.run(ctx, InboxMailbox)
		result.InboundSynced = synced
		result.Errors = append(result.Errors, p.errors...)
		if err != nil {
			fatal = append(fatal, fmt.Errorf("inbound: %w", err))
		}
	}

	if config.SyncSent && ctx.Err() != nil {
		baseLogger.Debug("Run cancelled, skipping sent folder")
		if len(fatal) == 0 {
			fatal = append(fatal, fmt.Errorf("outbound: %w", ctx.Err()))
		}
	} else if config.SyncSent {
		p := &pipeline{
			CrmSync:   cs,
			config:    config,
			reader:    reader,
			folder:    domain.FolderSent,
			direction: domain.Outbound,
			deadline:  deadline,
		}
		synced, err := p.runSent(ctx)
		result.OutboundSynced = synced
		result.Errors = append(result.Errors, p.errors...)
		if err != nil {
			fatal = append(fatal, fmt.Errorf("outbound: %w", err))
		}
	}

	runLogger := baseLogger.WithFields(logrus.Fields{
		"duration": cs.now().Sub(start),
		"inbound":  result.InboundSynced,
		"outbound": result.OutboundSynced,
		"errors":   len(result.Errors),
	})
	if len(fatal) > 0 {
		err = errors.Join(fatal...)
		runLogger.WithError(err).WithFields(logrus.Fields{"state": "Failed"}).Warn("Sync run failed")
		return result, err
	}

	err = cs.configs.MarkSynced(config.Id, start)
	if err != nil {
		err = &domain.PersistenceError{Op: "mark synced", Err: err}
		runLogger.WithError(err).WithFields(logrus.Fields{"state": "Failed"}).Warn("Sync run failed")
		return result, err
	}

	result.Success = true
	runLogger.WithFields(logrus.Fields{"state": "Idle"}).Info("Sync run finished")
	return result, nil
}

func (cs *CrmSync) findConfig(configId string) (*domain.SyncConfig, error) {
	config, err := cs.configs.FindSyncConfig(configId)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "find sync config", Err: err}
	}
	return config, nil
}

// taken from https://github.com/golang/go/wiki/SliceTricks
func partitionUids(uids []uint32, partitionSize int) [][]uint32 {
	batches := make([][]uint32, 0, (len(uids)+partitionSize-1)/partitionSize)

	for partitionSize < len(uids) {
		uids, batches = uids[partitionSize:], append(batches, uids[0:partitionSize:partitionSize])
	}
	batches = append(batches, uids)

	return batches
}
