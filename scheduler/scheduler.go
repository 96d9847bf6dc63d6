// SPDX-License-Identifier: GPL-3.0-or-later
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/CrawX/go-imap-crmsync/crmsync"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

var ErrAlreadyRunning = errors.New("sync is already running")

type Syncer interface {
	Sync(ctx context.Context, configId string) (*crmsync.Result, error)
}

// Scheduler starts due sync runs on every tick. A config never runs twice at
// the same time and at most limit runs are started by the ticker.
type Scheduler struct {
	configs domain.SyncConfigSource
	syncer  Syncer
	tick    time.Duration
	now     func() time.Time

	group *errgroup.Group

	mu      sync.Mutex
	running map[string]context.CancelFunc
	// attempted is the start of the last run per config, successful or not
	attempted map[string]time.Time

	l *logrus.Logger
}

func NewScheduler(configs domain.SyncConfigSource, syncer Syncer, tick time.Duration, limit int) *Scheduler {
	group := &errgroup.Group{}
	group.SetLimit(limit)

	return &Scheduler{
		configs:   configs,
		syncer:    syncer,
		tick:      tick,
		now:       time.Now,
		group:     group,
		running:   map[string]context.CancelFunc{},
		attempted: map[string]time.Time{},
		l:         log.Logger(log.LOG_SCHEDULER),
	}
}

// Run starts due configs until ctx is done and then waits for the runs in flight.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.l.WithFields(logrus.Fields{"tick": s.tick}).Info("Scheduler started")
	s.startDue(ctx)
	for {
		select {
		case <-ctx.Done():
			s.l.Info("Scheduler stopping, waiting for running syncs")
			s.Wait()
			return nil
		case <-ticker.C:
			s.startDue(ctx)
		}
	}
}

// Wait blocks until every run started by the ticker has finished.
func (s *Scheduler) Wait() {
	_ = s.group.Wait()
}

func (s *Scheduler) startDue(ctx context.Context) {
	configs, err := s.configs.AllSyncConfigs()
	if err != nil {
		s.l.WithError(err).Warn("Could not load sync configs")
		return
	}

	now := s.now()
	for _, c := range configs {
		if !c.Due(now) || !s.retryDue(c, now) {
			continue
		}

		id := c.Id
		runCtx, ok := s.claim(ctx, id)
		if !ok {
			s.l.WithFields(logrus.Fields{"config": id}).Debug("Sync still running, skipping")
			continue
		}

		started := s.group.TryGo(func() error {
			defer s.release(id)
			s.sync(runCtx, id)
			return nil
		})
		if !started {
			s.release(id)
			s.l.WithFields(logrus.Fields{"config": id}).Debug("Concurrency limit reached, waiting for next tick")
			continue
		}
		s.mu.Lock()
		s.attempted[id] = now
		s.mu.Unlock()
	}
}

// retryDue keeps failed configs, whose LastSyncAt doesn't move, from being retried on every tick.
func (s *Scheduler) retryDue(c *domain.SyncConfig, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempted, ok := s.attempted[c.Id]
	return !ok || !attempted.Add(c.Interval).After(now)
}

func (s *Scheduler) claim(parent context.Context, configId string) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[configId]; ok {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	s.running[configId] = cancel
	return ctx, true
}

func (s *Scheduler) release(configId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[configId]; ok {
		cancel()
		delete(s.running, configId)
	}
}

func (s *Scheduler) sync(ctx context.Context, configId string) (*crmsync.Result, error) {
	logger := s.l.WithFields(logrus.Fields{"config": configId})
	logger.Debug("Starting sync")

	result, err := s.syncer.Sync(ctx, configId)
	if err != nil {
		logger.WithError(err).Warn("Sync failed")
		return result, err
	}

	logger.WithFields(logrus.Fields{
		"inbound":  result.InboundSynced,
		"outbound": result.OutboundSynced,
		"errors":   len(result.Errors),
	}).Debug("Sync done")
	return result, nil
}

// SyncNow runs the config synchronously, outside of the concurrency limit.
func (s *Scheduler) SyncNow(ctx context.Context, configId string) (*crmsync.Result, error) {
	runCtx, ok := s.claim(ctx, configId)
	if !ok {
		return nil, ErrAlreadyRunning
	}
	defer s.release(configId)

	return s.sync(runCtx, configId)
}

// Cancel stops the run of configId after its current batch. It reports whether a run was in flight.
func (s *Scheduler) Cancel(configId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.running[configId]
	if ok {
		cancel()
		s.l.WithFields(logrus.Fields{"config": configId}).Info("Cancelled sync")
	}
	return ok
}

// Running reports whether configId is mid-run.
func (s *Scheduler) Running(configId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.running[configId]
	return ok
}
