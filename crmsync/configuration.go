// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"fmt"
	"time"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/imapconnection"
)

type ConfigFunc func(c *configuration) error

func BatchSize(size int) ConfigFunc {
	return func(c *configuration) error {
		if size <= 0 {
			return fmt.Errorf("BatchSize must be positive")
		}

		c.BatchSize = size
		return nil
	}
}

// RunBudget limits how long one run keeps starting new batches.
func RunBudget(budget time.Duration) ConfigFunc {
	return func(c *configuration) error {
		if budget <= 0 {
			return fmt.Errorf("RunBudget must be positive")
		}

		c.RunBudget = budget
		return nil
	}
}

func MaxMessageAttempts(attempts int) ConfigFunc {
	return func(c *configuration) error {
		if attempts <= 0 {
			return fmt.Errorf("MaxMessageAttempts must be positive")
		}

		c.MaxMessageAttempts = attempts
		return nil
	}
}

func SentCandidates(candidates []string) ConfigFunc {
	return func(c *configuration) error {
		if len(candidates) == 0 {
			return fmt.Errorf("SentCandidates cannot be empty")
		}

		c.SentCandidates = candidates
		return nil
	}
}

func Notifier(notifier domain.ActivityNotifier) ConfigFunc {
	return func(c *configuration) error {
		if notifier == nil {
			return fmt.Errorf("Notifier cannot be nil")
		}

		c.Notifier = notifier
		return nil
	}
}

type configuration struct {
	BatchSize          int
	RunBudget          time.Duration
	MaxMessageAttempts int
	SentCandidates     []string

	Notifier domain.ActivityNotifier
}

func defaultConfiguration() *configuration {
	return &configuration{
		BatchSize:          50,
		RunBudget:          5 * time.Minute,
		MaxMessageAttempts: 3,
		SentCandidates:     imapconnection.DefaultSentCandidates,
	}
}
