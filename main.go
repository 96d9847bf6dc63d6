// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CrawX/go-imap-crmsync/config"
	"github.com/CrawX/go-imap-crmsync/credential"
	"github.com/CrawX/go-imap-crmsync/crmsync"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
	"github.com/CrawX/go-imap-crmsync/notifier"
	"github.com/CrawX/go-imap-crmsync/persistence"
	"github.com/CrawX/go-imap-crmsync/session"
)

var (
	configFile string
	conf       *config.Config
	logger     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "crmsync",
	Short:         "Sync mailboxes into CRM activities and send mail on their behalf",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.ReadConfig(configFile)
		if err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}
		if conf.Loglevel != nil {
			log.SetLogLevel(*conf.Loglevel)
		}
		return nil
	},
}

// app is everything a command needs, wired from the config.
type app struct {
	persistence *persistence.Persistence
	resolver    *credential.Resolver
	notifier    domain.ActivityNotifier
	engine      *crmsync.CrmSync
}

func openApp(conf *config.Config) (*app, error) {
	p, err := persistence.NewPersistence(conf.Database)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	a := &app{persistence: p}
	ring, err := credential.OpenKeyring(conf.Keyring)
	if err != nil {
		logger.WithError(err).Warn("Could not open keyring, keyring secrets are unavailable")
	}
	a.resolver = credential.NewResolver(ring)

	for i := range conf.Mailbox {
		syncConfig := conf.Mailbox[i].SyncConfig()
		err = p.SaveSyncConfig(syncConfig)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("could not save mailbox %s: %w", syncConfig.Id, err)
		}
	}

	configFuncs := []crmsync.ConfigFunc{
		crmsync.BatchSize(conf.BatchSize),
		crmsync.RunBudget(conf.RunBudget.Duration),
		crmsync.MaxMessageAttempts(conf.MaxMessageAttempts),
	}
	a.notifier, err = notifier.New(conf.Notifier)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("could not connect notifier: %w", err)
	}
	if a.notifier != nil {
		configFuncs = append(configFuncs, crmsync.Notifier(a.notifier))
	}

	factory := session.NewFactory(a.resolver, conf.Timeout.Duration)
	a.engine, err = crmsync.NewCrmSync(p, p, p, p, factory, configFuncs...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("could not start crmsync: %w", err)
	}

	logger.WithFields(logrus.Fields{"database": conf.Database, "mailboxes": len(conf.Mailbox)}).Debug("Started")
	return a, nil
}

func (a *app) close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			logger.WithError(err).Warn("Could not close notifier")
		}
	}
	if err := a.persistence.Close(); err != nil {
		logger.WithError(err).Warn("Could not close database")
	}
}

func main() {
	log.InitLogging("info")
	logger = log.Logger(log.LOG_MAIN)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.toml", "path to the config file")
	rootCmd.AddCommand(runCmd, syncCmd, sendCmd, contactsCmd, secretCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
