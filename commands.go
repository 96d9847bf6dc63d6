// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/scheduler"
	"github.com/CrawX/go-imap-crmsync/server"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler and the http api until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(conf)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := scheduler.NewScheduler(a.persistence, a.engine, conf.SchedulerTick.Duration, conf.MaxConcurrentRuns)
		httpServer := server.NewServer(sched, a.engine, a.persistence)

		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return sched.Run(ctx)
		})
		group.Go(func() error {
			return httpServer.Start(conf.HttpListen)
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		logger.WithFields(logrus.Fields{"listen": conf.HttpListen, "maxconcurrentruns": conf.MaxConcurrentRuns}).Info("Running")
		return group.Wait()
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <mailbox id>",
	Short: "Sync one mailbox once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(conf)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := a.engine.Sync(ctx, args[0])
		if result != nil {
			for _, e := range result.Errors {
				logger.WithError(e).Warn("Could not sync mail")
			}
			logger.WithFields(logrus.Fields{
				"inbound":  result.InboundSynced,
				"outbound": result.OutboundSynced,
				"success":  result.Success,
			}).Info("Sync finished")
		}
		return err
	},
}

var (
	sendTo        []string
	sendCc        []string
	sendBcc       []string
	sendSubject   string
	sendText      string
	sendHtml      string
	sendInReplyTo string
)

var sendCmd = &cobra.Command{
	Use:   "send <mailbox id>",
	Short: "Send a mail from a mailbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(conf)
		if err != nil {
			return err
		}
		defer a.close()

		out := &domain.OutgoingMessage{
			To:        parseAddresses(sendTo),
			Cc:        parseAddresses(sendCc),
			Bcc:       parseAddresses(sendBcc),
			Subject:   sendSubject,
			TextBody:  sendText,
			HtmlBody:  sendHtml,
			InReplyTo: sendInReplyTo,
		}
		if len(sendInReplyTo) > 0 {
			out.References = []string{sendInReplyTo}
		}

		messageId, err := a.engine.SendEmail(cmd.Context(), args[0], out)
		if err != nil {
			return err
		}
		fmt.Println(messageId)
		return nil
	},
}

func parseAddresses(values []string) []domain.Address {
	addresses := []domain.Address{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) > 0 {
			addresses = append(addresses, domain.Address{Address: v})
		}
	}
	return addresses
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage the contacts mails are correlated with",
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <email> [name]",
	Short: "Add a contact",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(conf)
		if err != nil {
			return err
		}
		defer a.close()

		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		contact, err := a.persistence.AddContact(args[0], name)
		if err != nil {
			return err
		}
		fmt.Println(contact.Id)
		return nil
	},
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage mailbox secrets in the keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store a secret read from stdin and print the reference to put in the config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(conf)
		if err != nil {
			return err
		}
		defer a.close()

		value, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && len(value) == 0 {
			return fmt.Errorf("could not read secret from stdin: %w", err)
		}
		value = strings.TrimRight(value, "\r\n")
		if len(value) == 0 {
			return errors.New("secret must not be empty")
		}

		reference, err := a.resolver.StoreSecret(args[0], value)
		if err != nil {
			return err
		}
		fmt.Println(reference)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringSliceVar(&sendTo, "to", nil, "recipient address, repeatable")
	sendCmd.Flags().StringSliceVar(&sendCc, "cc", nil, "cc address, repeatable")
	sendCmd.Flags().StringSliceVar(&sendBcc, "bcc", nil, "bcc address, repeatable")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "subject")
	sendCmd.Flags().StringVar(&sendText, "text", "", "plain text body")
	sendCmd.Flags().StringVar(&sendHtml, "html", "", "html body")
	sendCmd.Flags().StringVar(&sendInReplyTo, "in-reply-to", "", "Message-Id of the mail this one answers")

	contactsCmd.AddCommand(contactsAddCmd)
	secretCmd.AddCommand(secretSetCmd)
}
