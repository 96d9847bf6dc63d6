// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/domain/mocks"
)

func quoteAnswer() *domain.OutgoingMessage {
	return &domain.OutgoingMessage{
		To:         []domain.Address{{Name: "Alice", Address: "alice@example.com"}},
		Bcc:        []domain.Address{{Address: "archive@crm.test"}},
		Subject:    "Re: Quote",
		TextBody:   "Here is your quote.",
		InReplyTo:  "<quote-1@example.com>",
		References: []string{"<quote-1@example.com>"},
	}
}

func TestSendEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _ := setupMailbox()
	store.configs[TEST_CONFIG].AppendSent = true
	factory := mocks.NewMockSessionFactory(ctrl)
	sender := mocks.NewMockMailSender(ctrl)
	reader := mocks.NewMockMailReader(ctrl)

	var sent []byte
	factory.EXPECT().OpenSender(gomock.Any()).Return(sender, nil)
	sender.EXPECT().
		Send(gomock.Eq("sales@crm.test"), gomock.Eq([]string{"alice@example.com", "archive@crm.test"}), gomock.Any()).
		DoAndReturn(func(from string, recipients []string, raw []byte) error {
			sent = raw
			return nil
		})
	factory.EXPECT().OpenReader(gomock.Any()).Return(reader, nil)
	reader.EXPECT().FindSentMailbox(gomock.Any()).Return("Sent", nil)
	reader.EXPECT().Append(gomock.Eq("Sent"), gomock.Any()).Return(uint32(12), nil)
	sender.EXPECT().Close().Return(nil)
	reader.EXPECT().Close().Return(nil)

	cs := newTestSync(t, store, factory)
	messageId, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(messageId, "@crm.test"))
	assert.Contains(t, string(sent), messageId)
	assert.Contains(t, string(sent), "In-Reply-To: <quote-1@example.com>")
	assert.NotContains(t, string(sent), "archive@crm.test")
}

func TestSendEmail_NoAppend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _ := setupMailbox()
	factory := mocks.NewMockSessionFactory(ctrl)
	sender := mocks.NewMockMailSender(ctrl)

	factory.EXPECT().OpenSender(gomock.Any()).Return(sender, nil)
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	sender.EXPECT().Close().Return(nil)

	cs := newTestSync(t, store, factory)
	_, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	assert.NoError(t, err)
}

func TestSendEmail_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		code    int
	}{
		{"rejected", &domain.SendError{Code: 550, Reason: "mailbox unavailable"}, 550},
		{"plain error", errors.New("broken pipe"), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store, _ := setupMailbox()
			store.configs[TEST_CONFIG].AppendSent = true
			factory := mocks.NewMockSessionFactory(ctrl)
			sender := mocks.NewMockMailSender(ctrl)

			factory.EXPECT().OpenSender(gomock.Any()).Return(sender, nil)
			sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(tc.sendErr).Times(1)
			sender.EXPECT().Close().Return(nil)

			cs := newTestSync(t, store, factory)
			messageId, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
			assert.Empty(t, messageId)
			var sendErr *domain.SendError
			assert.True(t, errors.As(err, &sendErr))
			assert.Equal(t, tc.code, sendErr.Code)
		})
	}
}

func TestSendEmail_AppendFailureIsLoggedOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _ := setupMailbox()
	store.configs[TEST_CONFIG].AppendSent = true
	factory := mocks.NewMockSessionFactory(ctrl)
	sender := mocks.NewMockMailSender(ctrl)
	reader := mocks.NewMockMailReader(ctrl)

	factory.EXPECT().OpenSender(gomock.Any()).Return(sender, nil)
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	factory.EXPECT().OpenReader(gomock.Any()).Return(reader, nil)
	reader.EXPECT().FindSentMailbox(gomock.Any()).Return("Sent", nil)
	reader.EXPECT().Append(gomock.Any(), gomock.Any()).Return(uint32(0), errors.New("quota exceeded"))
	sender.EXPECT().Close().Return(nil)
	reader.EXPECT().Close().Return(nil)

	cs := newTestSync(t, store, factory)
	messageId, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	assert.NoError(t, err)
	assert.NotEmpty(t, messageId)
}

func TestSendEmail_SessionAndValidationErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _ := setupMailbox()
	factory := mocks.NewMockSessionFactory(ctrl)
	gomock.InOrder(
		factory.EXPECT().OpenSender(gomock.Any()).Return(nil, errors.New("dial tcp: connection refused")),
		factory.EXPECT().OpenSender(gomock.Any()).Return(nil, &domain.ConnectionError{Op: "smtp auth", Err: errors.New("535 5.7.8 token expired")}),
	)

	cs := newTestSync(t, store, factory)
	_, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	var connErr *domain.ConnectionError
	var sendErr *domain.SendError
	assert.True(t, errors.As(err, &connErr))
	assert.True(t, errors.As(err, &sendErr))

	// an expired login is a rejected send that still names the session failure
	_, err = cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	if assert.True(t, errors.As(err, &sendErr)) {
		assert.Equal(t, "connection error during smtp auth: 535 5.7.8 token expired", sendErr.Reason)
	}
	if assert.True(t, errors.As(err, &connErr)) {
		assert.Equal(t, "smtp auth", connErr.Op)
	}

	// nothing is opened for an invalid message
	_, err = cs.SendEmail(context.Background(), TEST_CONFIG, &domain.OutgoingMessage{TextBody: "no one"})
	assert.EqualError(t, err, "could not compose mail: message has no recipients")

	_, err = cs.SendEmail(context.Background(), "unknown", quoteAnswer())
	assert.True(t, errors.Is(err, domain.ErrConfigNotFound))
}

// A sent copy is picked up by the next outbound run exactly once.
func TestSendEmail_SentCopyIsSyncedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, mailbox := setupMailbox()
	store.configs[TEST_CONFIG].AppendSent = true
	sender := mocks.NewMockMailSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	sender.EXPECT().Close().Return(nil)

	cs := newTestSync(t, store, &fakeSessions{reader: mailbox, sender: sender})
	_, err := cs.Sync(context.Background(), TEST_CONFIG)
	assert.NoError(t, err)

	messageId, err := cs.SendEmail(context.Background(), TEST_CONFIG, quoteAnswer())
	assert.NoError(t, err)
	assert.Len(t, mailbox.appended["Sent"], 1)

	result, err := cs.Sync(context.Background(), TEST_CONFIG)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.OutboundSynced)
	activity := store.activity(messageId, domain.Outbound)
	if assert.NotNil(t, activity) {
		assert.Equal(t, "c-alice", activity.ContactId)
		assert.Equal(t, "quote-1@example.com", activity.ThreadId)
	}

	result, err = cs.Sync(context.Background(), TEST_CONFIG)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.OutboundSynced)
}
