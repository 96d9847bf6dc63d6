// SPDX-License-Identifier: GPL-3.0-or-later
package crmsync

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/domain"
)

// fakeStore keeps configs, cursors, contacts and activities in memory with the
// same semantics as the sqlite store.
type fakeStore struct {
	mu sync.Mutex

	configs    map[string]*domain.SyncConfig
	cursors    map[string]*domain.Cursor
	failures   map[string]int
	contacts   map[string]string
	activities map[string]*domain.ActivityEvent

	upsertErr error
	findErr   error
}

func newFakeStore(configs ...*domain.SyncConfig) *fakeStore {
	s := &fakeStore{
		configs:    map[string]*domain.SyncConfig{},
		cursors:    map[string]*domain.Cursor{},
		failures:   map[string]int{},
		contacts:   map[string]string{},
		activities: map[string]*domain.ActivityEvent{},
	}
	for _, c := range configs {
		s.configs[c.Id] = c
	}
	return s
}

func (s *fakeStore) FindSyncConfig(id string) (*domain.SyncConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[id]
	if !ok {
		return nil, fmt.Errorf("config %s: %w", id, domain.ErrConfigNotFound)
	}
	copied := *c
	return &copied, nil
}

func (s *fakeStore) AllSyncConfigs() ([]*domain.SyncConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []*domain.SyncConfig{}
	for _, c := range s.configs {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Id < all[j].Id })
	return all, nil
}

func (s *fakeStore) MarkSynced(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[id]
	if !ok {
		return domain.ErrConfigNotFound
	}
	c.LastSyncAt = &at
	return nil
}

func cursorKey(configId, folder string) string {
	return configId + "/" + folder
}

func failureKey(configId, folder string, uid uint32) string {
	return fmt.Sprintf("%s/%s/%d", configId, folder, uid)
}

func (s *fakeStore) GetCursor(configId, folder string) (*domain.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cursors[cursorKey(configId, folder)]
	if !ok {
		return &domain.Cursor{ConfigId: configId, Folder: folder}, nil
	}
	copied := *c
	return &copied, nil
}

func (s *fakeStore) AdvanceCursor(configId, folder, mailbox string, uidValidity, uid uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cursorKey(configId, folder)
	c, ok := s.cursors[key]
	if ok && c.Mailbox == mailbox && c.UidValidity == uidValidity && c.Uid >= uid {
		return nil
	}
	s.cursors[key] = &domain.Cursor{ConfigId: configId, Folder: folder, Mailbox: mailbox, UidValidity: uidValidity, Uid: uid}
	return nil
}

func (s *fakeStore) ResetCursor(configId, folder, mailbox string, uidValidity uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[cursorKey(configId, folder)] = &domain.Cursor{ConfigId: configId, Folder: folder, Mailbox: mailbox, UidValidity: uidValidity}
	prefix := cursorKey(configId, folder) + "/"
	for k := range s.failures {
		if strings.HasPrefix(k, prefix) {
			delete(s.failures, k)
		}
	}
	return nil
}

func (s *fakeStore) RecordFailure(configId, folder string, uid uint32, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := failureKey(configId, folder, uid)
	s.failures[key]++
	return s.failures[key], nil
}

func (s *fakeStore) ClearFailures(configId, folder string, upToUid uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uid := uint32(1); uid <= upToUid; uid++ {
		delete(s.failures, failureKey(configId, folder, uid))
	}
	return nil
}

func (s *fakeStore) FindContactByEmail(address string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return "", false, s.findErr
	}
	id, ok := s.contacts[strings.ToLower(address)]
	return id, ok, nil
}

func (s *fakeStore) UpsertActivity(event *domain.ActivityEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	key := event.ConfigId + "/" + event.MessageId + "/" + string(event.Direction)
	if _, ok := s.activities[key]; ok {
		return false, nil
	}
	event.Id = fmt.Sprintf("activity-%d", len(s.activities)+1)
	s.activities[key] = event
	return true, nil
}

func (s *fakeStore) activity(messageId string, direction domain.Direction) *domain.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activities[TEST_CONFIG+"/"+messageId+"/"+string(direction)]
}

func (s *fakeStore) activityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.activities)
}

func (s *fakeStore) cursor(configId, folder string) *domain.Cursor {
	c, _ := s.GetCursor(configId, folder)
	return c
}

type fakeFolder struct {
	uidValidity uint32
	mails       map[uint32][]byte
}

// fakeMailbox serves folders from memory. It counts as a single session, so
// only one folder is selected at a time.
type fakeMailbox struct {
	folders     map[string]*fakeFolder
	sentMailbox string

	selected  string
	vanished  map[uint32]bool
	selectErr map[string]error
	fetchErr  error
	onFetch   func(uids []uint32)

	fetches  [][]uint32
	appended map[string][][]byte
	closed   bool
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		folders:   map[string]*fakeFolder{},
		vanished:  map[uint32]bool{},
		selectErr: map[string]error{},
		appended:  map[string][][]byte{},
	}
}

func (m *fakeMailbox) put(mailbox string, uidValidity uint32, mails map[uint32][]byte) {
	m.folders[mailbox] = &fakeFolder{uidValidity: uidValidity, mails: mails}
}

func (m *fakeMailbox) Select(mailbox string) (*domain.MailboxStatus, error) {
	if err, ok := m.selectErr[mailbox]; ok {
		return nil, err
	}
	f, ok := m.folders[mailbox]
	if !ok {
		return nil, fmt.Errorf("no such mailbox %s", mailbox)
	}
	m.selected = mailbox
	return &domain.MailboxStatus{Name: mailbox, UidValidity: f.uidValidity, Messages: uint32(len(f.mails))}, nil
}

func (m *fakeMailbox) ListUidsSince(uid uint32) ([]uint32, error) {
	uids := []uint32{}
	for u := range m.folders[m.selected].mails {
		if u > uid {
			uids = append(uids, u)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (m *fakeMailbox) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	m.fetches = append(m.fetches, uids)
	if m.onFetch != nil {
		m.onFetch(uids)
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	mails := []*domain.RawImapMail{}
	for _, uid := range uids {
		if m.vanished[uid] {
			continue
		}
		mails = append(mails, &domain.RawImapMail{
			Uid:          uid,
			RawMail:      m.folders[m.selected].mails[uid],
			InternalDate: time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC),
		})
	}
	return mails, nil
}

func (m *fakeMailbox) FindSentMailbox(candidates []string) (string, error) {
	return m.sentMailbox, nil
}

func (m *fakeMailbox) Append(mailbox string, raw []byte) (uint32, error) {
	m.appended[mailbox] = append(m.appended[mailbox], raw)

	f, ok := m.folders[mailbox]
	if !ok {
		return 0, fmt.Errorf("no such mailbox %s", mailbox)
	}
	uid := uint32(1)
	for u := range f.mails {
		if u >= uid {
			uid = u + 1
		}
	}
	f.mails[uid] = raw
	return uid, nil
}

func (m *fakeMailbox) Close() error {
	m.closed = true
	return nil
}

type fakeSessions struct {
	reader    domain.MailReader
	readerErr error
	sender    domain.MailSender
	opened    int
}

func (f *fakeSessions) OpenReader(config *domain.SyncConfig) (domain.MailReader, error) {
	f.opened++
	if f.readerErr != nil {
		return nil, f.readerErr
	}
	return f.reader, nil
}

func (f *fakeSessions) OpenSender(config *domain.SyncConfig) (domain.MailSender, error) {
	if f.sender == nil {
		return nil, errors.New("no sender in this test")
	}
	return f.sender, nil
}

type recordingNotifier struct {
	events []*domain.ActivityEvent
	err    error
}

func (n *recordingNotifier) NotifyActivity(event *domain.ActivityEvent) error {
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Close() error {
	return nil
}

func nullLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

func rawMail(from, to, messageId, subject string) []byte {
	return []byte(strings.Join([]string{
		"Date: Tue, 13 Oct 2026 11:12:00 +0200",
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Message-ID: <" + messageId + ">",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hello " + subject,
		"",
	}, "\r\n"))
}

// brokenMail fails normalization because its From header cannot be parsed.
func brokenMail(messageId string) []byte {
	return []byte(strings.Join([]string{
		"From: \"broken <<not an address",
		"To: sales@crm.test",
		"Message-ID: <" + messageId + ">",
		"",
		"broken",
		"",
	}, "\r\n"))
}

func u32a(val ...int) []uint32 {
	a := []uint32{}
	for _, v := range val {
		a = append(a, uint32(v))
	}

	return a
}
