// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"strings"

	"github.com/emersion/go-imap"
)

// DefaultSentCandidates are the sent folder names used by common providers and clients.
var DefaultSentCandidates = []string{
	"Sent",
	"Sent Items",
	"Sent Mail",
	"Sent Messages",
	"[Gmail]/Sent Mail",
	"[Google Mail]/Sent Mail",
	"INBOX.Sent",
	"INBOX/Sent",
	"INBOX.Sent Items",
	"INBOX.Sent Messages",
	"Gesendet",
	"Gesendete Elemente",
	"Gesendete Objekte",
	"Envoyés",
	"Éléments envoyés",
	"Enviados",
	"Elementos enviados",
	"Posta inviata",
	"Verzonden items",
}

// matchSentMailbox prefers the mailbox flagged \Sent and otherwise the first
// candidate, in candidate order, that exists. Returns "" if nothing matches.
func matchSentMailbox(mailboxes []*imap.MailboxInfo, candidates []string) string {
	for _, m := range mailboxes {
		if hasAttribute(m, imap.SentAttr) && !hasAttribute(m, imap.NoSelectAttr) {
			return m.Name
		}
	}

	byName := map[string]string{}
	for _, m := range mailboxes {
		if hasAttribute(m, imap.NoSelectAttr) {
			continue
		}
		key := strings.ToLower(m.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = m.Name
		}
	}

	for _, c := range candidates {
		if name, ok := byName[strings.ToLower(c)]; ok {
			return name
		}
	}

	return ""
}

func hasAttribute(m *imap.MailboxInfo, attribute string) bool {
	for _, a := range m.Attributes {
		if strings.EqualFold(a, attribute) {
			return true
		}
	}
	return false
}
