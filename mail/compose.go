// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/CrawX/go-imap-crmsync/domain"

	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Compose renders an outgoing message and returns it together with its Message-Id.
func Compose(from domain.Address, out *domain.OutgoingMessage, now time.Time) ([]byte, string, error) {
	if len(out.To)+len(out.Cc)+len(out.Bcc) == 0 {
		return nil, "", fmt.Errorf("message has no recipients")
	}
	if len(out.TextBody) == 0 && len(out.HtmlBody) == 0 {
		return nil, "", fmt.Errorf("message has no body")
	}

	header := gomail.Header{}
	header.SetDate(now)
	header.SetAddressList("From", toMailAddresses([]domain.Address{from}))
	if len(out.To) > 0 {
		header.SetAddressList("To", toMailAddresses(out.To))
	}
	if len(out.Cc) > 0 {
		header.SetAddressList("Cc", toMailAddresses(out.Cc))
	}
	header.SetSubject(out.Subject)

	messageId := uuid.NewString() + "@" + addressDomain(from.Address)
	header.SetMessageID(messageId)

	if len(out.InReplyTo) > 0 {
		inReplyTo := trimMsgId(out.InReplyTo)
		header.SetMsgIDList("In-Reply-To", []string{inReplyTo})

		references := []string{}
		for _, r := range out.References {
			references = append(references, trimMsgId(r))
		}
		if len(references) == 0 || references[len(references)-1] != inReplyTo {
			references = append(references, inReplyTo)
		}
		header.SetMsgIDList("References", references)
	}

	buffer := &bytes.Buffer{}
	var err error
	if len(out.TextBody) > 0 && len(out.HtmlBody) > 0 {
		err = writeAlternative(buffer, header, out.TextBody, out.HtmlBody)
	} else if len(out.HtmlBody) > 0 {
		err = writeSingle(buffer, header, "text/html", out.HtmlBody)
	} else {
		err = writeSingle(buffer, header, "text/plain", out.TextBody)
	}
	if err != nil {
		return nil, "", err
	}

	return buffer.Bytes(), messageId, nil
}

func writeSingle(w io.Writer, header gomail.Header, contentType, body string) error {
	header.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	bodyWriter, err := gomail.CreateSingleInlineWriter(w, header)
	if err != nil {
		return fmt.Errorf("could not create mail writer: %w", err)
	}
	_, err = io.WriteString(bodyWriter, body)
	if err != nil {
		return fmt.Errorf("could not write body: %w", err)
	}
	err = bodyWriter.Close()
	if err != nil {
		return fmt.Errorf("could not close mail writer: %w", err)
	}

	return nil
}

func writeAlternative(w io.Writer, header gomail.Header, text, html string) error {
	mailWriter, err := gomail.CreateWriter(w, header)
	if err != nil {
		return fmt.Errorf("could not create mail writer: %w", err)
	}

	inlineWriter, err := mailWriter.CreateInline()
	if err != nil {
		return fmt.Errorf("could not create inline part: %w", err)
	}

	for _, p := range []struct {
		contentType string
		body        string
	}{
		{"text/plain", text},
		{"text/html", html},
	} {
		partHeader := gomail.InlineHeader{}
		partHeader.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		partHeader.Set("Content-Transfer-Encoding", "quoted-printable")
		partWriter, err := inlineWriter.CreatePart(partHeader)
		if err != nil {
			return fmt.Errorf("could not create %s part: %w", p.contentType, err)
		}
		_, err = io.WriteString(partWriter, p.body)
		if err != nil {
			return fmt.Errorf("could not write %s part: %w", p.contentType, err)
		}
		err = partWriter.Close()
		if err != nil {
			return fmt.Errorf("could not close %s part: %w", p.contentType, err)
		}
	}

	err = inlineWriter.Close()
	if err != nil {
		return fmt.Errorf("could not close inline part: %w", err)
	}
	err = mailWriter.Close()
	if err != nil {
		return fmt.Errorf("could not close mail writer: %w", err)
	}

	return nil
}

func toMailAddresses(addresses []domain.Address) []*gomail.Address {
	list := []*gomail.Address{}
	for _, a := range addresses {
		list = append(list, &gomail.Address{Name: a.Name, Address: a.Address})
	}
	return list
}

func addressDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return "localhost"
	}
	return address[at+1:]
}

func trimMsgId(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}
