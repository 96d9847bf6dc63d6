// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/CrawX/go-imap-crmsync/domain"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
)

// Normalize turns one fetched mail into an EmailMessage. It does no I/O.
func Normalize(raw *domain.RawImapMail) (*domain.EmailMessage, error) {
	if raw == nil || len(raw.RawMail) == 0 {
		return nil, fmt.Errorf("empty mail")
	}

	mr, err := gomail.CreateReader(bytes.NewReader(raw.RawMail))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	msg := &domain.EmailMessage{
		Uid:     raw.Uid,
		Subject: subject(h),
	}

	msg.MessageId, err = stableMessageId(h)
	if err != nil {
		return nil, err
	}

	from, err := addressList(h, "From")
	if err != nil {
		return nil, err
	}
	if len(from) > 0 {
		msg.From = &from[0]
	}
	if msg.ReplyTo, err = addressList(h, "Reply-To"); err != nil {
		return nil, err
	}
	if msg.To, err = addressList(h, "To"); err != nil {
		return nil, err
	}
	if msg.Cc, err = addressList(h, "Cc"); err != nil {
		return nil, err
	}
	if msg.Bcc, err = addressList(h, "Bcc"); err != nil {
		return nil, err
	}

	// Broken threading headers shouldn't cost us the whole message.
	if inReplyTo, err := h.MsgIDList("In-Reply-To"); err == nil && len(inReplyTo) > 0 {
		msg.InReplyTo = inReplyTo[0]
	}
	if references, err := h.MsgIDList("References"); err == nil {
		msg.References = references
	}
	msg.ThreadId = threadId(msg)

	msg.Date, err = h.Date()
	if err != nil || msg.Date.IsZero() {
		msg.Date = raw.InternalDate
	}

	err = readParts(mr, msg)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// threadId points at the message that started the conversation: the first
// reference, else the message replied to, else the message itself.
func threadId(msg *domain.EmailMessage) string {
	if len(msg.References) > 0 {
		return msg.References[0]
	}
	if len(msg.InReplyTo) > 0 {
		return msg.InReplyTo
	}
	return msg.MessageId
}

func subject(h gomail.Header) string {
	s, err := h.Subject()
	if err != nil {
		return DecodeHeader(h.Get("Subject"))
	}
	return s
}

func addressList(h gomail.Header, key string) ([]domain.Address, error) {
	if !h.Has(key) {
		return nil, nil
	}

	list, err := h.AddressList(key)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s header: %w", key, err)
	}

	addresses := []domain.Address{}
	for _, a := range list {
		addresses = append(addresses, domain.Address{Name: a.Name, Address: a.Address})
	}
	return addresses, nil
}

func readParts(mr *gomail.Reader, msg *domain.EmailMessage) error {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !(message.IsUnknownCharset(err) && part != nil) {
			return fmt.Errorf("could not read mail part: %w", err)
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := h.ContentType()
			_, dispositionParams, _ := h.ContentDisposition()
			filename := dispositionParams["filename"]

			switch {
			case len(filename) == 0 && strings.EqualFold(contentType, "text/plain") && len(msg.TextBody) == 0:
				body, err := ioutil.ReadAll(part.Body)
				if err != nil {
					return fmt.Errorf("could not read text body: %w", err)
				}
				msg.TextBody = string(body)
			case len(filename) == 0 && strings.EqualFold(contentType, "text/html") && len(msg.HtmlBody) == 0:
				body, err := ioutil.ReadAll(part.Body)
				if err != nil {
					return fmt.Errorf("could not read html body: %w", err)
				}
				msg.HtmlBody = string(body)
			default:
				attachment, err := describeAttachment(part.Body, DecodeHeader(filename), contentType, true)
				if err != nil {
					return err
				}
				msg.Attachments = append(msg.Attachments, attachment)
			}
		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			attachment, err := describeAttachment(part.Body, filename, contentType, false)
			if err != nil {
				return err
			}
			msg.Attachments = append(msg.Attachments, attachment)
		}
	}
}

// describeAttachment drains the part to learn its decoded size without keeping the content.
func describeAttachment(body io.Reader, filename, contentType string, inline bool) (domain.Attachment, error) {
	size, err := io.Copy(ioutil.Discard, body)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("could not read attachment %q: %w", filename, err)
	}

	return domain.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Inline:      inline,
	}, nil
}
