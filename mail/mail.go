// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

const SyntheticIdDomain = "crmsync.invalid"

var ErrNoIdentity = errors.New("Message-Id, Received and Date headers not found")

var wordDecoder = &mime.WordDecoder{
	CharsetReader: charset.Reader,
}

// DecodeHeader decodes RFC 2047 encoded words, returning the raw value if it can't.
func DecodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func ShortSubject(subject string) string {
	if utf8.RuneCountInString(subject) > 30 {
		subject = string([]rune(subject)[:30]) + "..."
	}
	return subject
}

// stableMessageId returns the Message-Id without angle brackets. Mails without
// one get an id derived from the headers that identify a delivery, so the
// same mail always maps to the same id.
func stableMessageId(h gomail.Header) (string, error) {
	id, err := h.MessageID()
	if err == nil && len(id) > 0 {
		return id, nil
	}

	receivedHeader := headerValues(h, "Received")
	dateHeader := headerValues(h, "Date")
	if len(receivedHeader) == 0 && len(dateHeader) == 0 {
		return "", ErrNoIdentity
	}

	mailIdHash, err := hash([][]string{receivedHeader, dateHeader, headerValues(h, "From"), headerValues(h, "Subject")})
	if err != nil {
		return "", fmt.Errorf("could not hash headers: %w", err)
	}

	return mailIdHash + "@" + SyntheticIdDomain, nil
}

func headerValues(h gomail.Header, key string) []string {
	values := []string{}
	fields := h.FieldsByKey(key)
	for fields.Next() {
		values = append(values, fields.Value())
	}
	return values
}

func hash(input [][]string) (string, error) {
	sha := sha256.New()
	for _, i := range input {
		for _, ii := range i {
			_, err := sha.Write([]byte(ii))
			if err != nil {
				return "", fmt.Errorf("could not hash: %w", err)
			}
		}
	}

	return fmt.Sprintf("%x", sha.Sum(nil)), nil
}

var (
	htmlTags   = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Snippet returns the first n characters of the message text, falling back to
// the html body with tags stripped.
func Snippet(text, html string, n int) string {
	body := text
	if len(strings.TrimSpace(body)) == 0 {
		body = htmlTags.ReplaceAllString(html, " ")
	}
	body = strings.TrimSpace(whitespace.ReplaceAllString(body, " "))
	if utf8.RuneCountInString(body) > n {
		body = string([]rune(body)[:n])
	}
	return body
}
