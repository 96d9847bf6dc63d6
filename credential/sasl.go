// SPDX-License-Identifier: GPL-3.0-or-later
package credential

import (
	"github.com/emersion/go-sasl"

	"github.com/CrawX/go-imap-crmsync/domain"
)

const Xoauth2 = "XOAUTH2"

// SaslClient picks the mechanism for credentials. Bearer tokens prefer
// OAUTHBEARER and fall back to XOAUTH2, which is all some providers offer.
func SaslClient(c *domain.Credentials, supports func(mechanism string) bool) sasl.Client {
	if !c.IsToken() {
		return sasl.NewPlainClient("", c.Username, c.Password)
	}

	if supports(sasl.OAuthBearer) {
		return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: c.Username,
			Token:    c.Token,
		})
	}

	return &xoauth2Client{username: c.Username, token: c.Token}
}

type xoauth2Client struct {
	username, token string
}

func (x *xoauth2Client) Start() (string, []byte, error) {
	return Xoauth2, []byte("user=" + x.username + "\x01auth=Bearer " + x.token + "\x01\x01"), nil
}

// Next answers the server's error challenge with an empty response so it can finish the exchange.
func (x *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	return []byte{}, nil
}
