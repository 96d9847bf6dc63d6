// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=compress_mocks_test.go -package=imapconnection -source compress.go

import (
	"fmt"

	"github.com/emersion/go-imap-compress"
	"github.com/sirupsen/logrus"
)

type compressor interface {
	SupportCompress(mech string) (bool, error)
	Compress(mech string) error
}

// enableCompression switches to COMPRESS=DEFLATE when the server offers it.
// A refused COMPRESS leaves the session uncompressed.
func enableCompression(c compressor, logger logrus.FieldLogger) error {
	supported, err := c.SupportCompress(compress.Deflate)
	if err != nil {
		return fmt.Errorf("could not check for COMPRESS support: %w", err)
	}
	if !supported {
		logger.Debug("COMPRESS=DEFLATE not supported on server")
		return nil
	}

	err = c.Compress(compress.Deflate)
	if err != nil {
		logger.WithError(err).Warn("Could not enable compression")
		return nil
	}
	logger.Debug("COMPRESS=DEFLATE enabled")

	return nil
}
