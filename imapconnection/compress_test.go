// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"testing"

	"github.com/emersion/go-imap-compress"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestEnableCompression(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockcompressor(ctrl)
	gomock.InOrder(
		conn.EXPECT().SupportCompress(gomock.Eq(compress.Deflate)).Return(true, nil),
		conn.EXPECT().Compress(gomock.Eq(compress.Deflate)).Return(nil),
	)

	assert.NoError(t, enableCompression(conn, testLogger()))
}

func TestEnableCompression_Unsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockcompressor(ctrl)
	conn.EXPECT().SupportCompress(gomock.Eq(compress.Deflate)).Return(false, nil)

	assert.NoError(t, enableCompression(conn, testLogger()))
}

func TestEnableCompression_Refused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockcompressor(ctrl)
	conn.EXPECT().SupportCompress(gomock.Any()).Return(true, nil)
	conn.EXPECT().Compress(gomock.Any()).Return(fmt.Errorf("NO compression not allowed"))

	assert.NoError(t, enableCompression(conn, testLogger()))
}

func TestEnableCompression_CapabilityError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockcompressor(ctrl)
	conn.EXPECT().SupportCompress(gomock.Any()).Return(false, fmt.Errorf("connection closed"))

	err := enableCompression(conn, testLogger())
	assert.EqualError(t, err, "could not check for COMPRESS support: connection closed")
}
