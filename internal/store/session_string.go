// ABOUTME: Portable session string encoding
// ABOUTME: Packs the session row into urlsafe base64 for moving a login between hosts

package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// AuthKeySize is the fixed width of the auth key inside a session string
const AuthKeySize = 256

// sessionStringSize is dc_id(1) + api_id(4) + test_mode(1) + auth_key(256) + user_id(8) + is_bot(1)
const sessionStringSize = 1 + 4 + 1 + AuthKeySize + 8 + 1

// EncodeSessionString packs info big-endian and returns it as unpadded urlsafe base64.
// Auth keys shorter than AuthKeySize are zero-padded; longer keys are rejected.
func EncodeSessionString(info *SessionInfo) (string, error) {
	if info == nil {
		return "", fmt.Errorf("encoding session string: nil session")
	}
	if len(info.AuthKey) > AuthKeySize {
		return "", fmt.Errorf("encoding session string: auth key is %d bytes, max %d", len(info.AuthKey), AuthKeySize)
	}
	if info.DCID < 0 || info.DCID > 255 {
		return "", fmt.Errorf("encoding session string: dc id %d out of range", info.DCID)
	}

	var buf bytes.Buffer
	buf.Grow(sessionStringSize)
	buf.WriteByte(byte(info.DCID))
	binary.Write(&buf, binary.BigEndian, uint32(info.APIID))
	buf.WriteByte(boolByte(info.TestMode))
	key := make([]byte, AuthKeySize)
	copy(key, info.AuthKey)
	buf.Write(key)
	binary.Write(&buf, binary.BigEndian, uint64(info.UserID))
	buf.WriteByte(boolByte(info.IsBot))

	return strings.TrimRight(base64.URLEncoding.EncodeToString(buf.Bytes()), "="), nil
}

// DecodeSessionString reverses EncodeSessionString. Date is not carried and stays zero.
func DecodeSessionString(s string) (*SessionInfo, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decoding session string: %w", err)
	}
	if len(raw) != sessionStringSize {
		return nil, fmt.Errorf("decoding session string: got %d bytes, want %d", len(raw), sessionStringSize)
	}

	key := make([]byte, AuthKeySize)
	copy(key, raw[6:6+AuthKeySize])
	tail := raw[6+AuthKeySize:]

	return &SessionInfo{
		DCID:     int(raw[0]),
		APIID:    int32(binary.BigEndian.Uint32(raw[1:5])),
		TestMode: raw[5] != 0,
		AuthKey:  key,
		UserID:   int64(binary.BigEndian.Uint64(tail[:8])),
		IsBot:    tail[8] != 0,
	}, nil
}

// ExportSessionString encodes the stored session row
func (s *SQLiteStore) ExportSessionString(ctx context.Context) (string, error) {
	info, err := s.SessionInfo(ctx)
	if err != nil {
		return "", err
	}
	return EncodeSessionString(info)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
