package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// SessionID is an opaque 128-bit random session identifier.
type SessionID [16]byte

// NewSessionID returns a cryptographically random session identifier.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) Bytes() []byte {
	return s[:]
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}
