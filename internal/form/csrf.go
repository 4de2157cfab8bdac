// internal/form/csrf.go
//
// Formdesk – Forms subsystem: stateless CSRF tokens.
//
// Context
//   Every rendered form embeds a hidden `csrf_token`.  POSTs must return a
//   token this process (or a sibling sharing the key) signed recently:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with security.csrf_key from config.
//
//   No server-side storage, so any instance can verify any token.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	nonceBytes  = 16
	tokenBytes  = nonceBytes + 8 + sha256.Size
	minKeyBytes = 32

	// DefaultTokenMaxAge is how long a rendered form stays postable.
	DefaultTokenMaxAge = 2 * time.Hour
	clockSkew          = time.Minute
)

// ErrShortKey is returned by NewSigner for keys under 32 bytes.
var ErrShortKey = errors.New("csrf key must be at least 32 bytes")

// Signer issues and verifies CSRF tokens.  Safe for concurrent use.
type Signer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer keyed with key.  A nil key generates an
// ephemeral random one; tokens then die with the process.
func NewSigner(key []byte, maxAge time.Duration) (*Signer, error) {
	if key == nil {
		key = make([]byte, minKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if len(key) < minKeyBytes {
		return nil, ErrShortKey
	}
	if maxAge <= 0 {
		maxAge = DefaultTokenMaxAge
	}
	return &Signer{key: key, maxAge: maxAge, now: time.Now}, nil
}

// DecodeKey parses a base64url (raw or padded) key string.  An empty string
// yields a nil key.
func DecodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// Generate creates a fresh token.  Call once per form render.
func (s *Signer) Generate() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok carries a valid signature and is neither
// expired nor issued in the future.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > clockSkew {
		return false
	}

	return hmac.Equal(sig, s.sign(nonce, tsBytes))
}

func (s *Signer) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
