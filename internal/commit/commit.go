// Package commit implements the keyed answer commitment: an HMAC over the
// correct answer and an issuance instant, handed to the client and recomputed
// on validation. Nothing is stored server-side, so verification works across
// restarts of the same process only (the key lives in memory).
package commit

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"quadtrivia/internal/domain"
)

// KeySize is the signing key length in bytes.
const KeySize = 32

// Signer mints and verifies answer commitments with a process-lifetime key.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner generates a fresh signing key. Failure here is fatal for the
// caller: without a key no commitment can ever be verified.
func NewSigner() (*Signer, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &Signer{key: key, now: time.Now}, nil
}

// NewSignerFromHex builds a signer from externally provisioned key material,
// for deployments that need every instance to verify every token.
func NewSignerFromHex(hexKey string) (*Signer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	if len(key) < 16 {
		return nil, fmt.Errorf("signing key too short: %d bytes", len(key))
	}
	return &Signer{key: key, now: time.Now}, nil
}

// NewSignerWithClock is test-only for deterministic instants.
func NewSignerWithClock(now func() time.Time) (*Signer, error) {
	s, err := NewSigner()
	if err != nil {
		return nil, err
	}
	s.now = now
	return s, nil
}

// Commit produces a commitment for answer at the current instant.
func (s *Signer) Commit(answer string) domain.Commitment {
	instant := s.now().UTC().Format(time.RFC3339Nano)
	return domain.Commitment{
		Token:    s.mac(answer, instant),
		IssuedAt: instant,
	}
}

// Verify recomputes the commitment for (answer, instant) and compares it to
// token in constant time. Instants that do not parse as RFC 3339 are rejected
// outright; the MAC itself only needs identical bytes, but accepting arbitrary
// strings would let clients mint commitments over malformed instants.
func (s *Signer) Verify(token, instant, answer string) (bool, error) {
	if _, err := time.Parse(time.RFC3339Nano, instant); err != nil {
		return false, domain.ErrInvalidTimestamp
	}
	return hmac.Equal([]byte(s.mac(answer, instant)), []byte(token)), nil
}

// mac computes base64url(HMAC-SHA256(key, answer||instant)), unpadded. The
// concatenation order and lack of separator are part of the token format;
// producer and verifier must agree byte-for-byte.
func (s *Signer) mac(answer, instant string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(answer))
	h.Write([]byte(instant))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
