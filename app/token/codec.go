package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// ErrInvalidToken is the single failure result for every broken token: bad
// shape, bad signature, malformed payload, or expiry. Callers cannot tell the
// cases apart, so a rejected token leaks nothing about why it was rejected.
var ErrInvalidToken = errors.New("invalid token")

// Payload is the signed, client-held credential. The expiry that matters is
// the one inside the signed payload; the cookie's own max-age is advisory.
type Payload struct {
	Plan      entity.PlanKey `json:"plan"`
	ExpiresAt int64          `json:"exp"`
	Nonce     string         `json:"nonce,omitempty"`
}

// Codec signs and verifies entitlement tokens. It holds no mutable state and
// is safe for concurrent use. Rotating the secret invalidates every
// outstanding token; that is an operational runbook step, not handled here.
type Codec struct {
	secret []byte

	// Now is replaceable in tests.
	Now func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sign serializes the payload, base64url-encodes it and appends a
// base64url-encoded HMAC-SHA256 over the encoded segment. Deterministic for
// identical payloads.
func (c *Codec) Sign(payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + c.mac(encoded), nil
}

// Verify checks shape, signature, payload structure and expiry, collapsing
// every failure to ErrInvalidToken.
func (c *Codec) Verify(raw string) (*Payload, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalidToken
	}

	// hmac.Equal compares in constant time after the length check.
	if !hmac.Equal([]byte(c.mac(parts[0])), []byte(parts[1])) {
		return nil, ErrInvalidToken
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalidToken
	}

	if payload.ExpiresAt <= c.Now().UnixMilli() {
		return nil, ErrInvalidToken
	}

	return &payload, nil
}

func (c *Codec) mac(encodedPayload string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
