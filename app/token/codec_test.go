package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

func fixedCodec(secret string, now time.Time) *Codec {
	c := NewCodec(secret)
	c.Now = func() time.Time { return now }
	return c
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("round-trip-secret", now)

	payload := Payload{
		Plan:      entity.PlanAnnual,
		ExpiresAt: now.Add(time.Hour).UnixMilli(),
		Nonce:     "a1b2c3",
	}

	raw, err := codec.Sign(payload)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	got, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if *got != payload {
		t.Errorf("round trip mismatch: got %+v, want %+v", *got, payload)
	}
}

func TestSignDeterministic(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("secret", now)
	payload := Payload{Plan: entity.PlanBase, ExpiresAt: now.Add(time.Hour).UnixMilli()}

	first, err := codec.Sign(payload)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	second, err := codec.Sign(payload)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if first != second {
		t.Errorf("expected deterministic signatures, got %q and %q", first, second)
	}
}

func TestVerifyRejectsTamperedTokens(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("tamper-secret", now)

	raw, err := codec.Sign(Payload{Plan: entity.PlanPlus, ExpiresAt: now.Add(time.Hour).UnixMilli()})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	// Flipping any single byte in either segment must invalidate the token.
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			continue
		}
		mutated := []byte(raw)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if _, err := codec.Verify(string(mutated)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("tampered token at byte %d accepted", i)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := fixedCodec("secret-one", now)
	verifier := fixedCodec("secret-two", now)

	raw, err := signer.Sign(Payload{Plan: entity.PlanBase, ExpiresAt: now.Add(time.Hour).UnixMilli()})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("expiry-secret", now)

	raw, err := codec.Sign(Payload{Plan: entity.PlanBase, ExpiresAt: now.UnixMilli() - 1})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}

	// Expiry exactly at now is also rejected.
	raw, err = codec.Sign(Payload{Plan: entity.PlanBase, ExpiresAt: now.UnixMilli()})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token expiring now, got %v", err)
	}
}

func TestVerifyRejectsMalformedShapes(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("shape-secret", now)

	for _, raw := range []string{"", ".", "abc", "abc.", ".def", "a.b.c", "not base64!." + strings.Repeat("x", 43)} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("malformed token %q accepted: %v", raw, err)
		}
	}
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("missing-exp-secret", now)

	raw, err := codec.Sign(Payload{Plan: entity.PlanBase})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for missing expiry, got %v", err)
	}
}
