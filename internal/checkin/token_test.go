package checkin

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenRoundTrip(t *testing.T) {
	issued := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	c := NewCodec("secret", "classroll")
	c.now = fixedClock(issued)

	raw, expiresAt, err := c.Issue("sess-1", "course-1", 10*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(issued.Add(10 * time.Minute)) {
		t.Fatalf("expiresAt = %v, want issued+10m", expiresAt)
	}

	tok, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tok.SessionID != "sess-1" || tok.CourseID != "course-1" {
		t.Fatalf("decoded ids = (%s, %s)", tok.SessionID, tok.CourseID)
	}
	if !tok.IssuedAt.Equal(issued) || !tok.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("decoded window = (%v, %v), want (%v, %v)", tok.IssuedAt, tok.ExpiresAt, issued, expiresAt)
	}
}

func TestTokenDefaultValidity(t *testing.T) {
	issued := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	c := NewCodec("secret", "classroll")
	c.now = fixedClock(issued)

	_, expiresAt, err := c.Issue("sess-1", "course-1", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := expiresAt.Sub(issued); got != DefaultValidity {
		t.Fatalf("validity = %v, want %v", got, DefaultValidity)
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := NewCodec("secret", "classroll")
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := c.Decode(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Decode(%q) err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestDecodeRejectsForgedSignature(t *testing.T) {
	attacker := NewCodec("attacker-key", "classroll")
	raw, _, err := attacker.Issue("sess-1", "course-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c := NewCodec("secret", "classroll")
	if _, err := c.Decode(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("forged token err = %v, want ErrInvalidToken", err)
	}
}

func TestDecodeRejectsWrongIssuer(t *testing.T) {
	other := NewCodec("secret", "someone-else")
	raw, _, err := other.Issue("sess-1", "course-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c := NewCodec("secret", "classroll")
	if _, err := c.Decode(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong issuer err = %v, want ErrInvalidToken", err)
	}
}

// Decode stays clock-free: a long-expired token still decodes, expiry is the
// validator's decision.
func TestDecodeIgnoresExpiry(t *testing.T) {
	issued := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCodec("secret", "classroll")
	c.now = fixedClock(issued)

	raw, _, err := c.Issue("sess-1", "course-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tok, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode of expired token: %v", err)
	}
	if !tok.ExpiresAt.Equal(issued.Add(time.Minute)) {
		t.Fatalf("expiresAt = %v", tok.ExpiresAt)
	}
}
