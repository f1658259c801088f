package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func b64seg(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func TestIssueVerify_Roundtrip(t *testing.T) {
	raw, err := Issue(testSecret, Claims{UserID: "user-123", Role: "user", Email: "test@example.com"}, 2*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	c, err := Verify(testSecret, raw)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if c.UserID != "user-123" {
		t.Fatalf("unexpected userId claim: got=%v want=user-123", c.UserID)
	}
	if c.Role != "user" {
		t.Fatalf("unexpected role claim: got=%v", c.Role)
	}
	if c.Email != "test@example.com" {
		t.Fatalf("unexpected email claim: got=%v", c.Email)
	}
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		t.Fatalf("expected exp and iat to be stamped")
	}
}

func TestVerify_Expired(t *testing.T) {
	// negative ttl produces an already-expired token without sleeping
	raw, err := Issue(testSecret, Claims{UserID: "u2", Role: "user"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	_, err = Verify(testSecret, raw)
	if err != ErrExpired {
		t.Fatalf("expected ErrExpired, got: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	raw, err := Issue(testSecret, Claims{UserID: "u3", Role: "user"}, 2*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	_, err = Verify("different-secret-xxxxxxxxxxxxxxxx", raw)
	if err != ErrInvalid {
		t.Fatalf("expected ErrInvalid with wrong secret, got: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := Verify(testSecret, raw); err != ErrInvalid {
			t.Fatalf("expected ErrInvalid for %q, got: %v", raw, err)
		}
	}
}

// Rejected when alg=none (unsigned token)
func TestVerify_AlgNoneRejected(t *testing.T) {
	tok := b64seg([]byte(`{"alg":"none"}`)) + "." + b64seg([]byte(`{"userId":"u-none","exp":9999999999}`)) + "."
	if _, err := Verify(testSecret, tok); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for alg=none token, got: %v", err)
	}
}

// Tampering with the payload must fail signature verification
func TestVerify_TamperedPayload(t *testing.T) {
	raw, err := Issue(testSecret, Claims{UserID: "user-t", Role: "user"}, 5*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload segment: %v", err)
	}
	payload := strings.Replace(string(payloadBytes), "user-t", "attacker", 1)
	parts[1] = b64seg([]byte(payload))
	if _, err := Verify(testSecret, strings.Join(parts, ".")); err != ErrInvalid {
		t.Fatalf("expected signature verification to fail for tampered token, got: %v", err)
	}
}

func TestVerify_EmptySubjectRejected(t *testing.T) {
	raw, err := Issue(testSecret, Claims{Role: "user"}, 2*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := Verify(testSecret, raw); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for empty userId, got: %v", err)
	}
}
