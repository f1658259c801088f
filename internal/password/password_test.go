package password

import (
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	digest, err := Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if digest == "s3cret-pass" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !strings.HasPrefix(digest, "$2") {
		t.Fatalf("expected a bcrypt digest, got: %s", digest)
	}
	if !Compare("s3cret-pass", digest) {
		t.Fatal("expected Compare to accept the original password")
	}
	if Compare("wrong-pass", digest) {
		t.Fatal("expected Compare to reject a wrong password")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	d1, err := Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	d2, err := Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if d1 == d2 {
		t.Fatal("two hashes of the same input should differ (random salt)")
	}
}

func TestCompare_BadDigest(t *testing.T) {
	if Compare("anything", "not-a-bcrypt-digest") {
		t.Fatal("expected Compare to reject a malformed digest")
	}
}
