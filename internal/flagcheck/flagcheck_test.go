package flagcheck

import (
	"bytes"
	"testing"
)

func TestDigest_TrimsOuterWhitespaceOnly(t *testing.T) {
	t.Parallel()

	base := Digest("FLAG{abc}")
	if !bytes.Equal(base, Digest("  FLAG{abc}\n")) {
		t.Fatalf("outer whitespace must not affect the digest")
	}
	if bytes.Equal(base, Digest("FLAG{ abc }")) {
		t.Fatalf("interior whitespace must be significant")
	}
	if len(base) != DigestSize {
		t.Fatalf("digest len=%d, want=%d", len(base), DigestSize)
	}
}

func TestVerify_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	stored := Digest("FLAG{abc}")

	if !Verify("FLAG{abc}", stored) {
		t.Fatalf("correct flag must verify")
	}
	if !Verify("  FLAG{abc}  ", stored) {
		t.Fatalf("correct flag with outer whitespace must verify")
	}
	if Verify("flag{abc}", stored) {
		t.Fatalf("flags are case-sensitive")
	}
	if Verify("FLAG{abd}", stored) {
		t.Fatalf("wrong flag must not verify")
	}
	if Verify("", stored) {
		t.Fatalf("empty input must fail, not panic")
	}
}

func TestVerify_BadStoredDigest(t *testing.T) {
	t.Parallel()

	if Verify("FLAG{abc}", nil) {
		t.Fatalf("nil stored digest must never verify")
	}
	if Verify("FLAG{abc}", []byte("short")) {
		t.Fatalf("truncated stored digest must never verify")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("\t VLS{x} \r\n"); got != "VLS{x}" {
		t.Fatalf("Normalize=%q", got)
	}
	if got := Normalize("VLS{a b}"); got != "VLS{a b}" {
		t.Fatalf("interior whitespace changed: %q", got)
	}
}
