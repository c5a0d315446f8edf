package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDDeterministic(t *testing.T) {
	first := UUID("go-lifecycle:test:alpha")
	second := UUID("go-lifecycle:test:alpha")
	if first == uuid.Nil {
		t.Fatal("expected a non-nil identifier")
	}
	if first != second {
		t.Fatalf("same key produced %s and %s", first, second)
	}
	if other := UUID("go-lifecycle:test:beta"); other == first {
		t.Fatalf("distinct keys collided on %s", first)
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID(""); got != uuid.Nil {
		t.Fatalf("empty key = %s, want nil", got)
	}
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("blank key = %s, want nil", got)
	}
}

func TestContentFingerprintDetectsChange(t *testing.T) {
	base := ContentFingerprint(`{"name":"Neuvontapalvelu"}`)
	same := ContentFingerprint(`{"name":"Neuvontapalvelu"}`)
	changed := ContentFingerprint(`{"name":"Rådgivningstjänst"}`)

	if base != same {
		t.Fatal("identical payloads must share a fingerprint")
	}
	if base == changed {
		t.Fatal("different payloads must not share a fingerprint")
	}
}

func TestLanguageUUIDNormalizesCode(t *testing.T) {
	if LanguageUUID("FI") != LanguageUUID(" fi ") {
		t.Fatal("language identifiers must be case and whitespace insensitive")
	}
	if LanguageUUID("fi") == LanguageUUID("sv") {
		t.Fatal("distinct languages collided")
	}
}
