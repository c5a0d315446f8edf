package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ContentFingerprint derives a stable fingerprint for a serialized translation
// source payload so re-orders with identical content can be detected.
func ContentFingerprint(serialized string) uuid.UUID {
	return UUID("go-lifecycle:translation_source:" + serialized)
}

// LanguageUUID derives a stable identifier for a language code.
func LanguageUUID(code string) uuid.UUID {
	return UUID("go-lifecycle:language:" + strings.ToLower(strings.TrimSpace(code)))
}
