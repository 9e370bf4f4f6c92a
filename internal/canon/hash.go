package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainFragment = "stripmark/fragment/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FragmentID computes the content-addressed ID of a text fragment and the
// literal bindings it ships with. bindings maps category name to
// identifier to value.
//
// The ID is stable: the same text and bindings always produce the same ID,
// regardless of map iteration order.
func FragmentID(text string, bindings map[string]map[string]string) (string, error) {
	cats := make(map[string]any, len(bindings))
	for cat, items := range bindings {
		cats[cat] = items
	}
	canonical, err := MarshalCanonical(map[string]any{
		"text":     text,
		"bindings": cats,
	})
	if err != nil {
		return "", fmt.Errorf("FragmentID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFragment, canonical), nil
}
