package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the deterministic content hash of a question text.
// The text is normalized (trimmed, lowercased) before hashing so that
// cosmetic edits do not produce a new catalog entry on re-import.
func HashText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
