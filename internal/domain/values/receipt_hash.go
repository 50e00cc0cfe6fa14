package values

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// ReceiptHash represents a SHA-256 content hash of canonicalized receipt text,
// used for exact-duplicate detection.
type ReceiptHash struct {
	hash string // hex-encoded SHA-256, empty for empty receipts
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CanonicalizeReceiptText normalizes receipt text before hashing or
// similarity comparison: trim, collapse internal whitespace, lowercase.
func CanonicalizeReceiptText(text string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// ComputeReceiptHash hashes canonicalized receipt text. Empty text yields the
// zero ReceiptHash so two blank receipts never hash-match each other.
func ComputeReceiptHash(text string) ReceiptHash {
	canonical := CanonicalizeReceiptText(text)
	if canonical == "" {
		return ReceiptHash{}
	}
	sum := sha256.Sum256([]byte(canonical))
	return ReceiptHash{hash: hex.EncodeToString(sum[:])}
}

// IsEmpty reports whether the hash refers to empty receipt text
func (h ReceiptHash) IsEmpty() bool {
	return h.hash == ""
}

// Equal reports whether two hashes match. The zero hash matches nothing,
// including another zero hash.
func (h ReceiptHash) Equal(other ReceiptHash) bool {
	return !h.IsEmpty() && h.hash == other.hash
}

// String returns the hex-encoded hash
func (h ReceiptHash) String() string {
	return h.hash
}
