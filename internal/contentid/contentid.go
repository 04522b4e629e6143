// Package contentid derives short, stable identifiers from raw file bytes.
// The id is used to deduplicate uploads and to name on-disk artifacts; it
// carries no secrecy guarantee.
package contentid

import (
	"crypto/sha256"
	"encoding/hex"
)

// Length is the number of hex characters in a content id.
const Length = 16

// FromBytes returns the first 16 hex characters of the SHA-256 digest of
// data. Identical bytes always map to the same id.
func FromBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:Length]
}
