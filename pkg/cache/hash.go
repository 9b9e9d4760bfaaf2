package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex-encoded SHA-256 digest of data. Used for graph
// content hashes and file cache paths.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key from a prefix and any number of
// components. Components are JSON-encoded before hashing so struct options
// contribute every field to the digest.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			// Marshal only fails for unsupported types, which would be a
			// programming error in the keyer itself.
			b = fmt.Appendf(nil, "%v", p)
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
