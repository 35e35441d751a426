package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash fingerprints an article by its lower-cased, whitespace-collapsed
// title and url.
func ContentHash(title, url string) string {
	sum := sha256.Sum256([]byte(normalize(title) + "\x1f" + normalize(url)))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
