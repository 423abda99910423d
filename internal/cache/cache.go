package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// TextCache stores extracted document text keyed by URL
type TextCache interface {
	Get(url string) (string, bool)
	Set(url string, text string)
	Clear()
}

// Key generates a cache key from a URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "verify:text:v1:" + hex.EncodeToString(hash[:])
}
