// Package cache stores extracted page content keyed by normalized URL, so
// repeat runs against the same mod skip the fetch entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a normalized URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "modtriage:v1:" + hex.EncodeToString(hash[:])
}
