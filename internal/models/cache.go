package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CacheEntry maps a document fingerprint to a previously computed result.
// Entries are never invalidated: a modification-time change produces a new
// fingerprint and therefore a new entry; stale entries are not purged.
type CacheEntry struct {
	Fingerprint string           `json:"fingerprint" badgerhold:"key"`
	Result      ProcessingResult `json:"result"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Fingerprint derives the deterministic cache key for a (file, kind) pair.
// Path, kind, and modification time are sufficient: any content change in
// this system's environment necessarily updates the modification time, so
// no content hashing of large files is required.
func Fingerprint(path string, kind DocumentKind, modTime time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", path, kind, modTime.UnixNano())))
	return hex.EncodeToString(sum[:])
}
