// Package dedup provides content-based identity for SQL fragments. Two
// fragments are the same script when their normalized text hashes equal,
// regardless of where on the wiki they were pasted.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes SQL text for hashing: case-folded to upper, all
// whitespace runs collapsed to single spaces, ends trimmed. Formatting-only
// variants of the same script normalize identically.
func Normalize(sqlText string) string {
	upper := strings.ToUpper(sqlText)
	return strings.TrimSpace(strings.Join(strings.Fields(upper), " "))
}

// Hash returns the hex digest of the normalized text. The digest is an
// identity key, not a security boundary, so MD5's speed and compactness win.
func Hash(sqlText string) string {
	sum := md5.Sum([]byte(Normalize(sqlText)))
	return hex.EncodeToString(sum[:])
}

// Set tracks digests seen within one scope (a page, a run, or globally).
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty digest set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Seen reports whether the digest has been recorded.
func (s *Set) Seen(digest string) bool {
	_, ok := s.seen[digest]
	return ok
}

// Record adds a digest and reports whether it was new.
func (s *Set) Record(digest string) bool {
	if _, ok := s.seen[digest]; ok {
		return false
	}
	s.seen[digest] = struct{}{}
	return true
}

// Len returns the number of distinct digests recorded.
func (s *Set) Len() int {
	return len(s.seen)
}
