// Package snapshot provides an immutable key/value payload suitable for
// serving from a double buffer.
package snapshot

import (
	"sort"
	"time"

	"github.com/lyft/godoublebuffer/snapshot/entry"
)

// Snapshot is a read-only set of entries. It is safe for concurrent use by
// any number of readers because nothing mutates it after New returns.
type Snapshot struct {
	entries map[string]*entry.Entry
	keys    []string
}

// New takes ownership of entries. The caller must not modify the map or the
// entries afterwards.
func New(entries map[string]*entry.Entry) *Snapshot {
	if entries == nil {
		entries = make(map[string]*entry.Entry)
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Snapshot{
		entries: entries,
		keys:    keys,
	}
}

// Get returns the raw value for key or the empty string if the key does not exist.
func (s *Snapshot) Get(key string) string {
	if e, ok := s.entries[key]; ok {
		return e.StringValue
	}
	return ""
}

// GetInteger returns the integer value for key, or defaultValue if the key
// does not exist or does not contain an integer.
func (s *Snapshot) GetInteger(key string, defaultValue uint64) uint64 {
	if e, ok := s.entries[key]; ok && e.Uint64Valid {
		return e.Uint64Value
	}
	return defaultValue
}

// GetModified returns the last modified timestamp for key. If key does not
// exist, the zero value for time.Time is returned.
func (s *Snapshot) GetModified(key string) time.Time {
	if e, ok := s.entries[key]; ok {
		return e.Modified
	}
	return time.Time{}
}

// Keys returns all keys in sorted order. The returned slice is a copy.
func (s *Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *Snapshot) Len() int { return len(s.entries) }
