package entry

import (
	"strconv"
	"strings"
	"time"
)

// An individual snapshot entry. Optimized for integers by pre-converting them if possible.
type Entry struct {
	StringValue string
	Uint64Value uint64
	Uint64Valid bool
	Modified    time.Time
}

// New builds an Entry from raw contents. Contents that parse as a base 10
// uint64 after trimming whitespace also populate the integer view.
func New(contents string, modified time.Time) *Entry {
	e := &Entry{
		StringValue: contents,
		Modified:    modified,
	}
	if v, err := strconv.ParseUint(strings.TrimSpace(contents), 10, 64); err == nil {
		e.Uint64Value = v
		e.Uint64Valid = true
	}
	return e
}
