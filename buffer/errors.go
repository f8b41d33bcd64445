package buffer

import (
	"errors"
	"fmt"
)

var (
	ErrNilLoader     = errors.New("doublebuffer: nil loader")
	ErrEmptySnapshot = errors.New("doublebuffer: loader returned an empty snapshot")
)

// InitError means New could not produce a usable buffer. Op is one of
// "config", "load" or "monitor".
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("doublebuffer: init failed (%s): %s", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ReloadError is a failed background reload. It is logged, never returned.
type ReloadError struct {
	Slot uint32
	Err  error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("doublebuffer: reload into slot %d failed: %s", e.Slot, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }
