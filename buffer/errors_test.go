package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitError(t *testing.T) {
	err := &InitError{Op: "load", Err: errLoad}
	assert.Equal(t, "doublebuffer: init failed (load): load failed", err.Error())
	assert.True(t, errors.Is(err, errLoad))
}

func TestReloadError(t *testing.T) {
	err := &ReloadError{Slot: 1, Err: errLoad}
	assert.Equal(t, "doublebuffer: reload into slot 1 failed: load failed", err.Error())
	assert.True(t, errors.Is(err, errLoad))
}

func TestStatic(t *testing.T) {
	var db IFace[int] = NewStatic(7)
	assert.Equal(t, 7, db.Snapshot())
	db.AddUpdateCallback(make(chan int))
	db.Shutdown()
	assert.Equal(t, 7, db.Snapshot())

	var _ IFace[int] = &Buffer[int]{}
}
