package monitor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	logger "github.com/sirupsen/logrus"
)

const (
	SuccessMarker byte = '1'
	FailureMarker byte = '0'
)

// IOError reports a failure to create, stat or write one of the signal paths.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("doublebuffer: unable to %s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// File signals a switch whenever the modification time of changePath moves
// forward. Contents of changePath are ignored. After every decided reload
// attempt outcomePath is truncated and rewritten with a single marker byte.
type File struct {
	changePath   string
	outcomePath  string
	lastModified time.Time
	log          logger.FieldLogger

	watchOps  map[FileSystemOp]struct{}
	watcher   *fsnotify.Watcher
	notify    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

type Option func(f *File)

func WithLogger(log logger.FieldLogger) Option {
	return func(f *File) { f.log = log }
}

// NewFile creates changePath if it does not exist and records its current
// modification time, so the first ShouldSwitch only reports changes made
// after NewFile returns.
func NewFile(changePath, outcomePath string, opts ...Option) (*File, error) {
	f := &File{
		changePath:  changePath,
		outcomePath: outcomePath,
		log:         logger.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}

	modified, err := f.stat()
	if err != nil {
		return nil, err
	}
	f.lastModified = modified

	if f.watchOps != nil {
		if err := f.watch(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) ensure() error {
	_, err := os.Stat(f.changePath)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return &IOError{Op: "stat", Path: f.changePath, Err: err}
	}

	file, err := os.OpenFile(f.changePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return &IOError{Op: "create", Path: f.changePath, Err: err}
	}
	if err := file.Close(); err != nil {
		return &IOError{Op: "create", Path: f.changePath, Err: err}
	}
	return nil
}

func (f *File) stat() (time.Time, error) {
	if err := f.ensure(); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(f.changePath)
	if err != nil {
		return time.Time{}, &IOError{Op: "stat", Path: f.changePath, Err: err}
	}
	return info.ModTime(), nil
}

// ShouldSwitch must not be called concurrently.
func (f *File) ShouldSwitch() bool {
	modified, err := f.stat()
	if err != nil {
		f.log.Warnf("%s; assuming no change", err)
		return false
	}
	if modified.After(f.lastModified) {
		f.lastModified = modified
		return true
	}
	return false
}

func (f *File) ReportOutcome(success bool) {
	marker := FailureMarker
	if success {
		marker = SuccessMarker
	}
	if err := os.WriteFile(f.outcomePath, []byte{marker}, 0644); err != nil {
		f.log.WithField("path", f.outcomePath).Warnf("doublebuffer: unable to report outcome: %s", err)
	}
}

func (f *File) ChangePath() string  { return f.changePath }
func (f *File) OutcomePath() string { return f.outcomePath }
