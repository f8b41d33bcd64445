package monitor

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type FileSystemOp int32

// Filesystem operations that can wake the reload loop.
const (
	Create FileSystemOp = iota
	Write
	Remove
	Rename
	Chmod
)

var defaultFileSystemOps = []FileSystemOp{Write, Create, Chmod}

// WatchEvents makes the monitor wake the reload loop as soon as fsnotify
// reports one of ops on the change path, instead of waiting for the next
// poll. Touching the path is a Chmod and an atomic rename onto it is a
// Create. With no ops the defaults are Write, Create and Chmod.
func WatchEvents(ops ...FileSystemOp) Option {
	if len(ops) == 0 {
		ops = defaultFileSystemOps
	}
	return func(f *File) {
		f.watchOps = map[FileSystemOp]struct{}{}
		for _, op := range ops {
			f.watchOps[op] = struct{}{}
		}
	}
}

func getFileSystemOps(ev fsnotify.Event) []FileSystemOp {
	var ops []FileSystemOp
	if ev.Has(fsnotify.Create) {
		ops = append(ops, Create)
	}
	if ev.Has(fsnotify.Write) {
		ops = append(ops, Write)
	}
	if ev.Has(fsnotify.Remove) {
		ops = append(ops, Remove)
	}
	if ev.Has(fsnotify.Rename) {
		ops = append(ops, Rename)
	}
	if ev.Has(fsnotify.Chmod) {
		ops = append(ops, Chmod)
	}
	return ops
}

func (f *File) shouldNotify(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(f.changePath) {
		return false
	}
	for _, op := range getFileSystemOps(ev) {
		if _, ok := f.watchOps[op]; ok {
			return true
		}
	}
	return false
}

// The directory is watched rather than the file so that the watch survives
// the file being replaced by rename.
func (f *File) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// If this fails with EMFILE (0x18) it is likely due to
		// inotify_init1() and fs.inotify.max_user_instances.
		return fmt.Errorf("doublebuffer: unable to create watcher: %[1]s (%[1]T %#[1]v)", err)
	}
	dir := filepath.Dir(f.changePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return &IOError{Op: "watch", Path: dir, Err: err}
	}

	f.watcher = watcher
	f.notify = make(chan struct{}, 1)
	f.done = make(chan struct{})
	go f.forwardEvents()
	return nil
}

func (f *File) forwardEvents() {
	defer close(f.done)
	for {
		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !f.shouldNotify(ev) {
				continue
			}
			select {
			case f.notify <- struct{}{}:
			default:
				// A wake-up is already pending.
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warnf("doublebuffer: watch error: %s", err)
		}
	}
}

// Notify returns nil unless the monitor was created with WatchEvents.
func (f *File) Notify() <-chan struct{} { return f.notify }

// Close stops watching for events. It is safe to call more than once.
func (f *File) Close() error {
	var err error
	f.closeOnce.Do(func() {
		if f.watcher == nil {
			return
		}
		err = f.watcher.Close()
		<-f.done
	})
	return err
}
