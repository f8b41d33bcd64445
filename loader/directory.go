package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lyft/godoublebuffer/snapshot"
	"github.com/lyft/godoublebuffer/snapshot/entry"
	stats "github.com/lyft/gostats"
)

type directoryStats struct {
	readFailures stats.Counter
	numValues    stats.Gauge
}

func newDirectoryStats(scope stats.Scope) directoryStats {
	ret := directoryStats{}
	ret.readFailures = scope.NewCounter("read_failures")
	ret.numValues = scope.NewGauge("num_values")
	return ret
}

// Directory loads a snapshot from a tree of files. Every regular file under
// root/subdirectory becomes one entry keyed by its relative path with "/"
// replaced by ".". The root may be a symlink that is swapped atomically to
// publish a new tree.
type Directory struct {
	root           string
	subdirectory   string
	ignoreDotfiles bool
	stats          directoryStats
}

type DirectoryOption func(d *Directory)

func AllowDotFiles(d *Directory)  { d.ignoreDotfiles = false }
func IgnoreDotFiles(d *Directory) { d.ignoreDotfiles = true }

func NewDirectory(root, subdirectory string, scope stats.Scope, opts ...DirectoryOption) *Directory {
	d := &Directory{
		root:         root,
		subdirectory: subdirectory,
		stats:        newDirectoryStats(scope),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load walks the directory. Any error reading the tree fails the whole load
// so that a partially read tree is never published.
func (d *Directory) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	targetDir := filepath.Join(d.root, d.subdirectory)
	entries := make(map[string]*entry.Entry)

	err := filepath.Walk(targetDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.ignoreDotfiles && strings.HasPrefix(info.Name(), ".") && path != targetDir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key, err := filepath.Rel(targetDir, path)
		if err != nil {
			return err
		}

		key = strings.Replace(key, string(filepath.Separator), ".", -1)
		entries[key] = entry.New(string(contents), info.ModTime())
		return nil
	})
	if err != nil {
		d.stats.readFailures.Inc()
		return nil, fmt.Errorf("doublebuffer: unable to load %s: %w", targetDir, err)
	}

	d.stats.numValues.Set(uint64(len(entries)))
	return snapshot.New(entries), nil
}
