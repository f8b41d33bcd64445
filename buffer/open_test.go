package buffer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lyft/godoublebuffer/config"
	"github.com/lyft/godoublebuffer/loader"
	"github.com/lyft/godoublebuffer/snapshot"
	stats "github.com/lyft/gostats"
	"github.com/lyft/gostats/mock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func makeFileInDir(assert *require.Assertions, path string, text string) {
	assert.NoError(os.MkdirAll(filepath.Dir(path), os.ModeDir|os.ModePerm))
	assert.NoError(os.WriteFile(path, []byte(text), os.ModePerm))
}

func TestOpen_DirectorySnapshots(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()

	makeFileInDir(assert, tempDir+"/testdir1/dict/greeting", "hello")
	makeFileInDir(assert, tempDir+"/testdir1/dict/limits/max", "10")
	assert.NoError(os.Symlink(tempDir+"/testdir1", tempDir+"/current"))

	registryYAML := "- command_key: dict\n" +
		"  monitor_interval: 10ms\n" +
		"  old_buf_life_time: 0\n" +
		"  switch_monitor:\n" +
		"    update_file: " + tempDir + "/dict.update\n" +
		"    done_file: " + tempDir + "/dict.done\n"
	registry, err := config.ParseRegistry([]byte(registryYAML), config.Defaults{PollInterval: time.Second})
	assert.NoError(err)

	ld := loader.NewDirectory(tempDir+"/current", "dict", nullScope)
	db, err := Open[*snapshot.Snapshot](context.Background(), registry, "dict", ld, nullScope)
	assert.NoError(err)
	defer db.Shutdown()
	assert.IsType(&Buffer[*snapshot.Snapshot]{}, db)

	update := make(chan int)
	db.AddUpdateCallback(update)

	assert.Equal("hello", db.Snapshot().Get("greeting"))
	assert.Equal(uint64(10), db.Snapshot().GetInteger("limits.max", 0))

	// Stage a new tree, swap it in, then signal.
	makeFileInDir(assert, tempDir+"/testdir2/dict/greeting", "bonjour")
	assert.NoError(os.Symlink(tempDir+"/testdir2", tempDir+"/current_new"))
	assert.NoError(os.Rename(tempDir+"/current_new", tempDir+"/current"))
	touch(assert, registry.MonitorFile("dict"), time.Now().Add(time.Hour))
	waitUpdate(t, update)

	snap := db.Snapshot()
	assert.Equal("bonjour", snap.Get("greeting"))
	assert.Equal([]string{"greeting"}, snap.Keys())
	assert.Equal("1", readOutcome(tempDir+"/dict.done"))
}

func TestOpen_UnknownKeyIsStatic(t *testing.T) {
	assert := require.New(t)

	log, hook := test.NewNullLogger()
	ld := loader.Func[string](func(context.Context) (string, error) { return "fixed", nil })
	db, err := Open[string](context.Background(), nil, "dict", ld, nullScope, WithLogger(log))
	assert.NoError(err)
	assert.IsType(&Static[string]{}, db)
	assert.Equal("fixed", db.Snapshot())
	assert.Contains(hook.LastEntry().Message, `no configuration for "dict"`)

	db.AddUpdateCallback(make(chan int))
	db.Shutdown()
	assert.Equal("fixed", db.Snapshot())
}

func TestOpen_StaticLoadIsCounted(t *testing.T) {
	sink := mock.NewSink()
	store := stats.NewStore(sink, false)

	ld := loader.Func[string](func(context.Context) (string, error) { return "fixed", nil })
	_, err := Open[string](context.Background(), nil, "dict", ld, store, WithLogger(discard()))
	require.NoError(t, err)

	empty := loader.Func[*payload](func(context.Context) (*payload, error) { return nil, nil })
	_, err = Open[*payload](context.Background(), nil, "words", empty, store, WithLogger(discard()))
	require.ErrorIs(t, err, ErrEmptySnapshot)

	store.Flush()
	sink.AssertCounterEquals(t, "dict.load_attempts", 1)
	sink.AssertCounterNotExists(t, "dict.load_failures")
	sink.AssertCounterEquals(t, "words.load_attempts", 1)
	sink.AssertCounterEquals(t, "words.load_failures", 1)
}

func TestOpen_Errors(t *testing.T) {
	assert := require.New(t)

	failing := loader.Func[*payload](func(context.Context) (*payload, error) { return nil, errLoad })
	_, err := Open[*payload](context.Background(), nil, "dict", failing, nullScope, WithLogger(discard()))
	assert.ErrorIs(err, errLoad)

	empty := loader.Func[*payload](func(context.Context) (*payload, error) { return nil, nil })
	_, err = Open[*payload](context.Background(), nil, "dict", empty, nullScope, WithLogger(discard()))
	assert.ErrorIs(err, ErrEmptySnapshot)

	_, err = Open[*payload](context.Background(), nil, "dict", nil, nullScope, WithLogger(discard()))
	assert.ErrorIs(err, ErrNilLoader)

	registry, err := config.ParseRegistry([]byte(`
- command_key: dict
  switch_monitor:
    update_file: /nonexistent/dir/dict.update
    done_file: /nonexistent/dir/dict.done
`), config.Defaults{PollInterval: time.Second})
	assert.NoError(err)
	_, err = Open[*payload](context.Background(), registry, "dict", newTestLoader(), nullScope)
	var initErr *InitError
	assert.ErrorAs(err, &initErr)
	assert.Equal("monitor", initErr.Op)
	assert.Contains(err.Error(), "dict: ")
}

func discard() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}
