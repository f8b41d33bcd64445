// Package buffer serves an immutable snapshot to any number of concurrent
// readers while a single background goroutine reloads it.
//
// A Buffer owns two slots. Readers consult the slot named by an atomically
// published index. When the monitor signals new data, the loader fills the
// standby slot, the index is flipped to it, and the previous snapshot is
// retired once the grace period has elapsed.
//
// Retirement is time based. A retired snapshot that implements io.Closer is
// closed when its slot is cleared, so readers must not use a snapshot longer
// than the grace period if closing it invalidates it. Snapshots that only
// hold memory stay valid for as long as a reader references them.
package buffer

import (
	"context"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lyft/godoublebuffer/config"
	"github.com/lyft/godoublebuffer/loader"
	"github.com/lyft/godoublebuffer/monitor"
	stats "github.com/lyft/gostats"

	logger "github.com/sirupsen/logrus"
)

type bufferStats struct {
	loadAttempts stats.Counter
	loadFailures stats.Counter
	switches     stats.Counter
	retirements  stats.Counter
	activeSlot   stats.Gauge
}

func newBufferStats(scope stats.Scope) bufferStats {
	ret := bufferStats{}
	ret.loadAttempts = scope.NewCounter("load_attempts")
	ret.loadFailures = scope.NewCounter("load_failures")
	ret.switches = scope.NewCounter("switches")
	ret.retirements = scope.NewCounter("retirements")
	ret.activeSlot = scope.NewGauge("active_slot")
	return ret
}

type options struct {
	monitor monitor.Monitor
	log     logger.FieldLogger
	watch   bool
}

func newOptions(opts []Option) options {
	o := options{log: logger.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(o *options)

// WithMonitor replaces the file monitor built from the config's signal paths.
// The paths in the config are then ignored.
func WithMonitor(m monitor.Monitor) Option {
	return func(o *options) { o.monitor = m }
}

func WithLogger(log logger.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WatchEvents wakes the reload loop on filesystem events for the change path
// instead of waiting out the poll interval. Several signals may then cause
// several reloads where polling alone would coalesce them into one.
func WatchEvents(o *options) { o.watch = true }

// Buffer is a double buffer of snapshots of type T. It must be created with New.
type Buffer[T any] struct {
	slots  [2]atomic.Pointer[T]
	active atomic.Uint32

	loader    loader.Loader[T]
	monitor   monitor.Monitor
	interval  time.Duration
	grace     time.Duration
	log       logger.FieldLogger
	stats     bufferStats
	callbacks callbacks

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New loads the first snapshot synchronously using ctx, then starts the
// reload goroutine. Any error is an *InitError and nothing is left running.
// The reload goroutine is not bound to ctx; call Shutdown to stop it.
func New[T any](ctx context.Context, cfg config.Config, ld loader.Loader[T], scope stats.Scope, opts ...Option) (*Buffer[T], error) {
	o := newOptions(opts)

	if ld == nil {
		return nil, &InitError{Op: "load", Err: ErrNilLoader}
	}
	validate := cfg.Validate
	if o.monitor != nil {
		validate = cfg.ValidateTimings
	}
	if err := validate(); err != nil {
		return nil, &InitError{Op: "config", Err: err}
	}

	b := &Buffer[T]{
		loader:   ld,
		monitor:  o.monitor,
		interval: cfg.PollInterval,
		grace:    cfg.GracePeriod,
		log:      o.log,
		stats:    newBufferStats(scope),
	}

	first, err := b.load(ctx)
	if err != nil {
		return nil, &InitError{Op: "load", Err: err}
	}

	if b.monitor == nil {
		mopts := []monitor.Option{monitor.WithLogger(o.log)}
		if o.watch {
			mopts = append(mopts, monitor.WatchEvents())
		}
		fm, err := monitor.NewFile(cfg.ChangePath, cfg.OutcomePath, mopts...)
		if err != nil {
			b.release(first)
			return nil, &InitError{Op: "monitor", Err: err}
		}
		b.monitor = fm
	}

	b.slots[0].Store(&first)
	b.active.Store(0)
	b.stats.activeSlot.Set(0)

	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.run(loopCtx)

	return b, nil
}

// Snapshot never blocks. Calls with no switch in between return the same
// snapshot.
func (b *Buffer[T]) Snapshot() T {
	for {
		if p := b.slots[b.active.Load()].Load(); p != nil {
			return *p
		}
		// The index was read just before a switch whose previous slot was
		// retired immediately. The new index names a populated slot.
		if b.done == nil {
			var zero T
			return zero
		}
	}
}

// ActiveIndex returns the slot readers are currently served from, 0 or 1.
func (b *Buffer[T]) ActiveIndex() uint32 { return b.active.Load() }

func (b *Buffer[T]) AddUpdateCallback(callback chan<- int) {
	if callback == nil {
		panic("doublebuffer: nil callback")
	}
	b.callbacks.Add(callback)
}

// Shutdown stops the reload goroutine and waits for it to exit, releasing a
// snapshot that is still in its grace period. The active snapshot keeps being
// served. Shutdown is idempotent and safe on a nil Buffer.
func (b *Buffer[T]) Shutdown() {
	if b == nil || b.cancel == nil {
		return
	}
	b.stopOnce.Do(func() {
		b.cancel()
		<-b.done
		b.callbacks.Close()
		if c, ok := b.monitor.(io.Closer); ok {
			if err := c.Close(); err != nil {
				b.log.Warnf("doublebuffer: unable to close monitor: %s", err)
			}
		}
	})
}

func (b *Buffer[T]) run(ctx context.Context) {
	defer close(b.done)
	defer func() { b.retire(1 - b.active.Load()) }()

	var wake <-chan struct{}
	if n, ok := b.monitor.(monitor.Notifier); ok {
		wake = n.Notify()
	}

	for {
		if !b.waitPoll(ctx, wake) {
			return
		}
		if !b.monitor.ShouldSwitch() {
			continue
		}
		b.reload(ctx)
	}
}

func (b *Buffer[T]) reload(ctx context.Context) {
	active := b.active.Load()
	standby := 1 - active

	// Empty unless a previous retirement was skipped.
	b.retire(standby)

	next, err := b.load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.log.WithField("slot", standby).Warn((&ReloadError{Slot: standby, Err: err}).Error())
		b.monitor.ReportOutcome(false)
		return
	}

	b.slots[standby].Store(&next)
	b.active.Store(standby)
	b.stats.switches.Inc()
	b.stats.activeSlot.Set(uint64(standby))

	b.monitor.ReportOutcome(true)
	b.callbacks.Signal()

	if b.grace > 0 && !sleep(ctx, b.grace) {
		// Shutting down; run retires the old slot on exit.
		return
	}
	b.retire(active)
}

func (b *Buffer[T]) load(ctx context.Context) (T, error) {
	return load(ctx, b.loader, b.stats)
}

// load runs ld once and rejects an empty snapshot.
func load[T any](ctx context.Context, ld loader.Loader[T], st bufferStats) (T, error) {
	st.loadAttempts.Inc()
	v, err := ld.Load(ctx)
	if err == nil && isEmpty(v) {
		err = ErrEmptySnapshot
	}
	if err != nil {
		st.loadFailures.Inc()
		var zero T
		return zero, err
	}
	return v, nil
}

// retire clears slot, which must not be the active one.
func (b *Buffer[T]) retire(slot uint32) {
	old := b.slots[slot].Swap(nil)
	if old == nil {
		return
	}
	b.stats.retirements.Inc()
	b.release(*old)
}

func (b *Buffer[T]) release(v T) {
	if c, ok := any(v).(io.Closer); ok {
		if err := c.Close(); err != nil {
			b.log.Warnf("doublebuffer: unable to release snapshot: %s", err)
		}
	}
}

func (b *Buffer[T]) waitPoll(ctx context.Context, wake <-chan struct{}) bool {
	t := time.NewTimer(b.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	case <-wake:
	}
	return ctx.Err() == nil
}

// sleep returns false if ctx was cancelled before d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
