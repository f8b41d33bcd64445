package buffer

import (
	"context"
	"fmt"

	"github.com/lyft/godoublebuffer/config"
	"github.com/lyft/godoublebuffer/loader"
	stats "github.com/lyft/gostats"
)

// Open creates the buffer configured under key in registry. Stats are
// reported under a sub-scope named after key. When registry has no entry for
// key the snapshot is loaded once and served by a Static.
func Open[T any](ctx context.Context, registry *config.Registry, key string, ld loader.Loader[T], scope stats.Scope, opts ...Option) (IFace[T], error) {
	cfg, ok := registry.Get(key)
	if ok {
		b, err := New(ctx, cfg, ld, scope.Scope(key), opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return b, nil
	}

	o := newOptions(opts)
	o.log.Warnf("doublebuffer: no configuration for %q. using a static snapshot.", key)
	if ld == nil {
		return nil, &InitError{Op: "load", Err: ErrNilLoader}
	}
	v, err := load(ctx, ld, newBufferStats(scope.Scope(key)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, &InitError{Op: "load", Err: err})
	}
	return NewStatic(v), nil
}
