package loader

import "context"

// A Loader produces a complete, immutable snapshot on demand.
type Loader[T any] interface {
	// @return a new snapshot, or an error if none could be produced. The
	//         returned value must not be mutated afterwards.
	// @param ctx is cancelled when the owner of the loader shuts down.
	Load(ctx context.Context) (T, error)
}

// Func adapts a plain function to the Loader interface.
type Func[T any] func(ctx context.Context) (T, error)

func (f Func[T]) Load(ctx context.Context) (T, error) { return f(ctx) }
