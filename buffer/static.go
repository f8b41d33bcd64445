package buffer

// Static serves one snapshot forever. It never reloads.
type Static[T any] struct {
	snapshot T
}

func NewStatic[T any](snapshot T) *Static[T] {
	return &Static[T]{snapshot: snapshot}
}

func (s *Static[T]) Snapshot() T { return s.snapshot }

func (s *Static[T]) AddUpdateCallback(callback chan<- int) {}

func (s *Static[T]) Shutdown() {}
