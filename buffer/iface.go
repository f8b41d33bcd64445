package buffer

// IFace serves snapshots of type T.
type IFace[T any] interface {
	// @return T the current snapshot. The value must be treated as read only and
	//         should not be held longer than the configured grace period.
	Snapshot() T

	// Add a channel that will be written to when a new snapshot is available. "1" will be written
	// to the channel as a sentinel.
	// @param callback supplies the callback to add.
	AddUpdateCallback(callback chan<- int)

	// Stop reloading and wait for the reload goroutine to exit.
	Shutdown()
}
