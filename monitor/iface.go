// Package monitor decides when a double buffer should load a new snapshot
// and reports the outcome of each attempt.
package monitor

// A Monitor is polled by exactly one reload loop.
type Monitor interface {
	// @return true if new data has been signaled since the last call that
	//         returned true. Failures to observe the signal return false.
	ShouldSwitch() bool

	// Record the result of a reload attempt that was started because
	// ShouldSwitch returned true.
	// @param success supplies whether a new snapshot was published.
	ReportOutcome(success bool)
}

// A Notifier is a Monitor that can wake the reload loop before its poll
// interval elapses. A wake-up is only a hint; ShouldSwitch still decides.
type Notifier interface {
	// @return a channel that receives a value when a poll should happen
	//         early. A nil channel means the monitor never wakes the loop.
	Notify() <-chan struct{}
}
