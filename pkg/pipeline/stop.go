package pipeline

import "sync/atomic"

// StopFlag is a cooperative stop request. It is set from a signal handler
// and polled by the driver between frames only.
type StopFlag struct {
	requested atomic.Bool
}

// Request asks the pipeline to stop after the frame in flight.
func (f *StopFlag) Request() {
	f.requested.Store(true)
}

// Requested reports whether a stop has been requested.
// A nil flag never requests a stop.
func (f *StopFlag) Requested() bool {
	if f == nil {
		return false
	}
	return f.requested.Load()
}
