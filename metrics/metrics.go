// Package metrics records payment lifecycle counters and latencies.
package metrics

import "time"

// Event names emitted by the library.
const (
	EventBuild     = "build"
	EventBroadcast = "broadcast"
	EventConfirm   = "confirm"
	EventVerify    = "verify"
	EventSettle    = "settle"
	EventLink      = "link"
	EventRetry     = "retry"
	EventFailure   = "failure"
)

// Label keys understood by the recorders.
const (
	LabelChain       = "chain"
	LabelFacilitator = "facilitator"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// NoopRecorder discards everything. It is the default when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
