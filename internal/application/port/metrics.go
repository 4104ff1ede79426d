package port

import "time"

// Metrics receives operational counters from the core.
type Metrics interface {
	FetchRetry(host string)
	SourceResult(source string, err error, d time.Duration)
	CacheLookup(hit bool)
	PollCycle(err error, d time.Duration)
	SpikeEmitted(kind string)
	Subscribers(n int)
	FrameDropped(event string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) FetchRetry(string)                         {}
func (NopMetrics) SourceResult(string, error, time.Duration) {}
func (NopMetrics) CacheLookup(bool)                          {}
func (NopMetrics) PollCycle(error, time.Duration)            {}
func (NopMetrics) SpikeEmitted(string)                       {}
func (NopMetrics) Subscribers(int)                           {}
func (NopMetrics) FrameDropped(string)                       {}

var _ Metrics = NopMetrics{}
