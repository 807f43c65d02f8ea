package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered() {}
func (n *NoopRecorder) IncLogin(bool) {}
func (n *NoopRecorder) IncUserDeleted() {}
func (n *NoopRecorder) IncExpenseCreated() {}
func (n *NoopRecorder) IncExpenseUpdated() {}
func (n *NoopRecorder) IncExpenseDeleted() {}
func (n *NoopRecorder) IncEventCreated() {}
func (n *NoopRecorder) IncEventUpdated() {}
func (n *NoopRecorder) IncEventDeleted() {}
func (n *NoopRecorder) ObserveAggregateDuration(time.Duration) {}
func (n *NoopRecorder) IncRateLimited() {}
