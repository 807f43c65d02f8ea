// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(success bool)
	IncUserDeleted()

	// Record management metrics
	IncExpenseCreated()
	IncExpenseUpdated()
	IncExpenseDeleted()
	IncEventCreated()
	IncEventUpdated()
	IncEventDeleted()

	// Aggregate query metrics
	ObserveAggregateDuration(duration time.Duration)

	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
