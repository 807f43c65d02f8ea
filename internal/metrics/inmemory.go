package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered          uint64
	LoginsSucceeded          uint64
	LoginsFailed             uint64
	UsersDeleted             uint64
	ExpensesCreated          uint64
	ExpensesUpdated          uint64
	ExpensesDeleted          uint64
	EventsCreated            uint64
	EventsUpdated            uint64
	EventsDeleted            uint64
	AggregateDurationCount   uint64
	AggregateDurationTotalNs int64
	RateLimited              uint64
}

// InMemoryRecorder stores counters in memory.
type InMemoryRecorder struct {
	usersRegistered          atomic.Uint64
	loginsSucceeded          atomic.Uint64
	loginsFailed             atomic.Uint64
	usersDeleted             atomic.Uint64
	expensesCreated          atomic.Uint64
	expensesUpdated          atomic.Uint64
	expensesDeleted          atomic.Uint64
	eventsCreated            atomic.Uint64
	eventsUpdated            atomic.Uint64
	eventsDeleted            atomic.Uint64
	aggregateDurationCount   atomic.Uint64
	aggregateDurationTotalNs atomic.Int64
	rateLimited              atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:          m.usersRegistered.Load(),
		LoginsSucceeded:          m.loginsSucceeded.Load(),
		LoginsFailed:             m.loginsFailed.Load(),
		UsersDeleted:             m.usersDeleted.Load(),
		ExpensesCreated:          m.expensesCreated.Load(),
		ExpensesUpdated:          m.expensesUpdated.Load(),
		ExpensesDeleted:          m.expensesDeleted.Load(),
		EventsCreated:            m.eventsCreated.Load(),
		EventsUpdated:            m.eventsUpdated.Load(),
		EventsDeleted:            m.eventsDeleted.Load(),
		AggregateDurationCount:   m.aggregateDurationCount.Load(),
		AggregateDurationTotalNs: m.aggregateDurationTotalNs.Load(),
		RateLimited:              m.rateLimited.Load(),
	}
}

func (m *InMemoryRecorder) IncUserRegistered() { m.usersRegistered.Add(1) }
func (m *InMemoryRecorder) IncUserDeleted() { m.usersDeleted.Add(1) }

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(success bool) {
	if success {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

func (m *InMemoryRecorder) IncExpenseCreated() { m.expensesCreated.Add(1) }
func (m *InMemoryRecorder) IncExpenseUpdated() { m.expensesUpdated.Add(1) }
func (m *InMemoryRecorder) IncExpenseDeleted() { m.expensesDeleted.Add(1) }
func (m *InMemoryRecorder) IncEventCreated() { m.eventsCreated.Add(1) }
func (m *InMemoryRecorder) IncEventUpdated() { m.eventsUpdated.Add(1) }
func (m *InMemoryRecorder) IncEventDeleted() { m.eventsDeleted.Add(1) }

// ObserveAggregateDuration records how long an aggregate query took.
func (m *InMemoryRecorder) ObserveAggregateDuration(duration time.Duration) {
	m.aggregateDurationCount.Add(1)
	m.aggregateDurationTotalNs.Add(duration.Nanoseconds())
}

func (m *InMemoryRecorder) IncRateLimited() { m.rateLimited.Add(1) }
