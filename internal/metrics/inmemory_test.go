package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncExpenseCreated()
			m.IncLogin(false)
		}()
	}
	wg.Wait()

	m.IncLogin(true)
	m.ObserveAggregateDuration(2 * time.Millisecond)
	m.ObserveAggregateDuration(3 * time.Millisecond)

	snap := m.Snapshot()
	if snap.ExpensesCreated != 50 {
		t.Errorf("ExpensesCreated = %d, want 50", snap.ExpensesCreated)
	}
	if snap.LoginsFailed != 50 || snap.LoginsSucceeded != 1 {
		t.Errorf("logins = %d ok / %d failed, want 1 / 50", snap.LoginsSucceeded, snap.LoginsFailed)
	}
	if snap.AggregateDurationCount != 2 {
		t.Errorf("AggregateDurationCount = %d, want 2", snap.AggregateDurationCount)
	}
	if snap.AggregateDurationTotalNs != int64(5*time.Millisecond) {
		t.Errorf("AggregateDurationTotalNs = %d", snap.AggregateDurationTotalNs)
	}
}

func TestNoopRecorder_SatisfiesRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncEventCreated()
	r.ObserveAggregateDuration(time.Second)
}
