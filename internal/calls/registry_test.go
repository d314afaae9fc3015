package calls

import (
	"sync"
	"testing"
)

type nopSink struct{}

func (nopSink) Send(CallEvent) error { return nil }

func TestRegistryAddDefaultsToGeneral(t *testing.T) {
	r := NewRegistry()
	sub := r.Add("", nopSink{})

	if sub.MonitorID != GeneralMonitor {
		t.Errorf("expected default monitor %q, got %q", GeneralMonitor, sub.MonitorID)
	}
	if sub.ConnectionID == "" {
		t.Error("expected generated connection id")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 subscriber, got %d", r.Count())
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	sub := r.Add("SALA_A", nopSink{})

	r.Remove(sub.ConnectionID)
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}

	// Removing an absent id is a no-op.
	r.Remove(sub.ConnectionID)
	r.Remove("does-not-exist")
	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}

func TestRegistryUniqueConnectionIDs(t *testing.T) {
	r := NewRegistry()
	a := r.Add("SALA_A", nopSink{})
	b := r.Add("SALA_A", nopSink{})

	if a.ConnectionID == b.ConnectionID {
		t.Error("expected distinct connection ids for two subscriptions")
	}
	if r.CountForMonitor("SALA_A") != 2 {
		t.Errorf("expected 2 SALA_A subscribers, got %d", r.CountForMonitor("SALA_A"))
	}
}

func TestRegistrySnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	a := r.Add("SALA_A", nopSink{})
	b := r.Add("SALA_B", nopSink{})

	snap := r.Snapshot()
	r.Remove(a.ConnectionID)
	r.Remove(b.ConnectionID)

	if len(snap) != 2 {
		t.Errorf("expected snapshot of 2, got %d", len(snap))
	}
	if r.Count() != 0 {
		t.Errorf("expected empty registry after removals, got %d", r.Count())
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := r.Add("SALA_A", nopSink{})
			for _, s := range r.Snapshot() {
				_ = s.MonitorID
			}
			r.Remove(sub.ConnectionID)
		}()
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d", r.Count())
	}
}
