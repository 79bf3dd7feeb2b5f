package evolve

import "testing"

func newTestBrains(n int) []*Brain {
	brains := make([]*Brain, n)
	for i := range brains {
		brains[i] = NewBrain(i, nil)
	}
	return brains
}

func fillTable(brains []*Brain) *BindingTable {
	t := NewBindingTable()
	for _, b := range brains {
		t.Enqueue(b)
	}
	return t
}

// checkPartition verifies every brain is bound to exactly one actor or
// waiting, never both, never neither.
func checkPartition(t *testing.T, table *BindingTable, brains []*Brain) {
	t.Helper()

	seen := make(map[*Brain]int)
	for _, actor := range table.BoundActors() {
		seen[table.BrainFor(actor)]++
	}
	for _, b := range table.waiting {
		seen[b]++
	}

	for _, b := range brains {
		if seen[b] != 1 {
			t.Errorf("brain %d appears in %d places, want 1", b.ID(), seen[b])
		}
	}
	if table.BoundCount()+table.WaitingCount() != len(brains) {
		t.Errorf("bound %d + waiting %d != %d brains",
			table.BoundCount(), table.WaitingCount(), len(brains))
	}
}

func TestBindingFIFOOrder(t *testing.T) {
	brains := newTestBrains(3)
	table := fillTable(brains)

	for i, actor := range []ActorID{10, 11, 12} {
		b := table.GetOrCreateBinding(actor)
		if b != brains[i] {
			t.Errorf("actor %d got brain %d, want %d", actor, b.ID(), i)
		}
	}
	if table.HasAvailable() {
		t.Error("expected empty queue after binding all brains")
	}
	checkPartition(t, table, brains)
}

func TestBindingIdempotent(t *testing.T) {
	brains := newTestBrains(2)
	table := fillTable(brains)

	first := table.GetOrCreateBinding(7)
	second := table.GetOrCreateBinding(7)
	if first != second {
		t.Error("repeated binding for same actor returned different brains")
	}
	if table.WaitingCount() != 1 {
		t.Errorf("expected 1 waiting brain, got %d", table.WaitingCount())
	}
}

func TestReleaseRequeuesAtBack(t *testing.T) {
	brains := newTestBrains(3)
	table := fillTable(brains)

	table.GetOrCreateBinding(1) // brains[0]
	table.Release(1)

	// Queue is now [1, 2, 0]: released brain goes to the back.
	if b := table.GetOrCreateBinding(2); b != brains[1] {
		t.Errorf("got brain %d, want 1", b.ID())
	}
	if b := table.GetOrCreateBinding(3); b != brains[2] {
		t.Errorf("got brain %d, want 2", b.ID())
	}
	if b := table.GetOrCreateBinding(4); b != brains[0] {
		t.Errorf("got brain %d, want 0", b.ID())
	}
	checkPartition(t, table, brains)
}

func TestBindingPanicsOnEmptyQueue(t *testing.T) {
	table := fillTable(newTestBrains(1))
	table.GetOrCreateBinding(1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic binding with empty queue")
		}
	}()
	table.GetOrCreateBinding(2)
}

func TestReleasePanicsOnUnboundActor(t *testing.T) {
	table := fillTable(newTestBrains(1))

	defer func() {
		if recover() == nil {
			t.Error("expected panic releasing unbound actor")
		}
	}()
	table.Release(99)
}

func TestDetachBoundBrain(t *testing.T) {
	brains := newTestBrains(2)
	table := fillTable(brains)

	b := table.GetOrCreateBinding(5)
	table.Detach(b)

	if table.IsBound(5) {
		t.Error("actor still bound after detach")
	}
	if table.Deletions() != 1 {
		t.Errorf("deletions = %d, want 1", table.Deletions())
	}
	checkPartition(t, table, brains)
}

func TestDetachWaitingBrainKeepsQueuePosition(t *testing.T) {
	brains := newTestBrains(3)
	table := fillTable(brains)

	// brains[0] is at the front and not bound. Detaching it must not
	// duplicate it in the queue.
	table.Detach(brains[0])

	if table.WaitingCount() != 3 {
		t.Errorf("waiting = %d, want 3", table.WaitingCount())
	}
	if table.Deletions() != 1 {
		t.Errorf("deletions = %d, want 1", table.Deletions())
	}
	if b := table.GetOrCreateBinding(1); b != brains[0] {
		t.Errorf("front of queue is brain %d, want 0", b.ID())
	}
	checkPartition(t, table, brains)
}

func TestDeletionsMonotonic(t *testing.T) {
	brains := newTestBrains(2)
	table := fillTable(brains)

	for i := 0; i < 5; i++ {
		b := table.GetOrCreateBinding(ActorID(i))
		table.Detach(b)
	}
	if table.Deletions() != 5 {
		t.Errorf("deletions = %d, want 5", table.Deletions())
	}
}
