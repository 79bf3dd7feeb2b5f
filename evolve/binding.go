package evolve

import "fmt"

// BindingTable maintains the bijection between live actors and brains, plus
// a FIFO queue of brains waiting for an actor. Every brain the table knows
// about is in exactly one of the two places: bound to a single actor, or in
// the waiting queue.
type BindingTable struct {
	byActor map[ActorID]*Brain
	byBrain map[*Brain]ActorID

	waiting []*Brain
	queued  map[*Brain]bool

	deletions uint64
}

// NewBindingTable returns an empty table.
func NewBindingTable() *BindingTable {
	return &BindingTable{
		byActor: make(map[ActorID]*Brain),
		byBrain: make(map[*Brain]ActorID),
		queued:  make(map[*Brain]bool),
	}
}

// Enqueue appends a brain to the back of the waiting queue. Panics if the
// brain is already tracked by the table.
func (t *BindingTable) Enqueue(b *Brain) {
	if t.queued[b] {
		panic(fmt.Sprintf("binding: brain %d already waiting", b.ID()))
	}
	if _, bound := t.byBrain[b]; bound {
		panic(fmt.Sprintf("binding: brain %d already bound", b.ID()))
	}
	t.waiting = append(t.waiting, b)
	t.queued[b] = true
}

// IsBound reports whether the actor currently has a brain.
func (t *BindingTable) IsBound(actor ActorID) bool {
	_, ok := t.byActor[actor]
	return ok
}

// HasAvailable reports whether at least one brain is waiting.
func (t *BindingTable) HasAvailable() bool {
	return len(t.waiting) > 0
}

// GetOrCreateBinding returns the actor's bound brain, binding the front of
// the waiting queue if the actor has none. Callers must check HasAvailable
// first; an empty queue on a fresh actor is a caller error and panics.
func (t *BindingTable) GetOrCreateBinding(actor ActorID) *Brain {
	if b, ok := t.byActor[actor]; ok {
		return b
	}
	if len(t.waiting) == 0 {
		panic(fmt.Sprintf("binding: no brain available for actor %d", actor))
	}

	b := t.waiting[0]
	t.waiting = t.waiting[1:]
	delete(t.queued, b)

	t.byActor[actor] = b
	t.byBrain[b] = actor
	return b
}

// Release unbinds the actor's brain and returns it to the back of the
// waiting queue. Panics if the actor has no binding.
func (t *BindingTable) Release(actor ActorID) *Brain {
	b, ok := t.byActor[actor]
	if !ok {
		panic(fmt.Sprintf("binding: release of unbound actor %d", actor))
	}

	delete(t.byActor, actor)
	delete(t.byBrain, b)
	t.waiting = append(t.waiting, b)
	t.queued[b] = true
	return b
}

// Detach retires whatever the brain was doing: any actor binding is removed,
// the brain is returned to the waiting queue, and the lifetime deletion
// counter advances. Called when the brain's organism is replaced or its
// actor has died. A brain already waiting keeps its queue position.
func (t *BindingTable) Detach(b *Brain) {
	if actor, bound := t.byBrain[b]; bound {
		delete(t.byActor, actor)
		delete(t.byBrain, b)
	}
	if !t.queued[b] {
		t.waiting = append(t.waiting, b)
		t.queued[b] = true
	}
	t.deletions++
}

// BrainFor returns the brain bound to the actor, or nil.
func (t *BindingTable) BrainFor(actor ActorID) *Brain {
	return t.byActor[actor]
}

// ActorFor returns the actor the brain is bound to, if any.
func (t *BindingTable) ActorFor(b *Brain) (ActorID, bool) {
	actor, ok := t.byBrain[b]
	return actor, ok
}

// BoundActors returns a snapshot of all currently bound actor ids.
func (t *BindingTable) BoundActors() []ActorID {
	actors := make([]ActorID, 0, len(t.byActor))
	for id := range t.byActor {
		actors = append(actors, id)
	}
	return actors
}

// BoundCount returns the number of actor bindings.
func (t *BindingTable) BoundCount() int {
	return len(t.byActor)
}

// WaitingCount returns the number of brains in the queue.
func (t *BindingTable) WaitingCount() int {
	return len(t.waiting)
}

// Deletions returns the lifetime count of Detach calls.
func (t *BindingTable) Deletions() uint64 {
	return t.deletions
}
