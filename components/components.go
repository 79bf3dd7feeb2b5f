// Package components defines ECS components for the arena simulation.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity.
type Velocity struct {
	X, Y float32
}

// Rotation represents an entity's heading.
type Rotation struct {
	Heading float32 // radians
}

// Energy is an actor's life state. An actor whose energy reaches zero is
// marked dead and removed on the next cleanup pass.
type Energy struct {
	Value float32
	Age   float32 // seconds alive
	Alive bool
}

// Actor links an entity to its controller binding.
type Actor struct {
	ID uint64
}
