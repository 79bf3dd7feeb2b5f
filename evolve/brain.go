// Package evolve implements the real-time steady-state controller: stable
// brain slots bound to live actors, per-tick fitness normalization, and
// one-in-one-out replacement of organisms as attrition accumulates.
package evolve

import (
	"vivarium/neural"
)

// ActorID identifies a live actor in the host simulation.
type ActorID uint64

// Brain is a stable wrapper around exactly one organism at a time. Actor
// bindings reference the Brain, never the organism, so replacing the organism
// underneath ("hot swap") never invalidates a binding. A Brain not bound to
// an actor sits in the binding table's waiting queue.
type Brain struct {
	id int

	organism *neural.Organism

	// AbsoluteScore is the raw, un-normalized score accumulated over the
	// current evaluation period. The fitness pass reads it; the host writes
	// it through Reward.
	AbsoluteScore float64

	Stats Stats
}

// NewBrain wraps an organism in a brain slot with the given stable id.
func NewBrain(id int, org *neural.Organism) *Brain {
	return &Brain{id: id, organism: org}
}

// ID returns the brain's stable identity, unchanged across organism swaps.
func (b *Brain) ID() int {
	return b.id
}

// Organism returns the currently installed organism.
func (b *Brain) Organism() *neural.Organism {
	return b.organism
}

// SetOrganism hot-swaps the underlying organism and resets all evaluation
// state accumulated for the previous one.
func (b *Brain) SetOrganism(org *neural.Organism) {
	b.organism = org
	b.AbsoluteScore = 0
	b.Stats.ResetAll()
}

// Reward adds a raw performance sample: it accrues into the absolute score
// for this evaluation period and is tallied into the trial in progress.
func (b *Brain) Reward(sample float64) {
	b.AbsoluteScore += sample
	b.Stats.Tally(sample)
}

// Think decodes the organism's phenotype network and evaluates it on the
// given sensor inputs.
func (b *Brain) Think(inputs []float64) ([]float64, error) {
	p, err := b.organism.Decode()
	if err != nil {
		return nil, err
	}
	return p.Think(inputs)
}

// Stats holds per-brain running statistics over a bounded window of
// evaluation trials. Reset whenever an organism is hot-swapped in.
type Stats struct {
	// NumLifetimeTrials counts trials completed since the last reset.
	NumLifetimeTrials int

	// SampleSize is the exponential window length. Zero means the default.
	SampleSize int

	lifetimeAverage float64
	trial           float64 // accumulator for the trial in progress
}

// defaultSampleSize is the running-average window used when none is set.
const defaultSampleSize = 2

// Tally adds a sample to the trial in progress.
func (s *Stats) Tally(sample float64) {
	s.trial += sample
}

// Trial returns the accumulator for the trial in progress.
func (s *Stats) Trial() float64 {
	return s.trial
}

// LifetimeAverage returns the windowed running average over completed trials.
func (s *Stats) LifetimeAverage() float64 {
	return s.lifetimeAverage
}

// StartNextTrial closes the trial in progress, folds it into the running
// average, and clears the accumulator. Until SampleSize trials have been
// seen the average is an exact mean; afterwards it becomes an exponential
// window of the most recent SampleSize trials.
func (s *Stats) StartNextTrial() {
	n := s.SampleSize
	if n <= 0 {
		n = defaultSampleSize
	}

	s.NumLifetimeTrials++
	if s.NumLifetimeTrials <= n {
		s.lifetimeAverage += s.trial / float64(s.NumLifetimeTrials)
	} else {
		s.lifetimeAverage += s.trial/float64(n) - s.lifetimeAverage/float64(n)
	}
	s.trial = 0
}

// PredictStats linearly extrapolates the trial in progress to a full trial
// length, for organisms judged mid-trial. No-op when the local trial time is
// zero or already complete.
func (s *Stats) PredictStats(timeAlive, fullLife int) {
	if fullLife <= 0 {
		return
	}

	localTimeAlive := timeAlive % fullLife
	if localTimeAlive == 0 {
		return
	}
	if localTimeAlive >= fullLife {
		return
	}

	s.trial *= float64(fullLife) / float64(localTimeAlive)
}

// ResetAll clears all trial state.
func (s *Stats) ResetAll() {
	s.NumLifetimeTrials = 0
	s.lifetimeAverage = 0
	s.trial = 0
}
