package evolve

import (
	"fmt"
	"log/slog"
	"os"

	"vivarium/neural"
	"vivarium/telemetry"
)

// ActorLocator is the view of the host simulation the controller needs: it
// asks whether actors it has bindings for are still alive, and evicts an
// actor when the organism driving it is replaced out from under it.
type ActorLocator interface {
	ActorExists(id ActorID) bool

	// RemoveActor kills a live actor whose brain is being retired. The
	// controller never calls this for actors that are already gone.
	RemoveActor(id ActorID)
}

// Params are the knobs of the steady-state loop. Zero values are not
// meaningful; populate from config.
type Params struct {
	// TimeAliveMinimum is the evaluation ticks an organism must accumulate
	// before it is scored or eligible for removal.
	TimeAliveMinimum int

	// MinTicksBetweenEvolutions gates how often a replacement may happen.
	MinTicksBetweenEvolutions int

	// MinDeletionsBeforeEvolution is the attrition the table must have seen
	// before the first replacement.
	MinDeletionsBeforeEvolution uint64

	// TargetSpecies is the species count the compatibility threshold is
	// steered toward.
	TargetSpecies int

	// CompatStep is the threshold adjustment per correction.
	CompatStep float64

	// CompatFloor is the lowest the threshold may be driven.
	CompatFloor float64

	// SmitePenalty multiplies the normalized fitness of smited organisms.
	SmitePenalty float64

	// RunningAvgSamples sizes each brain's trial running-average window.
	RunningAvgSamples int

	// TrialLength, when positive, closes a stats trial every this many
	// evaluation ticks. Zero disables trial segmentation.
	TrialLength int
}

// Controller drives the steady-state loop over one population: it owns the
// binding table, runs the per-tick fitness pass, and fires replacement
// cycles once attrition and spacing conditions are met. All methods must be
// called from the simulation thread.
type Controller struct {
	params  Params
	pop     *neural.Population
	table   *BindingTable
	brains  []*Brain
	locator ActorLocator

	collector *telemetry.Collector
	log       *slog.Logger

	ticksSinceEvolution int
	tick                uint64
}

// NewController wraps every organism of the population in a brain slot and
// queues them all as available. The collector may be nil.
func NewController(pop *neural.Population, params Params, locator ActorLocator, collector *telemetry.Collector) *Controller {
	c := &Controller{
		params:    params,
		pop:       pop,
		table:     NewBindingTable(),
		locator:   locator,
		collector: collector,
		log:       slog.Default().With("component", "evolve"),
	}
	for i, org := range pop.Organisms {
		b := NewBrain(i, org)
		b.Stats.SampleSize = params.RunningAvgSamples
		c.brains = append(c.brains, b)
		c.table.Enqueue(b)
	}
	return c
}

// Ready reports whether a brain is available for a new actor.
func (c *Controller) Ready() bool {
	return c.table.HasAvailable()
}

// HasBrain reports whether the actor currently holds a binding.
func (c *Controller) HasBrain(actor ActorID) bool {
	return c.table.IsBound(actor)
}

// RequestBrain returns the actor's brain, binding one from the waiting queue
// on first request. Callers must check Ready before requesting a brain for a
// fresh actor.
func (c *Controller) RequestBrain(actor ActorID) *Brain {
	return c.table.GetOrCreateBinding(actor)
}

// Brain returns the actor's bound brain, or nil.
func (c *Controller) Brain(actor ActorID) *Brain {
	return c.table.BrainFor(actor)
}

// ReleaseBrain returns the actor's brain to the waiting queue without
// counting a deletion. Used when an actor surrenders its brain while staying
// alive. Panics if the actor is unbound.
func (c *Controller) ReleaseBrain(actor ActorID) {
	c.table.Release(actor)
}

// Smite marks the actor's organism as unworthy. Its normalized fitness is
// slashed on every subsequent evaluation pass, making it the likely next
// removal. Returns false when the actor is unbound.
func (c *Controller) Smite(actor ActorID) bool {
	b := c.table.BrainFor(actor)
	if b == nil {
		return false
	}
	b.Organism().Smited = true
	c.log.Debug("organism smited", "actor", actor, "brain", b.ID())
	return true
}

// Table exposes the binding table, read-only by convention.
func (c *Controller) Table() *BindingTable {
	return c.table
}

// Population returns the underlying population.
func (c *Controller) Population() *neural.Population {
	return c.pop
}

// Brains returns all brain slots, bound and waiting.
func (c *Controller) Brains() []*Brain {
	return c.brains
}

// Tick advances the controller by one simulation step: it detaches brains
// whose actors have died, ages and re-scores every eligible organism, and
// runs at most one replacement cycle if attrition and spacing permit.
func (c *Controller) Tick() {
	c.tick++
	c.ticksSinceEvolution++

	c.detachDead()
	c.ageBound()
	c.evaluateAll()

	if c.table.Deletions() >= c.params.MinDeletionsBeforeEvolution &&
		c.ticksSinceEvolution >= c.params.MinTicksBetweenEvolutions {
		if c.evolveOnce() {
			c.ticksSinceEvolution = 0
		}
	}
}

// detachDead walks current bindings and retires brains whose actors are no
// longer present in the host simulation.
func (c *Controller) detachDead() {
	for _, actor := range c.table.BoundActors() {
		if c.locator.ActorExists(actor) {
			continue
		}
		b := c.table.BrainFor(actor)
		c.table.Detach(b)
		if c.collector != nil {
			c.collector.RecordDeath()
		}
		c.log.Debug("actor died, brain detached",
			"actor", actor,
			"brain", b.ID(),
			"score", b.AbsoluteScore,
		)
	}
}

// ageBound accumulates evaluation time on every bound organism and closes
// stats trials at the configured trial length.
func (c *Controller) ageBound() {
	if c.params.TrialLength <= 0 {
		c.ageBoundUntimed()
		return
	}
	for _, actor := range c.table.BoundActors() {
		b := c.table.BrainFor(actor)
		org := b.Organism()
		org.TimeAlive++
		if org.TimeAlive%c.params.TrialLength == 0 {
			b.Stats.StartNextTrial()
		}
	}
}

func (c *Controller) ageBoundUntimed() {
	for _, actor := range c.table.BoundActors() {
		c.table.BrainFor(actor).Organism().TimeAlive++
	}
}

// Sample snapshots binding and population state for a telemetry window
// flush.
func (c *Controller) Sample() telemetry.PopulationSample {
	sample := telemetry.PopulationSample{
		BoundActors:     c.table.BoundCount(),
		WaitingBrains:   c.table.WaitingCount(),
		PopulationSize:  c.pop.Size(),
		SpeciesCount:    len(c.pop.Species),
		CompatThreshold: c.pop.CompatThreshold,
		OffspringTotal:  c.pop.OffspringCount,
		DeletionsTotal:  c.table.Deletions(),
	}
	for _, b := range c.brains {
		org := b.Organism()
		if org.TimeAlive < c.params.TimeAliveMinimum {
			continue
		}
		sample.EligibleCount++
		sample.Fitness = append(sample.Fitness, org.Fitness)
	}
	for _, actor := range c.table.BoundActors() {
		sample.Scores = append(sample.Scores, c.table.BrainFor(actor).AbsoluteScore)
	}
	return sample
}

// TicksSinceEvolution returns ticks elapsed since the last replacement.
func (c *Controller) TicksSinceEvolution() int {
	return c.ticksSinceEvolution
}

// SavePopulation writes the population to path in its YAML form.
func (c *Controller) SavePopulation(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save population: %w", err)
	}
	defer f.Close()

	if err := c.pop.Save(f); err != nil {
		return fmt.Errorf("save population: %w", err)
	}
	c.log.Debug("population saved", "path", path, "size", c.pop.Size())
	return nil
}
