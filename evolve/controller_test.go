package evolve

import (
	"math"
	"math/rand"
	"testing"

	"vivarium/neural"
)

type fakeLocator struct {
	alive map[ActorID]bool
}

func (l *fakeLocator) ActorExists(id ActorID) bool {
	return l.alive[id]
}

func (l *fakeLocator) RemoveActor(id ActorID) {
	delete(l.alive, id)
}

func testParams() Params {
	return Params{
		TimeAliveMinimum:            0,
		MinTicksBetweenEvolutions:   0,
		MinDeletionsBeforeEvolution: 0,
		TargetSpecies:               5,
		CompatStep:                  0.1,
		CompatFloor:                 0.3,
		SmitePenalty:                0.01,
		RunningAvgSamples:           2,
	}
}

func newTestController(t *testing.T, size int, params Params) (*Controller, *fakeLocator) {
	t.Helper()

	opts := neural.DefaultOptions()
	seed := neural.CreateSeedGenome(1, 4, 2, 1.0)
	pop, err := neural.SpawnFromSeed(seed, size, 0.5, opts, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("spawning population: %v", err)
	}

	loc := &fakeLocator{alive: make(map[ActorID]bool)}
	return NewController(pop, params, loc, nil), loc
}

func TestControllerStartsFullyAvailable(t *testing.T) {
	c, _ := newTestController(t, 10, testParams())

	if !c.Ready() {
		t.Fatal("expected brains available at start")
	}
	if got := c.Table().WaitingCount(); got != 10 {
		t.Errorf("waiting = %d, want 10", got)
	}
	if got := c.Table().BoundCount(); got != 0 {
		t.Errorf("bound = %d, want 0", got)
	}
}

func TestRequestBrainIdempotent(t *testing.T) {
	c, loc := newTestController(t, 3, testParams())
	loc.alive[1] = true

	first := c.RequestBrain(1)
	second := c.RequestBrain(1)
	if first != second {
		t.Error("repeated request for same actor returned different brains")
	}
	if !c.HasBrain(1) {
		t.Error("actor not reported bound")
	}
}

func TestSmiteRequiresBinding(t *testing.T) {
	c, loc := newTestController(t, 3, testParams())
	loc.alive[1] = true

	if c.Smite(1) {
		t.Error("smite succeeded on unbound actor")
	}

	b := c.RequestBrain(1)
	if !c.Smite(1) {
		t.Error("smite failed on bound actor")
	}
	if !b.Organism().Smited {
		t.Error("smite flag not set on organism")
	}
}

func TestFitnessNormalizationShiftsByMostNegative(t *testing.T) {
	c, _ := newTestController(t, 10, testParams())

	scores := []float64{-5, -2, 0, 3, 8, 1, -1, 4, 2, -3}
	for i, b := range c.Brains() {
		b.AbsoluteScore = scores[i]
	}

	c.evaluateAll()

	want := []float64{0, 3, 5, 8, 13, 6, 4, 9, 7, 2}
	for i, b := range c.Brains() {
		got := b.Organism().Fitness
		if math.Abs(got-want[i]) > 1e-12 {
			t.Errorf("brain %d fitness = %f, want %f", i, got, want[i])
		}
		if got < 0 {
			t.Errorf("brain %d fitness negative: %f", i, got)
		}
	}
}

func TestFitnessAllNonNegativeScoresUnshifted(t *testing.T) {
	c, _ := newTestController(t, 3, testParams())

	for i, b := range c.Brains() {
		b.AbsoluteScore = float64(i + 1)
	}
	c.evaluateAll()

	for i, b := range c.Brains() {
		if got := b.Organism().Fitness; got != float64(i+1) {
			t.Errorf("brain %d fitness = %f, want %d", i, got, i+1)
		}
	}
}

func TestSmiteSlashesNormalizedFitness(t *testing.T) {
	c, _ := newTestController(t, 2, testParams())

	brains := c.Brains()
	brains[0].AbsoluteScore = 10
	brains[1].AbsoluteScore = 10
	brains[1].Organism().Smited = true

	c.evaluateAll()

	healthy := brains[0].Organism().Fitness
	smited := brains[1].Organism().Fitness
	if math.Abs(smited-healthy*0.01) > 1e-12 {
		t.Errorf("smited fitness = %f, want %f", smited, healthy*0.01)
	}
	if smited >= healthy {
		t.Error("smite did not reduce fitness")
	}
}

func TestYoungOrganismsNotScored(t *testing.T) {
	params := testParams()
	params.TimeAliveMinimum = 30
	c, _ := newTestController(t, 3, params)

	brains := c.Brains()
	brains[0].Organism().TimeAlive = 30
	brains[0].AbsoluteScore = 2
	// brains[1] is young with a hugely negative score: it must not shift the
	// eligible cohort.
	brains[1].AbsoluteScore = -100
	brains[1].Organism().Fitness = 123
	brains[2].AbsoluteScore = 1

	c.evaluateAll()

	if got := brains[0].Organism().Fitness; got != 2 {
		t.Errorf("eligible fitness = %f, want 2 (no shift)", got)
	}
	if got := brains[1].Organism().Fitness; got != 123 {
		t.Errorf("young organism fitness = %f, want untouched 123", got)
	}
}

func TestEvolutionCycleIsNetZero(t *testing.T) {
	c, _ := newTestController(t, 10, testParams())

	for i, b := range c.Brains() {
		b.AbsoluteScore = float64(i)
	}
	c.evaluateAll()

	dead := c.pop.Organisms[0]
	sizeBefore := c.pop.Size()

	if !c.evolveOnce() {
		t.Fatal("expected evolution cycle to run")
	}

	if got := c.pop.Size(); got != sizeBefore {
		t.Errorf("population size = %d, want %d", got, sizeBefore)
	}
	if got := c.pop.OffspringCount; got != 1 {
		t.Errorf("offspring count = %d, want 1", got)
	}
	for _, org := range c.pop.Organisms {
		if org == dead {
			t.Error("removed organism still in population")
		}
	}
	if got := len(c.Brains()); got != 10 {
		t.Errorf("brain count = %d, want 10", got)
	}
}

func TestEvolutionNoopWithoutEligibleOrganisms(t *testing.T) {
	params := testParams()
	params.TimeAliveMinimum = 30
	c, _ := newTestController(t, 5, params)

	if c.evolveOnce() {
		t.Fatal("expected no-op with all organisms too young")
	}
	if got := c.pop.Size(); got != 5 {
		t.Errorf("population size = %d, want 5", got)
	}
	if c.pop.OffspringCount != 0 {
		t.Errorf("offspring count = %d, want 0", c.pop.OffspringCount)
	}
}

func TestEvolutionDefersWhenLastSpeciesEmptied(t *testing.T) {
	c, _ := newTestController(t, 1, testParams())
	c.pop.Organisms[0].TimeAlive = 100

	if c.evolveOnce() {
		t.Fatal("expected deferred cycle with no species left to breed from")
	}
	if got := c.pop.OffspringCount; got != 0 {
		t.Errorf("offspring count = %d, want 0", got)
	}
}

func TestThresholdFloor(t *testing.T) {
	params := testParams()
	params.TargetSpecies = 1000 // always fewer species than target
	c, _ := newTestController(t, 10, params)

	c.pop.CompatThreshold = 0.35
	c.pop.OffspringCount = 1 // freq is 1 for 10 brains

	c.maybeAdjustThreshold()

	if got := c.pop.CompatThreshold; got != 0.3 {
		t.Errorf("threshold = %f, want floor 0.3", got)
	}
}

func TestThresholdAdjustCadence(t *testing.T) {
	params := testParams()
	params.TargetSpecies = 1000
	c, _ := newTestController(t, 47, params)

	// 47 brains gives an adjustment interval of 4 offspring.
	before := c.pop.CompatThreshold
	for _, count := range []int{1, 2, 3} {
		c.pop.OffspringCount = count
		c.maybeAdjustThreshold()
		if c.pop.CompatThreshold != before {
			t.Fatalf("threshold adjusted at offspring count %d", count)
		}
	}

	c.pop.OffspringCount = 4
	c.maybeAdjustThreshold()
	if got := c.pop.CompatThreshold; math.Abs(got-(before-0.1)) > 1e-12 {
		t.Errorf("threshold = %f, want %f", got, before-0.1)
	}
}

func TestThresholdRaisedWhenTooManySpecies(t *testing.T) {
	params := testParams()
	params.TargetSpecies = 0 // always more species than target
	c, _ := newTestController(t, 10, params)

	before := c.pop.CompatThreshold
	c.pop.OffspringCount = 1
	c.maybeAdjustThreshold()

	if got := c.pop.CompatThreshold; math.Abs(got-(before+0.1)) > 1e-12 {
		t.Errorf("threshold = %f, want %f", got, before+0.1)
	}
}

func TestTickDetachesDeadActors(t *testing.T) {
	params := testParams()
	params.MinDeletionsBeforeEvolution = 100 // keep evolution out of the way
	c, loc := newTestController(t, 5, params)

	loc.alive[1] = true
	loc.alive[2] = true
	c.RequestBrain(1)
	c.RequestBrain(2)

	loc.alive[1] = false
	c.Tick()

	if c.HasBrain(1) {
		t.Error("dead actor still bound")
	}
	if !c.HasBrain(2) {
		t.Error("live actor lost its brain")
	}
	if got := c.Table().Deletions(); got != 1 {
		t.Errorf("deletions = %d, want 1", got)
	}
}

func TestTickAgesBoundOrganisms(t *testing.T) {
	params := testParams()
	params.MinDeletionsBeforeEvolution = 100
	c, loc := newTestController(t, 3, params)

	loc.alive[1] = true
	b := c.RequestBrain(1)

	for i := 0; i < 7; i++ {
		c.Tick()
	}
	if got := b.Organism().TimeAlive; got != 7 {
		t.Errorf("time alive = %d, want 7", got)
	}

	for _, waiting := range c.Brains() {
		if waiting == b {
			continue
		}
		if waiting.Organism().TimeAlive != 0 {
			t.Error("unbound organism accumulated evaluation time")
		}
	}
}

func TestEvolutionTriggerScenario(t *testing.T) {
	params := testParams()
	params.MinTicksBetweenEvolutions = 10
	params.MinDeletionsBeforeEvolution = 5
	c, loc := newTestController(t, 10, params)

	for id := ActorID(1); id <= 6; id++ {
		loc.alive[id] = true
		c.RequestBrain(id)
	}

	// Four deaths over the first four ticks, then idle until tick 12.
	for tick := 1; tick <= 12; tick++ {
		if tick <= 4 {
			loc.alive[ActorID(tick)] = false
		}
		c.Tick()
	}

	if c.pop.OffspringCount != 0 {
		t.Fatalf("evolution fired early: offspring = %d", c.pop.OffspringCount)
	}
	if got := c.TicksSinceEvolution(); got != 12 {
		t.Errorf("ticks since evolution = %d, want 12", got)
	}

	// Fifth death crosses the attrition threshold; the next tick fires.
	loc.alive[5] = false
	c.Tick()

	if c.pop.OffspringCount != 1 {
		t.Errorf("offspring = %d, want 1 after trigger", c.pop.OffspringCount)
	}
	if got := c.TicksSinceEvolution(); got != 0 {
		t.Errorf("ticks since evolution = %d, want reset to 0", got)
	}
	if got := c.pop.Size(); got != 10 {
		t.Errorf("population size = %d, want 10", got)
	}
}
