package neural

import (
	"math/rand"
	"testing"
)

func newTestPopulation(t *testing.T, size int, noise float64) *Population {
	t.Helper()

	seed := CreateSeedGenome(1, 4, 2, 1.0)
	p, err := SpawnFromSeed(seed, size, noise, DefaultOptions(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	return p
}

func speciesMemberTotal(p *Population) int {
	total := 0
	for _, sp := range p.Species {
		total += sp.Size()
	}
	return total
}

func TestSpawnFromSeedSpeciatesEveryone(t *testing.T) {
	p := newTestPopulation(t, 20, 0.5)

	if p.Size() != 20 {
		t.Fatalf("population size = %d, want 20", p.Size())
	}
	if len(p.Species) == 0 {
		t.Fatal("expected at least one species")
	}
	if got := speciesMemberTotal(p); got != 20 {
		t.Errorf("species member total = %d, want 20", got)
	}
	for _, o := range p.Organisms {
		if o.Species == nil {
			t.Errorf("organism %d has no species", o.ID())
		}
	}
}

func TestRemoveWorstPicksLowestFitness(t *testing.T) {
	p := newTestPopulation(t, 3, 0.5)

	fitness := []float64{5, 1, 3}
	for i, o := range p.Organisms {
		o.Fitness = fitness[i]
		o.TimeAlive = 50
	}
	target := p.Organisms[1]

	removed := p.RemoveWorst(30)
	if removed != target {
		t.Errorf("removed organism %d, want %d", removed.ID(), target.ID())
	}
	if p.Size() != 2 {
		t.Errorf("population size = %d, want 2", p.Size())
	}
	if got := speciesMemberTotal(p); got != 2 {
		t.Errorf("species member total = %d, want 2", got)
	}
}

func TestRemoveWorstTieBreaksToFirst(t *testing.T) {
	p := newTestPopulation(t, 3, 0.5)

	for _, o := range p.Organisms {
		o.Fitness = 1
		o.TimeAlive = 50
	}
	first := p.Organisms[0]

	if removed := p.RemoveWorst(30); removed != first {
		t.Errorf("removed organism %d, want first organism %d", removed.ID(), first.ID())
	}
}

func TestRemoveWorstSkipsYoungOrganisms(t *testing.T) {
	p := newTestPopulation(t, 3, 0.5)

	// The absolute worst is too young to be judged.
	p.Organisms[0].Fitness = 0
	p.Organisms[0].TimeAlive = 5
	p.Organisms[1].Fitness = 2
	p.Organisms[1].TimeAlive = 50
	p.Organisms[2].Fitness = 4
	p.Organisms[2].TimeAlive = 50
	expected := p.Organisms[1]

	removed := p.RemoveWorst(30)
	if removed != expected {
		t.Errorf("removed organism %d, want eligible worst %d", removed.ID(), expected.ID())
	}
}

func TestRemoveWorstReturnsNilWhenAllYoung(t *testing.T) {
	p := newTestPopulation(t, 3, 0.5)

	if removed := p.RemoveWorst(30); removed != nil {
		t.Errorf("expected nil, removed organism %d", removed.ID())
	}
	if p.Size() != 3 {
		t.Errorf("population size = %d, want unchanged 3", p.Size())
	}
}

func TestChooseParentSpeciesUniformWhenUnscored(t *testing.T) {
	p := newTestPopulation(t, 10, 0.5)

	if sp := p.ChooseParentSpecies(); sp == nil {
		t.Error("expected a species even with all-zero averages")
	}
}

func TestChooseParentSpeciesFavorsFitness(t *testing.T) {
	p := newTestPopulation(t, 10, 2.0)

	for i, o := range p.Organisms {
		o.Fitness = float64(i)
	}
	p.EstimateAllAverages()

	for i := 0; i < 50; i++ {
		sp := p.ChooseParentSpecies()
		if sp == nil {
			t.Fatal("nil parent species")
		}
		if sp.AvgFitness == 0 && len(p.Species) > 1 {
			// Zero-average species must never win a weighted draw when
			// positive averages exist.
			total := 0.0
			for _, other := range p.Species {
				total += other.AvgFitness
			}
			if total > 0 {
				t.Fatal("weighted choice returned zero-fitness species")
			}
		}
	}
}

func TestReproduceOneGrowsPopulation(t *testing.T) {
	p := newTestPopulation(t, 5, 0.5)

	parent := p.Species[0]
	child, err := p.ReproduceOne(parent)
	if err != nil {
		t.Fatalf("reproduce failed: %v", err)
	}

	if p.Size() != 6 {
		t.Errorf("population size = %d, want 6", p.Size())
	}
	if p.OffspringCount != 1 {
		t.Errorf("offspring count = %d, want 1", p.OffspringCount)
	}
	if child.Species == nil {
		t.Error("offspring not speciated")
	}
	found := false
	for _, o := range p.Organisms {
		if o == child {
			found = true
		}
	}
	if !found {
		t.Error("offspring not in population")
	}
}

func TestReproduceOneFromEmptySpeciesFails(t *testing.T) {
	p := newTestPopulation(t, 5, 0.5)

	if _, err := p.ReproduceOne(&Species{ID: 99}); err == nil {
		t.Error("expected error reproducing from empty species")
	}
	if _, err := p.ReproduceOne(nil); err == nil {
		t.Error("expected error reproducing from nil species")
	}
}

func TestReassignSpeciesMergesUnderHighThreshold(t *testing.T) {
	p := newTestPopulation(t, 20, 3.0)

	p.CompatThreshold = 1000
	p.ReassignSpecies()

	if got := len(p.Species); got != 1 {
		t.Errorf("species count = %d, want 1 under huge threshold", got)
	}
	if got := speciesMemberTotal(p); got != 20 {
		t.Errorf("species member total = %d, want 20", got)
	}
}

func TestReassignSpeciesStable(t *testing.T) {
	p := newTestPopulation(t, 20, 2.0)

	p.ReassignSpecies()
	countAfterFirst := len(p.Species)
	p.ReassignSpecies()

	if got := len(p.Species); got != countAfterFirst {
		t.Errorf("species count changed on repeat pass: %d -> %d", countAfterFirst, got)
	}
	if got := speciesMemberTotal(p); got != 20 {
		t.Errorf("species member total = %d, want 20", got)
	}
}
