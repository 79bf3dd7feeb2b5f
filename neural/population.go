package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Population holds the full organism set and its species partition, plus the
// two pieces of adaptive state the steady-state scheduler tunes: the
// compatibility threshold and the monotonic offspring counter (which doubles
// as the cadence trigger for threshold re-tuning).
type Population struct {
	Organisms []*Organism
	Species   []*Species

	// CompatThreshold is the live speciation cutoff. It starts from
	// opts.CompatThreshold and is adjusted by the scheduler.
	CompatThreshold float64

	// OffspringCount increases by one per reproduction and never resets.
	OffspringCount int

	opts          *neat.Options
	idGen         *GenomeIDGenerator
	rng           *rand.Rand
	nextSpeciesID int
}

// SpawnFromSeed creates a population of the given size by cloning a seed
// genome and perturbing each clone's weights with Gaussian noise, then
// speciating the result.
func SpawnFromSeed(seed *genetics.Genome, size int, noise float64, opts *neat.Options, rng *rand.Rand) (*Population, error) {
	if seed == nil {
		return nil, fmt.Errorf("cannot spawn population from nil seed genome")
	}
	if size < 1 {
		return nil, fmt.Errorf("population size must be positive, got %d", size)
	}

	p := newPopulation(opts, rng)

	for i := 0; i < size; i++ {
		clone, err := CloneGenome(seed, p.idGen.NextID())
		if err != nil {
			return nil, fmt.Errorf("cloning seed genome: %w", err)
		}
		if noise > 0 {
			PerturbWeights(clone, noise)
		}
		org := NewOrganism(clone)
		p.Organisms = append(p.Organisms, org)
		p.speciate(org)
	}

	return p, nil
}

func newPopulation(opts *neat.Options, rng *rand.Rand) *Population {
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}
	return &Population{
		CompatThreshold: opts.CompatThreshold,
		opts:            opts,
		idGen:           NewGenomeIDGenerator(),
		rng:             rng,
		nextSpeciesID:   1,
	}
}

// Size returns the number of organisms.
func (p *Population) Size() int {
	return len(p.Organisms)
}

// Options returns the NEAT options the population was built with.
func (p *Population) Options() *neat.Options {
	return p.opts
}

// IDGen exposes the genome ID generator (shared with mutation operators).
func (p *Population) IDGen() *GenomeIDGenerator {
	return p.idGen
}

// speciate places an organism into the first species whose representative is
// within the current compatibility threshold, creating a new species if none
// matches.
func (p *Population) speciate(o *Organism) {
	for _, sp := range p.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(o.Genome, sp.Representative.Genome, p.opts) < p.CompatThreshold {
			sp.add(o)
			return
		}
	}

	sp := &Species{
		ID:             p.nextSpeciesID,
		Representative: o,
	}
	p.nextSpeciesID++
	sp.add(o)
	p.Species = append(p.Species, sp)
}

// RemoveWorst removes and returns the lowest-fitness organism whose TimeAlive
// is at least timeAliveMinimum. Ties break to the earliest such organism in
// population order. Returns nil when no organism is old enough to be judged.
func (p *Population) RemoveWorst(timeAliveMinimum int) *Organism {
	var worst *Organism
	for _, o := range p.Organisms {
		if o.TimeAlive < timeAliveMinimum {
			continue
		}
		if worst == nil || o.Fitness < worst.Fitness {
			worst = o
		}
	}
	if worst == nil {
		return nil
	}

	for i, o := range p.Organisms {
		if o == worst {
			p.Organisms = append(p.Organisms[:i], p.Organisms[i+1:]...)
			break
		}
	}
	if worst.Species != nil {
		sp := worst.Species
		sp.remove(worst)
		if sp.Size() == 0 {
			p.dropSpecies(sp)
		}
	}

	return worst
}

// EstimateAllAverages recomputes every species' estimated average fitness.
func (p *Population) EstimateAllAverages() {
	for _, sp := range p.Species {
		sp.EstimateAverage()
	}
}

// ChooseParentSpecies selects a species to reproduce from, with probability
// proportional to estimated average fitness. When every estimate is zero
// (population still warming up) the choice is uniform.
func (p *Population) ChooseParentSpecies() *Species {
	if len(p.Species) == 0 {
		return nil
	}

	total := 0.0
	for _, sp := range p.Species {
		total += sp.AvgFitness
	}

	if total <= 0 {
		return p.Species[p.rng.Intn(len(p.Species))]
	}

	pick := p.rng.Float64() * total
	for _, sp := range p.Species {
		pick -= sp.AvgFitness
		if pick <= 0 {
			return sp
		}
	}
	return p.Species[len(p.Species)-1]
}

// ReproduceOne produces exactly one offspring from the parent species: NEAT
// crossover of two distinct members when the species has at least two, a
// mutated clone otherwise. The offspring is speciated under the current
// threshold and appended to the population; OffspringCount increments.
func (p *Population) ReproduceOne(parent *Species) (*Organism, error) {
	if parent == nil || parent.Size() == 0 {
		return nil, fmt.Errorf("cannot reproduce from empty species")
	}

	var childGenome *genetics.Genome
	var err error

	if parent.Size() >= 2 {
		i := p.rng.Intn(parent.Size())
		j := p.rng.Intn(parent.Size() - 1)
		if j >= i {
			j++
		}
		mom := parent.Organisms[i]
		dad := parent.Organisms[j]
		childGenome, err = CrossoverGenomes(mom.Genome, dad.Genome, mom.Fitness, dad.Fitness, p.idGen.NextID())
		if err != nil {
			return nil, fmt.Errorf("crossover failed: %w", err)
		}
	} else {
		childGenome, err = CloneGenome(parent.Organisms[0].Genome, p.idGen.NextID())
		if err != nil {
			return nil, fmt.Errorf("cloning single parent failed: %w", err)
		}
	}

	if _, err := MutateGenome(childGenome, p.opts, p.idGen); err != nil {
		return nil, fmt.Errorf("mutating offspring failed: %w", err)
	}

	child := NewOrganism(childGenome)
	p.Organisms = append(p.Organisms, child)
	p.speciate(child)
	p.OffspringCount++

	return child, nil
}

// ReassignSpecies re-clusters every organism under the current compatibility
// threshold: each organism moves to the first species whose representative it
// is compatible with, or founds a new one. A raised threshold merges species
// this way; a lowered one splits them. Species left empty afterwards are
// dropped.
func (p *Population) ReassignSpecies() {
	for _, o := range p.Organisms {
		placed := false
		for _, sp := range p.Species {
			if sp.Representative == nil || sp.Size() == 0 {
				continue
			}
			if GenomeCompatibility(o.Genome, sp.Representative.Genome, p.opts) >= p.CompatThreshold {
				continue
			}
			if o.Species != sp {
				if o.Species != nil {
					o.Species.remove(o)
				}
				sp.add(o)
			}
			placed = true
			break
		}
		if !placed {
			if o.Species != nil {
				o.Species.remove(o)
			}
			sp := &Species{ID: p.nextSpeciesID, Representative: o}
			p.nextSpeciesID++
			sp.add(o)
			p.Species = append(p.Species, sp)
		}
	}

	// Drop species emptied by the pass
	active := p.Species[:0]
	for _, sp := range p.Species {
		if sp.Size() > 0 {
			active = append(active, sp)
		}
	}
	p.Species = active
}

func (p *Population) dropSpecies(dead *Species) {
	for i, sp := range p.Species {
		if sp == dead {
			p.Species = append(p.Species[:i], p.Species[i+1:]...)
			return
		}
	}
}
