package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Organism is a single genome instance under continuous evaluation. Fitness,
// age, and the smite flag are mutated by the evolve package; the species
// back-reference is maintained by the Population.
type Organism struct {
	Genome    *genetics.Genome
	Fitness   float64
	TimeAlive int  // evaluation ticks accumulated
	Smited    bool // excluded from full breeding priority

	Species *Species

	phenotype *Phenotype
}

// NewOrganism wraps a genome in a fresh organism with zeroed evaluation state.
func NewOrganism(genome *genetics.Genome) *Organism {
	return &Organism{Genome: genome}
}

// ID returns the genome ID.
func (o *Organism) ID() int {
	return o.Genome.Id
}

// Decode returns the runtime network for this organism's genome, building it
// on first use and caching it for subsequent ticks.
func (o *Organism) Decode() (*Phenotype, error) {
	if o.phenotype != nil {
		return o.phenotype, nil
	}
	p, err := NewPhenotype(o.Genome)
	if err != nil {
		return nil, err
	}
	o.phenotype = p
	return p, nil
}

// Phenotype wraps a goNEAT network for runtime evaluation.
type Phenotype struct {
	genome  *genetics.Genome
	network *network.Network
}

// NewPhenotype builds the network for a genome.
func NewPhenotype(genome *genetics.Genome) (*Phenotype, error) {
	net, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}
	return &Phenotype{genome: genome, network: net}, nil
}

// Think processes sensory inputs and returns actuator outputs.
func (p *Phenotype) Think(inputs []float64) ([]float64, error) {
	if err := p.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := p.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	for i := 0; i < depth; i++ {
		if _, err := p.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := p.network.ReadOutputs()

	// Flush network state for next tick
	if _, err := p.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// NodeCount returns the number of nodes in the network.
func (p *Phenotype) NodeCount() int {
	return p.network.NodeCount()
}

// LinkCount returns the number of links in the network.
func (p *Phenotype) LinkCount() int {
	return p.network.LinkCount()
}
