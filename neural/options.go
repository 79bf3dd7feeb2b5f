// Package neural implements the genome engine: NEAT genomes built on goNEAT
// primitives, plus the steady-state population layer (organisms, species,
// single-offspring reproduction) the evolve package drives.
package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"
)

// DefaultOptions returns NEAT options tuned for continuous, steady-state
// evaluation. The compatibility threshold here is only the starting point;
// the live value is adaptive population state.
func DefaultOptions() *neat.Options {
	return &neat.Options{
		// Trait mutation
		TraitParamMutProb:  0.5,
		TraitMutationPower: 1.0,

		// Weight mutation
		WeightMutPower: 2.5,

		// Structural mutation rates
		MutateAddNodeProb:      0.03,
		MutateAddLinkProb:      0.08,
		MutateToggleEnableProb: 0.01,

		// Weight mutation probability
		MutateLinkWeightsProb: 0.8,
		MutateOnlyProb:        0.25,
		MutateRandomTraitProb: 0.1,

		// Mating probabilities
		MateMultipointProb:    0.6,
		MateMultipointAvgProb: 0.4,
		MateSinglepointProb:   0.0,
		MateOnlyProb:          0.2,
		RecurOnlyProb:         0.0,

		// Speciation
		CompatThreshold: 2.3,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.4,

		// Species management
		DropOffAge:      15,
		SurvivalThresh:  0.2,
		AgeSignificance: 1.0,

		// Population (reference value; actual size is set at spawn time)
		PopSize: 50,
	}
}
