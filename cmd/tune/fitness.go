package main

import (
	"math"
	"math/rand"
	"sync"

	"vivarium/arena"
	"vivarium/config"
	"vivarium/neural"
)

// FitnessEvaluator runs headless arena simulations and computes a tuning
// fitness (lower = better) for a parameter vector.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the speciation quality from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	bestFitness float64 // champion fitness at end of run
	quality     float64 // speciation proximity to target
}

// Evaluate computes fitness for a parameter vector. The score rewards the
// champion fitness the evolved population reaches within the tick budget,
// with a bonus for holding the species count near the target. Negated so
// the minimizer drives it down.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalBest, totalQuality float64
	for _, r := range results {
		totalBest += r.bestFitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))
	avgBest := totalBest / n
	avgQuality := totalQuality / n

	fe.mu.Lock()
	fe.lastQuality = avgQuality
	fe.mu.Unlock()

	return -avgBest * (1 + 0.2*avgQuality)
}

// runSimulation runs one headless arena with the given parameters and seed.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) seedResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	rng := rand.New(rand.NewSource(seed))
	opts := neural.DefaultOptions()

	seedGenome := neural.CreateSeedGenome(1, cfg.Population.Inputs, cfg.Population.Outputs, cfg.Population.ConnectionProb)
	pop, err := neural.SpawnFromSeed(seedGenome, cfg.Population.Size, cfg.Population.WeightNoise, opts, rng)
	if err != nil {
		return seedResult{}
	}

	world := arena.NewWorld(cfg, pop, nil, rng)
	for world.Tick() < fe.maxTicks {
		world.Step()
	}

	var best float64
	if top, ok := world.Champions().Top(); ok {
		best = top.Fitness
	}

	target := cfg.Evolution.TargetSpecies
	species := len(world.Controller().Population().Species)
	quality := 1.0 / (1.0 + math.Abs(float64(species-target)))

	return seedResult{bestFitness: best, quality: quality}
}

// copyConfig returns a mutable copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	c := *fe.baseConfig
	return &c
}
