package evolve

import "vivarium/neural"

// evaluateAll is the per-tick fitness pass. Raw absolute scores may be
// negative; species math requires non-negative fitness, so the whole cohort
// is shifted by the most negative score before assignment. Smited organisms
// keep only a small fraction of their normalized fitness. Organisms younger
// than the eligibility minimum are skipped entirely.
func (c *Controller) evaluateAll() {
	minScore := 0.0
	for _, b := range c.brains {
		if b.Organism().TimeAlive < c.params.TimeAliveMinimum {
			continue
		}
		if b.AbsoluteScore < minScore {
			minScore = b.AbsoluteScore
		}
	}

	for _, b := range c.brains {
		org := b.Organism()
		if org.TimeAlive < c.params.TimeAliveMinimum {
			continue
		}

		fitness := b.AbsoluteScore
		if minScore < 0 {
			fitness -= minScore
		}
		if fitness < 0 {
			fitness = 0
		}
		if org.Smited {
			fitness *= c.params.SmitePenalty
		}
		org.Fitness = fitness
	}
}

// evolveOnce runs a single replacement cycle: remove the worst eligible
// organism, breed one offspring from a fitness-chosen species, install it
// into the vacated brain slot, and periodically steer the compatibility
// threshold toward the target species count. Returns false when no organism
// was eligible for removal, in which case the population is untouched.
func (c *Controller) evolveOnce() bool {
	dead := c.pop.RemoveWorst(c.params.TimeAliveMinimum)
	if dead == nil {
		return false
	}

	c.pop.EstimateAllAverages()
	for _, s := range c.pop.Species {
		c.log.Debug("species average", "species", s.ID, "avg_fitness", s.AvgFitness, "size", s.Size())
	}
	c.log.Debug("removed worst organism",
		"organism", dead.ID(),
		"fitness", dead.Fitness,
		"time_alive", dead.TimeAlive,
	)

	parent := c.pop.ChooseParentSpecies()
	if parent == nil {
		c.log.Warn("no species left to breed from, replacement deferred",
			"removed", dead.ID(),
		)
		return false
	}
	child, err := c.pop.ReproduceOne(parent)
	if err != nil {
		panic("evolve: reproduction from non-empty species failed: " + err.Error())
	}

	c.maybeAdjustThreshold()

	b := c.brainOf(dead)
	if actor, bound := c.table.ActorFor(b); bound {
		c.locator.RemoveActor(actor)
	}
	b.SetOrganism(child)
	c.table.Detach(b)

	if c.collector != nil {
		c.collector.RecordReplacement(dead.Fitness)
	}
	c.log.Debug("organism replaced",
		"brain", b.ID(),
		"child", child.ID(),
		"species_count", len(c.pop.Species),
		"compat_threshold", c.pop.CompatThreshold,
	)
	return true
}

// maybeAdjustThreshold nudges the speciation threshold toward the target
// species count once every adjustment interval, measured in offspring
// produced. Too few species means the threshold is lumping genomes together
// and comes down; too many and it goes up. The floor keeps speciation from
// collapsing into per-organism species.
func (c *Controller) maybeAdjustThreshold() {
	freq := len(c.brains) / 10
	if freq < 1 {
		freq = 1
	}
	if c.pop.OffspringCount%freq != 0 {
		return
	}

	numSpecies := len(c.pop.Species)
	switch {
	case numSpecies < c.params.TargetSpecies:
		c.pop.CompatThreshold -= c.params.CompatStep
	case numSpecies > c.params.TargetSpecies:
		c.pop.CompatThreshold += c.params.CompatStep
	default:
		return
	}
	if c.pop.CompatThreshold < c.params.CompatFloor {
		c.pop.CompatThreshold = c.params.CompatFloor
	}

	c.pop.ReassignSpecies()

	if c.collector != nil {
		c.collector.RecordThresholdAdjust()
	}
	c.log.Debug("compat threshold adjusted",
		"threshold", c.pop.CompatThreshold,
		"species_count", len(c.pop.Species),
	)
}

// brainOf finds the brain slot holding the given organism. Every population
// organism belongs to exactly one brain.
func (c *Controller) brainOf(org *neural.Organism) *Brain {
	for _, b := range c.brains {
		if b.Organism() == org {
			return b
		}
	}
	panic("evolve: organism has no brain slot")
}
