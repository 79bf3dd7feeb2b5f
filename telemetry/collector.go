package telemetry

// PopulationSample is the point-in-time view the controller side provides
// when a window is flushed.
type PopulationSample struct {
	BoundActors     int
	WaitingBrains   int
	PopulationSize  int
	SpeciesCount    int
	CompatThreshold float64
	OffspringTotal  int
	DeletionsTotal  uint64
	EligibleCount   int

	// Fitness holds the normalized fitness of every eligible organism.
	Fitness []float64

	// Scores holds the raw absolute score of every bound brain.
	Scores []float64
}

// Collector accumulates evolution events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	deaths            int
	replacements      int
	thresholdAdjusts  int
	removedFitnessSum float64
}

// NewCollector creates a collector flushing every windowDurationSec of
// simulation time, with dt seconds per tick.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordDeath records a brain detached because its actor died.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordReplacement records one evolution cycle, with the normalized fitness
// of the removed organism.
func (c *Collector) RecordReplacement(removedFitness float64) {
	c.replacements++
	c.removedFitnessSum += removedFitness
}

// RecordThresholdAdjust records a compatibility threshold correction. The
// resulting threshold is sampled at window end via PopulationSample.
func (c *Collector) RecordThresholdAdjust() {
	c.thresholdAdjusts++
}

// ShouldFlush reports whether the current window has elapsed.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats record and resets counters for the next
// window.
func (c *Collector) Flush(currentTick int32, sample PopulationSample) WindowStats {
	fitMean, fitStd, fitMin, fitMax := Distribution(sample.Fitness)
	scoreMean, _, _, scoreBest := Distribution(sample.Scores)

	var removedMean float64
	if c.replacements > 0 {
		removedMean = c.removedFitnessSum / float64(c.replacements)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		BoundActors:   sample.BoundActors,
		WaitingBrains: sample.WaitingBrains,

		PopulationSize:  sample.PopulationSize,
		SpeciesCount:    sample.SpeciesCount,
		CompatThreshold: sample.CompatThreshold,
		OffspringTotal:  sample.OffspringTotal,
		DeletionsTotal:  sample.DeletionsTotal,
		EligibleCount:   sample.EligibleCount,

		Deaths:           c.deaths,
		Replacements:     c.replacements,
		ThresholdAdjusts: c.thresholdAdjusts,

		FitnessMean: fitMean,
		FitnessStd:  fitStd,
		FitnessMin:  fitMin,
		FitnessMax:  fitMax,

		ScoreMean: scoreMean,
		ScoreBest: scoreBest,

		RemovedFitnessMean: removedMean,
	}

	c.windowStartTick = currentTick
	c.deaths = 0
	c.replacements = 0
	c.thresholdAdjusts = 0
	c.removedFitnessSum = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
