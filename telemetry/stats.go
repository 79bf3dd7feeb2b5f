// Package telemetry aggregates evolution events into time-windowed records
// and writes them to structured logs and CSV output.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Binding state at window end
	BoundActors   int `csv:"bound_actors"`
	WaitingBrains int `csv:"waiting_brains"`

	// Population state at window end
	PopulationSize  int     `csv:"population"`
	SpeciesCount    int     `csv:"species"`
	CompatThreshold float64 `csv:"compat_threshold"`
	OffspringTotal  int     `csv:"offspring_total"`
	DeletionsTotal  uint64  `csv:"deletions_total"`
	EligibleCount   int     `csv:"eligible"`

	// Events during window
	Deaths           int `csv:"deaths"`
	Replacements     int `csv:"replacements"`
	ThresholdAdjusts int `csv:"threshold_adjusts"`

	// Fitness distribution over eligible organisms (sampled at window end)
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessMin  float64 `csv:"fitness_min"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Raw absolute scores over bound brains
	ScoreMean float64 `csv:"score_mean"`
	ScoreBest float64 `csv:"score_best"`

	// Mean normalized fitness of organisms removed this window
	RemovedFitnessMean float64 `csv:"removed_fitness_mean"`
}

// Distribution summarizes a sample as mean, standard deviation, min and max.
// All zeros for an empty sample.
func Distribution(values []float64) (mean, std, min, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	min = floats.Min(values)
	max = floats.Max(values)
	return mean, std, min, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bound_actors", s.BoundActors),
		slog.Int("waiting_brains", s.WaitingBrains),
		slog.Int("population", s.PopulationSize),
		slog.Int("species", s.SpeciesCount),
		slog.Float64("compat_threshold", s.CompatThreshold),
		slog.Int("offspring_total", s.OffspringTotal),
		slog.Uint64("deletions_total", s.DeletionsTotal),
		slog.Int("eligible", s.EligibleCount),
		slog.Int("deaths", s.Deaths),
		slog.Int("replacements", s.Replacements),
		slog.Int("threshold_adjusts", s.ThresholdAdjusts),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_min", s.FitnessMin),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Float64("score_best", s.ScoreBest),
		slog.Float64("removed_fitness_mean", s.RemovedFitnessMean),
	)
}

// LogStats logs the window stats at info level.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"bound_actors", s.BoundActors,
		"waiting_brains", s.WaitingBrains,
		"population", s.PopulationSize,
		"species", s.SpeciesCount,
		"compat_threshold", s.CompatThreshold,
		"deaths", s.Deaths,
		"replacements", s.Replacements,
		"fitness_mean", s.FitnessMean,
		"fitness_max", s.FitnessMax,
		"score_best", s.ScoreBest,
	)
}
