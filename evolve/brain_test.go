package evolve

import (
	"math"
	"testing"
)

func TestStatsExactMeanWithinWindow(t *testing.T) {
	s := Stats{SampleSize: 2}

	s.Tally(4)
	s.StartNextTrial()
	if got := s.LifetimeAverage(); got != 4 {
		t.Errorf("average after 1 trial = %f, want 4", got)
	}

	s.Tally(8)
	s.StartNextTrial()
	// 4 + 8/2 = 8
	if got := s.LifetimeAverage(); got != 8 {
		t.Errorf("average after 2 trials = %f, want 8", got)
	}
}

func TestStatsExponentialWindowBeyondSampleSize(t *testing.T) {
	s := Stats{SampleSize: 2}

	for _, trial := range []float64{4, 8} {
		s.Tally(trial)
		s.StartNextTrial()
	}

	// Third trial: avg += 2/2 - 8/2 = -3
	s.Tally(2)
	s.StartNextTrial()
	if got := s.LifetimeAverage(); math.Abs(got-5) > 1e-12 {
		t.Errorf("average after 3 trials = %f, want 5", got)
	}
	if s.NumLifetimeTrials != 3 {
		t.Errorf("trials = %d, want 3", s.NumLifetimeTrials)
	}
}

func TestStatsPredictScalesPartialTrial(t *testing.T) {
	s := Stats{}
	s.Tally(10)

	// Halfway through a 100-tick trial: extrapolate to 20.
	s.PredictStats(150, 100)
	if got := s.Trial(); math.Abs(got-20) > 1e-12 {
		t.Errorf("predicted trial = %f, want 20", got)
	}
}

func TestStatsPredictNoopAtTrialBoundary(t *testing.T) {
	s := Stats{}
	s.Tally(10)

	s.PredictStats(200, 100)
	if got := s.Trial(); got != 10 {
		t.Errorf("trial = %f, want unchanged 10", got)
	}

	s.PredictStats(50, 0)
	if got := s.Trial(); got != 10 {
		t.Errorf("trial = %f, want unchanged 10", got)
	}
}

func TestBrainRewardAccrues(t *testing.T) {
	b := NewBrain(0, nil)
	b.Reward(1.5)
	b.Reward(-0.5)

	if b.AbsoluteScore != 1.0 {
		t.Errorf("absolute score = %f, want 1.0", b.AbsoluteScore)
	}
	if b.Stats.Trial() != 1.0 {
		t.Errorf("trial accumulator = %f, want 1.0", b.Stats.Trial())
	}
}

func TestHotSwapResetsEvaluationState(t *testing.T) {
	b := NewBrain(0, nil)
	b.Reward(3)
	b.Stats.StartNextTrial()

	b.SetOrganism(nil)

	if b.AbsoluteScore != 0 {
		t.Errorf("absolute score = %f, want 0 after swap", b.AbsoluteScore)
	}
	if b.Stats.NumLifetimeTrials != 0 || b.Stats.LifetimeAverage() != 0 || b.Stats.Trial() != 0 {
		t.Error("stats not fully reset after swap")
	}
	if b.ID() != 0 {
		t.Errorf("brain id changed across swap: %d", b.ID())
	}
}
