package arena

import (
	"math/rand"
	"testing"
)

func TestResourceFieldSampleRange(t *testing.T) {
	rf := NewResourceField(1280, 720, 12, rand.New(rand.NewSource(42)))

	for _, p := range [][2]float32{{0, 0}, {640, 360}, {1280, 720}, {100, 650}} {
		v := rf.Sample(p[0], p[1])
		if v < 0 || v >= 1 {
			t.Errorf("sample at (%.0f, %.0f) = %f, want [0, 1)", p[0], p[1], v)
		}
	}
}

func TestGrazeDepletesField(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rf := NewResourceField(1280, 720, 1, rng)
	c := rf.centers[0]

	before := rf.Sample(c.X, c.Y)
	var total float32
	for i := 0; i < 600; i++ {
		total += rf.Graze(c.X, c.Y, 0.5, 1.0/60.0)
	}
	after := rf.Sample(c.X, c.Y)

	if total <= 0 {
		t.Fatal("grazing on a hotspot yielded nothing")
	}
	if after >= before {
		t.Errorf("density %f after grazing, was %f", after, before)
	}
	if rf.centers[0].Amp < 0 {
		t.Errorf("amplitude went negative: %f", rf.centers[0].Amp)
	}
}

func TestStepRegrowsTowardFull(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rf := NewResourceField(1280, 720, 1, rng)
	rf.centers[0].Amp = 0.2

	for i := 0; i < 600; i++ {
		rf.Step(1.0 / 60.0)
	}

	if got := rf.centers[0].Amp; got <= 0.2 {
		t.Errorf("amplitude = %f, want regrowth above 0.2", got)
	}
	if got := rf.centers[0].Amp; got > 1 {
		t.Errorf("amplitude = %f, want capped at 1", got)
	}
}

func TestStepDriftsWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rf := NewResourceField(100, 100, 5, rng)

	for i := 0; i < 10000; i++ {
		rf.Step(1.0 / 60.0)
	}
	for i, c := range rf.centers {
		if c.X < 0 || c.X >= 100 || c.Y < 0 || c.Y >= 100 {
			t.Errorf("hotspot %d drifted out of bounds: (%f, %f)", i, c.X, c.Y)
		}
	}
}

func TestToroidalDeltaWrapsShortWay(t *testing.T) {
	dx, dy := ToroidalDelta(10, 10, 90, 90, 100, 100)
	if dx != 20 || dy != 20 {
		t.Errorf("delta = (%f, %f), want (20, 20)", dx, dy)
	}

	dx, dy = ToroidalDelta(60, 50, 40, 50, 100, 100)
	if dx != 20 || dy != 0 {
		t.Errorf("delta = (%f, %f), want (20, 0)", dx, dy)
	}
}
