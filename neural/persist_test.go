package neural

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestPopulationSaveLoadRoundTrip(t *testing.T) {
	p := newTestPopulation(t, 10, 0.5)
	p.CompatThreshold = 1.7
	p.Organisms[0].Fitness = 3.5
	p.Organisms[0].TimeAlive = 42
	p.Organisms[1].Smited = true

	if _, err := p.ReproduceOne(p.Species[0]); err != nil {
		t.Fatalf("reproduce failed: %v", err)
	}

	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadPopulation(&buf, DefaultOptions(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Size() != p.Size() {
		t.Errorf("loaded size = %d, want %d", loaded.Size(), p.Size())
	}
	if loaded.CompatThreshold != 1.7 {
		t.Errorf("loaded threshold = %f, want 1.7", loaded.CompatThreshold)
	}
	if loaded.OffspringCount != p.OffspringCount {
		t.Errorf("loaded offspring count = %d, want %d", loaded.OffspringCount, p.OffspringCount)
	}

	first := loaded.Organisms[0]
	if first.Fitness != 3.5 || first.TimeAlive != 42 {
		t.Errorf("organism state not restored: fitness %f, time alive %d", first.Fitness, first.TimeAlive)
	}
	if !loaded.Organisms[1].Smited {
		t.Error("smite flag not restored")
	}

	for _, o := range loaded.Organisms {
		if o.Species == nil {
			t.Errorf("loaded organism %d not speciated", o.ID())
		}
		if _, err := o.Decode(); err != nil {
			t.Errorf("loaded organism %d fails to decode: %v", o.ID(), err)
		}
	}
}

func TestLoadedIDGeneratorAvoidsCollisions(t *testing.T) {
	p := newTestPopulation(t, 5, 0.5)

	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadPopulation(&buf, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	used := make(map[int]bool)
	for _, o := range loaded.Organisms {
		used[o.ID()] = true
	}

	child, err := loaded.ReproduceOne(loaded.Species[0])
	if err != nil {
		t.Fatalf("reproduce failed: %v", err)
	}
	if used[child.ID()] {
		t.Errorf("offspring reused genome id %d", child.ID())
	}
}

func TestLoadedInnovationCounterAvoidsCollisions(t *testing.T) {
	p := newTestPopulation(t, 5, 0.5)

	// A structural mutation before saving leaves genes carrying freshly
	// issued innovation numbers.
	if !addNode(p.Organisms[0].Genome, p.IDGen()) {
		t.Fatal("add-node mutation failed")
	}

	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadPopulation(&buf, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var maxInnov int64
	for _, o := range loaded.Organisms {
		for _, gene := range o.Genome.Genes {
			if gene.InnovationNum > maxInnov {
				maxInnov = gene.InnovationNum
			}
		}
	}

	if next := loaded.IDGen().NextInnovation(); next <= maxInnov {
		t.Errorf("fresh innovation %d collides with a persisted gene's innovation (max %d)", next, maxInnov)
	}
}
